// Package canbadger implements a host-side client for the CANBadger automotive
// diagnostics adapter: device discovery and transport, ISO-TP framing and a UDS
// session layer are built on top of it in the pkg/ subpackages.
package canbadger

import "errors"

// Wire/encoding errors. These are returned immediately, with no partial I/O.
var (
	ErrBadHeader       = errors.New("canbadger: buffer too short to contain a wire header")
	ErrInvalidSettings = errors.New("canbadger: invalid device settings")
	ErrShortFrame      = errors.New("canbadger: frame payload is empty")
)

// ISO-TP protocol errors. On the receive side these conditions surface as a
// receive-state transition to Error rather than as a returned Go error -
// ReceiveMessage logs them and returns an empty payload, matching the
// original's print-and-continue posture at the protocol layer.
// ErrPayloadTooLarge is the exception: Message.Format returns it directly.
var (
	ErrBadSequence         = errors.New("canbadger: consecutive frame has an unexpected sequence counter")
	ErrArbIDMismatch       = errors.New("canbadger: frame arbitration id does not match the in-flight message")
	ErrUnexpectedFrameType = errors.New("canbadger: frame type is not valid for the current receive state")
	ErrPayloadTooLarge     = errors.New("canbadger: iso-tp payload exceeds the protocol maximum of 4095 bytes")
)

// UDS session errors.
var (
	ErrNotConnected     = errors.New("canbadger: interface is not connected")
	ErrNoResponse       = errors.New("canbadger: timed out waiting for a uds response")
	ErrNegativeResponse = errors.New("canbadger: received a negative response (0x7F)")
	ErrTransferTooLarge = errors.New("canbadger: transfer_data length exceeds 4096 bytes")
)
