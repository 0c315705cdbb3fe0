package canbadger

import "github.com/brutella/can"

// ExtendedIDThreshold is the highest 11-bit standard arbitration id; frames
// above it use 29-bit extended addressing.
const ExtendedIDThreshold = 0x7FF

// ExtendedIDFlag is ORed into the arbitration id of a START_REPLAY payload
// (§6) when the frame being replayed uses extended addressing.
const ExtendedIDFlag = 0x80000000

// Frame is a single CAN frame: an arbitration id and its data payload. Unlike
// can.Frame (which always carries a fixed 8-byte array, matching the wire
// shape of a real CAN controller) Frame keeps the payload as a slice sized to
// what was actually sent or received, since ISO-TP single/first/consecutive
// frames are padded optionally rather than unconditionally.
type Frame struct {
	ArbID   uint32
	Payload []byte
}

// NewFrame builds a Frame from an arbitration id and payload. IsExtendedID
// is computed from the arbitration id on each call rather than stored.
func NewFrame(arbID uint32, payload []byte) Frame {
	return Frame{ArbID: arbID, Payload: payload}
}

// IsExtendedID reports whether this frame uses 29-bit extended addressing.
func (f Frame) IsExtendedID() bool {
	return f.ArbID > ExtendedIDThreshold
}

// ToCANFrame converts to a brutella/can.Frame, the shape used by a real
// SocketCAN bus. This lets a caller that also drives a local CAN interface
// through github.com/brutella/can move frames between the device transport
// in this module and a native bus without writing a separate adapter -
// mirroring the conversion socketcan.go performs in the reverse direction.
func (f Frame) ToCANFrame() can.Frame {
	var data [8]byte
	n := copy(data[:], f.Payload)
	return can.Frame{
		ID:     f.ArbID,
		Length: uint8(n),
		Data:   data,
	}
}

// FrameFromCAN builds a Frame from a brutella/can.Frame, trimming the data
// array down to the frame's declared length.
func FrameFromCAN(cf can.Frame) Frame {
	payload := make([]byte, cf.Length)
	copy(payload, cf.Data[:cf.Length])
	return NewFrame(cf.ID, payload)
}
