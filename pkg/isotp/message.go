// Package isotp implements ISO 15765-2 transport: single/first/consecutive/
// flow-control framing, reassembly and fragmentation of multi-frame
// messages, and a handler that couples a message to a CAN-frame interface.
package isotp

import (
	log "github.com/sirupsen/logrus"

	canbadger "github.com/noelscher/canbadger-go"
)

// RxState is a receive state of an in-flight Message.
type RxState int

const (
	ExpectSFOrFF RxState = iota
	SendFC
	ExpectCF
	Complete
	Error
)

func (s RxState) String() string {
	switch s {
	case ExpectSFOrFF:
		return "EXPECT_SF_OR_FF"
	case SendFC:
		return "SEND_FC"
	case ExpectCF:
		return "EXPECT_CF"
	case Complete:
		return "COMPLETE"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Frame type high nibble values.
const (
	frameTypeSF byte = 0x00
	frameTypeFF byte = 0x10
	frameTypeCF byte = 0x20
	frameTypeFC byte = 0x30
)

const (
	frameTypeMask = 0xF0
	lenOrCtrMask  = 0x0F

	// MaxSingleFrameLen is the most payload bytes a single frame can carry.
	MaxSingleFrameLen = 7
	// MaxMessageLen is the protocol's maximum multi-frame payload length.
	MaxMessageLen = 4095
)

// Message is an in-flight ISO-TP message: either being reassembled from
// received CAN frames, or fully built for fragmentation into frames.
type Message struct {
	ArbID       uint32
	Payload     []byte
	PaddingByte *byte

	RxState     RxState
	NumReceived int
	RxLen       int
	RxNextCtr   int

	arbIDSet bool
}

// NewMessage builds a Message. If arbID is non-nil, incoming frames with a
// different arbitration id transition the message to Error instead of
// adopting the frame's id.
func NewMessage(arbID *uint32, paddingByte *byte) *Message {
	m := &Message{PaddingByte: paddingByte}
	if arbID != nil {
		m.ArbID = *arbID
		m.arbIDSet = true
	}
	return m
}

// Reset reuses a Message for a fresh Feed sequence, discarding any
// previously reassembled payload.
func (m *Message) Reset() {
	m.RxState = ExpectSFOrFF
	m.NumReceived = 0
	m.RxLen = 0
	m.RxNextCtr = 0
	m.Payload = nil
}

// Feed drives the receive state machine with one CAN frame. It returns
// true once the message is Complete (a terminal, successful state);
// reaching Error also returns false, and the caller is expected to inspect
// RxState to tell a protocol failure from "still assembling".
func (m *Message) Feed(frame canbadger.Frame) bool {
	if len(frame.Payload) < 1 {
		m.RxState = Error
		log.Warnf("[ISOTP] empty frame payload, arb_id=%#x", frame.ArbID)
		return false
	}

	frameType := frame.Payload[0] & frameTypeMask

	if frameType == frameTypeFC {
		// The message itself ignores flow control; the handler owns it.
		return m.RxState == Complete
	}

	switch m.RxState {
	case ExpectSFOrFF:
		if m.arbIDSet {
			if frame.ArbID != m.ArbID {
				m.RxState = Error
				log.Warnf("[ISOTP] arb id mismatch: got %#x, want %#x", frame.ArbID, m.ArbID)
				return false
			}
		} else {
			m.ArbID = frame.ArbID
			m.arbIDSet = true
		}

		switch frameType {
		case frameTypeSF:
			contentLength := int(frame.Payload[0] & lenOrCtrMask)
			if contentLength+1 > len(frame.Payload) {
				m.RxState = Error
				log.Warnf("[ISOTP] single frame declares %d bytes but only %d present", contentLength, len(frame.Payload)-1)
				return false
			}
			m.Payload = append([]byte(nil), frame.Payload[1:contentLength+1]...)
			m.NumReceived = len(m.Payload)
			m.RxState = Complete
			return true
		case frameTypeFF:
			if len(frame.Payload) < 2 {
				m.RxState = Error
				return false
			}
			m.RxLen = (int(frame.Payload[0]&lenOrCtrMask) << 8) | int(frame.Payload[1])
			m.Payload = append([]byte(nil), frame.Payload[2:]...)
			m.NumReceived = len(m.Payload)
			m.RxNextCtr = 1
			m.RxState = SendFC
			return false
		default:
			m.RxState = Error
			log.Warnf("[ISOTP] unexpected frame type %#x in state %s", frameType, m.RxState)
			return false
		}

	case ExpectCF:
		if frame.ArbID != m.ArbID {
			m.RxState = Error
			log.Warnf("[ISOTP] arb id mismatch: got %#x, want %#x", frame.ArbID, m.ArbID)
			return false
		}
		ctr := int(frame.Payload[0] & lenOrCtrMask)
		if frameType != frameTypeCF || ctr != m.RxNextCtr {
			m.RxState = Error
			log.Warnf("[ISOTP] bad consecutive frame: type=%#x ctr=%d want_ctr=%d", frameType, ctr, m.RxNextCtr)
			return false
		}
		remaining := m.RxLen - m.NumReceived
		toRead := remaining
		if toRead > MaxSingleFrameLen {
			toRead = MaxSingleFrameLen
		}
		cfPayload := frame.Payload[1:]
		if toRead > len(cfPayload) {
			toRead = len(cfPayload)
		}
		m.Payload = append(m.Payload, cfPayload[:toRead]...)
		m.NumReceived += toRead
		m.RxNextCtr = (m.RxNextCtr + 1) % 16
		if m.NumReceived >= m.RxLen {
			m.RxState = Complete
			return true
		}
		return false

	case Complete:
		return true

	default: // Error
		return false
	}
}

// Format fragments Payload into one or more Frames. maxFrameLen bounds the
// payload bytes per frame (7 for standard addressing). A payload longer
// than MaxMessageLen fails with ErrPayloadTooLarge.
func (m *Message) Format(maxFrameLen int) ([]canbadger.Frame, error) {
	if maxFrameLen <= 0 {
		maxFrameLen = MaxSingleFrameLen
	}

	if len(m.Payload) <= maxFrameLen {
		sf := append([]byte{byte(len(m.Payload) & lenOrCtrMask)}, m.Payload...)
		return []canbadger.Frame{{ArbID: m.ArbID, Payload: m.pad(sf)}}, nil
	}

	byteCount := len(m.Payload)
	if byteCount > MaxMessageLen {
		return nil, canbadger.ErrPayloadTooLarge
	}

	var frames []canbadger.Frame

	ffHeader := []byte{
		frameTypeFF | byte((byteCount>>8)&lenOrCtrMask),
		byte(byteCount & 0xFF),
	}
	firstChunk := 6
	if firstChunk > len(m.Payload) {
		firstChunk = len(m.Payload)
	}
	frames = append(frames, canbadger.Frame{
		ArbID:   m.ArbID,
		Payload: append(ffHeader, m.Payload[:firstChunk]...),
	})

	remaining := m.Payload[firstChunk:]
	ctr := 1
	for len(remaining) > 0 {
		chunkLen := maxFrameLen
		if chunkLen > len(remaining) {
			chunkLen = len(remaining)
		}
		cf := append([]byte{frameTypeCF | byte(ctr%16)}, remaining[:chunkLen]...)
		frames = append(frames, canbadger.Frame{ArbID: m.ArbID, Payload: m.pad(cf)})
		remaining = remaining[chunkLen:]
		ctr++
	}

	return frames, nil
}

func (m *Message) pad(msg []byte) []byte {
	if len(msg) < 8 && m.PaddingByte != nil {
		padded := make([]byte, 8)
		copy(padded, msg)
		for i := len(msg); i < 8; i++ {
			padded[i] = *m.PaddingByte
		}
		return padded
	}
	return msg
}

// Length returns the number of payload bytes assembled so far.
func (m *Message) Length() int {
	return len(m.Payload)
}
