package canbadger

import "encoding/binary"

// HeaderSize is the fixed length of a WireMessage header: one byte message
// type, one byte action type, four bytes little-endian payload length.
const HeaderSize = 6

// MsgType identifies the kind of WireMessage being carried.
type MsgType uint8

const (
	MsgAck      MsgType = 0
	MsgNack     MsgType = 1
	MsgAction   MsgType = 2
	MsgData     MsgType = 3
	MsgConnect  MsgType = 4
	MsgDebugMsg MsgType = 5
)

func (t MsgType) String() string {
	switch t {
	case MsgAck:
		return "ACK"
	case MsgNack:
		return "NACK"
	case MsgAction:
		return "ACTION"
	case MsgData:
		return "DATA"
	case MsgConnect:
		return "CONNECT"
	case MsgDebugMsg:
		return "DEBUG_MSG"
	default:
		return "UNKNOWN"
	}
}

// ActionType qualifies an ACTION WireMessage. Unknown codes are preserved
// verbatim by Encode/Decode - the device's action set is larger than the
// subset this module assigns names to.
type ActionType uint8

const (
	ActionNoType             ActionType = 0
	ActionSettings           ActionType = 1
	ActionLogRawCANTraffic   ActionType = 2
	ActionStopCurrentAction  ActionType = 3
	ActionStartReplay        ActionType = 4
	ActionRelay              ActionType = 5
	ActionReset              ActionType = 6
)

func (t ActionType) String() string {
	switch t {
	case ActionNoType:
		return "NO_TYPE"
	case ActionSettings:
		return "SETTINGS"
	case ActionLogRawCANTraffic:
		return "LOG_RAW_CAN_TRAFFIC"
	case ActionStopCurrentAction:
		return "STOP_CURRENT_ACTION"
	case ActionStartReplay:
		return "START_REPLAY"
	case ActionRelay:
		return "RELAY"
	case ActionReset:
		return "RESET"
	default:
		return "UNKNOWN"
	}
}

// WireMessage is the framed unit exchanged with the device over UDP (setup)
// and TCP (steady state). Header is exactly HeaderSize bytes, back to back
// with the payload - there is no delimiter between successive messages.
type WireMessage struct {
	MsgType    MsgType
	ActionType ActionType
	Data       []byte
}

// NewWireMessage builds a message, deriving DataLength from len(data) at
// encode time so callers never have to keep the two in sync by hand.
func NewWireMessage(msgType MsgType, actionType ActionType, data []byte) WireMessage {
	return WireMessage{MsgType: msgType, ActionType: actionType, Data: data}
}

// Encode serializes the header and payload back to back.
func (m WireMessage) Encode() []byte {
	buf := make([]byte, HeaderSize+len(m.Data))
	buf[0] = byte(m.MsgType)
	buf[1] = byte(m.ActionType)
	binary.LittleEndian.PutUint32(buf[2:6], uint32(len(m.Data)))
	copy(buf[6:], m.Data)
	return buf
}

// DecodeHeader reads the 6-byte header from buffer without touching the
// payload, returning the declared data length. Callers use the length to
// decide whether enough bytes have accumulated to extract the full message.
func DecodeHeader(buffer []byte) (msgType MsgType, actionType ActionType, dataLength uint32, err error) {
	if len(buffer) < HeaderSize {
		return 0, 0, 0, ErrBadHeader
	}
	msgType = MsgType(buffer[0])
	actionType = ActionType(buffer[1])
	dataLength = binary.LittleEndian.Uint32(buffer[2:6])
	return msgType, actionType, dataLength, nil
}

// Decode extracts one complete WireMessage from the head of buffer and
// returns the number of bytes it consumed. It requires the full declared
// message (header + data) to already be present; it never reads past
// HeaderSize+dataLength without the caller's consent.
func Decode(buffer []byte) (msg WireMessage, consumed int, err error) {
	msgType, actionType, dataLength, err := DecodeHeader(buffer)
	if err != nil {
		return WireMessage{}, 0, err
	}
	total := HeaderSize + int(dataLength)
	if len(buffer) < total {
		return WireMessage{}, 0, ErrBadHeader
	}
	data := make([]byte, dataLength)
	copy(data, buffer[HeaderSize:total])
	return WireMessage{MsgType: msgType, ActionType: actionType, Data: data}, total, nil
}
