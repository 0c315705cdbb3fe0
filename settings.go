package canbadger

import (
	"encoding/binary"
	"net"
)

// StatusBit names a single flag in the DeviceSettings status bitfield (§6).
type StatusBit uint

const (
	StatusSDEnabled            StatusBit = 0
	StatusUSBSerialEnabled     StatusBit = 1
	StatusEthernetEnabled      StatusBit = 2
	StatusOLEDEnabled          StatusBit = 3
	StatusKeyboardEnabled      StatusBit = 4
	StatusLEDsEnabled          StatusBit = 5
	StatusKline1IntEnabled     StatusBit = 6
	StatusKline2IntEnabled     StatusBit = 7
	StatusCAN1IntEnabled       StatusBit = 8
	StatusCAN2IntEnabled       StatusBit = 9
	StatusKlineBridgeEnabled   StatusBit = 10
	StatusCANBridgeEnabled     StatusBit = 11
	StatusCAN1Logging          StatusBit = 12
	StatusCAN2Logging          StatusBit = 13
	StatusKline1Logging        StatusBit = 14
	StatusKline2Logging        StatusBit = 15
	StatusCAN1Standard         StatusBit = 16
	StatusCAN1Extended         StatusBit = 17
	StatusCAN2Standard         StatusBit = 18
	StatusCAN2Extended         StatusBit = 19
	StatusCAN1ToCAN2Bridge     StatusBit = 20
	StatusCAN2ToCAN1Bridge     StatusBit = 21
	StatusKline1ToKline2Bridge StatusBit = 22
	StatusKline2ToKline1Bridge StatusBit = 23
	StatusUDSCAN1Enabled       StatusBit = 24
	StatusUDSCAN2Enabled       StatusBit = 25
	StatusCAN1UseFullframe     StatusBit = 26
	StatusCAN2UseFullframe     StatusBit = 27
	StatusCAN1Monitor          StatusBit = 28
	StatusCAN2Monitor          StatusBit = 29
)

const (
	maxIDLen = 18
	maxIPLen = 15
)

// DeviceSettings mirrors the device's configuration payload (§4.1): its own
// id/ip, a status bitfield, and bus speeds for its two CAN and two K-Line
// interfaces.
type DeviceSettings struct {
	ID          string
	IP          string
	Status      uint32
	SPISpeed    uint32
	CAN1Speed   uint32
	CAN2Speed   uint32
	Kline1Speed uint32
	Kline2Speed uint32
}

// NewDeviceSettings returns settings with the bus speeds the device ships
// with (500 kbit CAN, 20 MHz SPI, K-Line disabled).
func NewDeviceSettings() DeviceSettings {
	return DeviceSettings{
		SPISpeed:  20_000_000,
		CAN1Speed: 500_000,
		CAN2Speed: 500_000,
	}
}

// SetStatusBit sets a single named flag in the status bitfield.
func (s *DeviceSettings) SetStatusBit(bit StatusBit) {
	s.Status |= 1 << uint(bit)
}

// HasStatusBit reports whether a named flag is set.
func (s DeviceSettings) HasStatusBit(bit StatusBit) bool {
	return s.Status&(1<<uint(bit)) != 0
}

// Equal compares two settings field by field.
func (s DeviceSettings) Equal(other DeviceSettings) bool {
	return s == other
}

// Serialize encodes the settings payload per the bit-exact layout in §4.1.
// It returns ErrInvalidSettings if either string exceeds its length limit or
// the IP is not a valid dotted-quad IPv4 address.
func (s DeviceSettings) Serialize() ([]byte, error) {
	if len(s.ID) > maxIDLen {
		return nil, ErrInvalidSettings
	}
	if len(s.IP) > maxIPLen {
		return nil, ErrInvalidSettings
	}
	if len(s.IP) > 0 && !isIPv4Dotted(s.IP) {
		return nil, ErrInvalidSettings
	}

	buf := make([]byte, 0, 2+len(s.ID)+len(s.IP)+6*4)
	buf = append(buf, byte(len(s.ID)))
	buf = append(buf, s.ID...)
	buf = append(buf, byte(len(s.IP)))
	buf = append(buf, s.IP...)

	var tail [6 * 4]byte
	fields := [6]uint32{s.Status, s.SPISpeed, s.CAN1Speed, s.CAN2Speed, s.Kline1Speed, s.Kline2Speed}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(tail[i*4:i*4+4], f)
	}
	return append(buf, tail[:]...), nil
}

// DeserializeSettings parses a settings payload produced by Serialize. It
// fails with ErrInvalidSettings if either length byte is out of range or the
// tail is not exactly the expected 24 bytes of uint32 fields.
func DeserializeSettings(data []byte) (DeviceSettings, error) {
	var s DeviceSettings
	if len(data) < 1 {
		return s, ErrInvalidSettings
	}
	idLen := int(data[0])
	if idLen > maxIDLen {
		return s, ErrInvalidSettings
	}
	pos := 1
	if len(data) < pos+idLen {
		return s, ErrInvalidSettings
	}
	s.ID = string(data[pos : pos+idLen])
	pos += idLen

	if len(data) < pos+1 {
		return s, ErrInvalidSettings
	}
	ipLen := int(data[pos])
	if ipLen > maxIPLen {
		return s, ErrInvalidSettings
	}
	pos++
	if len(data) < pos+ipLen {
		return s, ErrInvalidSettings
	}
	s.IP = string(data[pos : pos+ipLen])
	pos += ipLen

	if s.IP != "" && !isIPv4Dotted(s.IP) {
		return DeviceSettings{}, ErrInvalidSettings
	}

	tail := data[pos:]
	if len(tail) != 6*4 {
		return DeviceSettings{}, ErrInvalidSettings
	}
	s.Status = binary.LittleEndian.Uint32(tail[0:4])
	s.SPISpeed = binary.LittleEndian.Uint32(tail[4:8])
	s.CAN1Speed = binary.LittleEndian.Uint32(tail[8:12])
	s.CAN2Speed = binary.LittleEndian.Uint32(tail[12:16])
	s.Kline1Speed = binary.LittleEndian.Uint32(tail[16:20])
	s.Kline2Speed = binary.LittleEndian.Uint32(tail[20:24])
	return s, nil
}

// isIPv4Dotted reports whether ip parses as a dotted-quad IPv4 address (not
// an IPv6 literal, which net.ParseIP would also accept).
func isIPv4Dotted(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.To4() != nil
}
