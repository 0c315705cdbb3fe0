// Package config loads a canbadger.ini file describing a device connection
// and the settings to push to it on configure.
package config

import (
	"gopkg.in/ini.v1"

	canbadger "github.com/noelscher/canbadger-go"
)

// statusBitNames maps each status bit to the ini key that enables it, in
// the same order as the wire's status bitfield (SPEC_FULL.md §6).
var statusBitNames = []struct {
	bit  canbadger.StatusBit
	name string
}{
	{canbadger.StatusSDEnabled, "sd_enabled"},
	{canbadger.StatusUSBSerialEnabled, "usb_serial_enabled"},
	{canbadger.StatusEthernetEnabled, "ethernet_enabled"},
	{canbadger.StatusOLEDEnabled, "oled_enabled"},
	{canbadger.StatusKeyboardEnabled, "keyboard_enabled"},
	{canbadger.StatusLEDsEnabled, "leds_enabled"},
	{canbadger.StatusKline1IntEnabled, "kline1_int_enabled"},
	{canbadger.StatusKline2IntEnabled, "kline2_int_enabled"},
	{canbadger.StatusCAN1IntEnabled, "can1_int_enabled"},
	{canbadger.StatusCAN2IntEnabled, "can2_int_enabled"},
	{canbadger.StatusKlineBridgeEnabled, "kline_bridge_enabled"},
	{canbadger.StatusCANBridgeEnabled, "can_bridge_enabled"},
	{canbadger.StatusCAN1Logging, "can1_logging"},
	{canbadger.StatusCAN2Logging, "can2_logging"},
	{canbadger.StatusKline1Logging, "kline1_logging"},
	{canbadger.StatusKline2Logging, "kline2_logging"},
	{canbadger.StatusCAN1Standard, "can1_standard"},
	{canbadger.StatusCAN1Extended, "can1_extended"},
	{canbadger.StatusCAN2Standard, "can2_standard"},
	{canbadger.StatusCAN2Extended, "can2_extended"},
	{canbadger.StatusCAN1ToCAN2Bridge, "can1_to_can2_bridge"},
	{canbadger.StatusCAN2ToCAN1Bridge, "can2_to_can1_bridge"},
	{canbadger.StatusKline1ToKline2Bridge, "kline1_to_kline2_bridge"},
	{canbadger.StatusKline2ToKline1Bridge, "kline2_to_kline1_bridge"},
	{canbadger.StatusUDSCAN1Enabled, "uds_can1_enabled"},
	{canbadger.StatusUDSCAN2Enabled, "uds_can2_enabled"},
	{canbadger.StatusCAN1UseFullframe, "can1_use_fullframe"},
	{canbadger.StatusCAN2UseFullframe, "can2_use_fullframe"},
	{canbadger.StatusCAN1Monitor, "can1_monitor"},
	{canbadger.StatusCAN2Monitor, "can2_monitor"},
}

// Device holds the [device] section: where to dial and how to run the UDS
// session once connected.
type Device struct {
	IP          string
	ControlPort int
	TesterID    uint32
	ECUID       *uint32
	UsePadding  bool
	PaddingByte byte
}

// Config is a fully parsed canbadger.ini.
type Config struct {
	Device   Device
	Settings canbadger.DeviceSettings
}

// Load reads and parses a canbadger.ini file at path.
func Load(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return fromFile(file)
}

func fromFile(file *ini.File) (*Config, error) {
	deviceSection := file.Section("device")
	settingsSection := file.Section("settings")

	cfg := &Config{
		Device: Device{
			IP:          deviceSection.Key("ip").MustString(""),
			ControlPort: deviceSection.Key("control_port").MustInt(13371),
			TesterID:    uint32(deviceSection.Key("tester_id").MustUint(0x7E0)),
			UsePadding:  deviceSection.Key("use_padding").MustBool(false),
			PaddingByte: byte(deviceSection.Key("padding_byte").MustUint(0xAA)),
		},
	}

	if key := deviceSection.Key("ecu_id"); key.String() != "" {
		ecuID := uint32(key.MustUint(0))
		cfg.Device.ECUID = &ecuID
	}

	settings := canbadger.NewDeviceSettings()
	settings.ID = settingsSection.Key("id").MustString("")
	settings.IP = cfg.Device.IP
	settings.SPISpeed = uint32(settingsSection.Key("spi_speed").MustUint(20000000))
	settings.CAN1Speed = uint32(settingsSection.Key("can1_speed").MustUint(500000))
	settings.CAN2Speed = uint32(settingsSection.Key("can2_speed").MustUint(500000))
	settings.Kline1Speed = uint32(settingsSection.Key("kline1_speed").MustUint(0))
	settings.Kline2Speed = uint32(settingsSection.Key("kline2_speed").MustUint(0))

	for _, entry := range statusBitNames {
		if settingsSection.Key(entry.name).MustBool(false) {
			settings.SetStatusBit(entry.bit)
		}
	}
	cfg.Settings = settings

	return cfg, nil
}
