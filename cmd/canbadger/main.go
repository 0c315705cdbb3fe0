// Command canbadger discovers a CANBadger device, connects to it, pushes a
// settings profile from a canbadger.ini file, and runs a short UDS
// diagnostic session over CAN1.
package main

import (
	"flag"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/noelscher/canbadger-go/pkg/config"
	"github.com/noelscher/canbadger-go/pkg/device"
	"github.com/noelscher/canbadger-go/pkg/uds"
)

func main() {
	configPath := flag.String("config", "canbadger.ini", "path to canbadger.ini")
	discoverTimeout := flag.Duration("discover-timeout", 3*time.Second, "how long to listen for device discovery broadcasts")
	connectTimeout := flag.Duration("connect-timeout", 10*time.Second, "how long to wait for the device to connect back")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[MAIN] failed to load %s: %v", *configPath, err)
	}

	ip := cfg.Device.IP
	if ip == "" {
		log.Infof("[MAIN] no device ip configured, discovering for %s", *discoverTimeout)
		found, err := device.DiscoverDevices(*discoverTimeout)
		if err != nil {
			log.Fatalf("[MAIN] discovery failed: %v", err)
		}
		if len(found) == 0 {
			log.Fatal("[MAIN] no devices found")
		}
		ip = found[0].IP
		log.Infof("[MAIN] discovered device %s at %s", found[0].ID, ip)
	}

	handle := device.New(ip, cfg.Device.ControlPort)
	if !handle.Connect(*connectTimeout) {
		log.Fatal("[MAIN] failed to connect to device")
	}
	defer handle.ShutdownConnection()
	log.Info("[MAIN] connected")

	if err := handle.Configure(cfg.Settings); err != nil {
		log.Fatalf("[MAIN] failed to push settings: %v", err)
	}
	log.Info("[MAIN] settings pushed")

	session, err := uds.NewSession(handle, cfg.Device.TesterID, cfg.Device.ECUID, cfg.Device.UsePadding, cfg.Device.PaddingByte)
	if err != nil {
		log.Fatalf("[MAIN] failed to start uds session: %v", err)
	}
	defer session.Close()

	if err := session.Start(uds.DefaultSession, time.Second); err != nil {
		log.Fatalf("[MAIN] failed to establish diagnostic session: %v", err)
	}
	log.Info("[MAIN] diagnostic session established")

	vin, err := session.RequestVIN()
	if err != nil {
		log.Warnf("[MAIN] failed to read vin: %v", err)
		return
	}
	log.Infof("[MAIN] vin: %s", vin)
}
