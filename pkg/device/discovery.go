package device

import (
	"net"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// DiscoveryPort is the UDP port devices broadcast their presence on.
const DiscoveryPort = 13370

// ControlPort is the UDP port a device listens on for the rendezvous
// CONNECT datagram.
const ControlPort = 13371

// DiscoveredDevice is one device seen on the network during discovery.
type DiscoveredDevice struct {
	ID string
	IP string
}

// DiscoverDevices listens on 0.0.0.0:13370 for waitTime and returns every
// distinct (id, ip) pair seen. The loop polls with a one-second read
// deadline so it notices the overall deadline without blocking on a single
// long read.
func DiscoverDevices(waitTime time.Duration) ([]DiscoveredDevice, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: DiscoveryPort})
	if err != nil {
		log.Errorf("[DISCOVERY] failed to bind udp %d: %v", DiscoveryPort, err)
		return nil, err
	}
	defer conn.Close()

	deadline := time.Now().Add(waitTime)
	seen := make(map[string]struct{})
	var found []DiscoveredDevice
	buf := make([]byte, 1500)

	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			log.Warnf("[DISCOVERY] read error: %v", err)
			continue
		}
		fields := strings.Split(string(buf[:n]), "|")
		if len(fields) < 2 {
			continue
		}
		id := fields[1]
		ip := addr.IP.String()
		key := id + "|" + ip
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		found = append(found, DiscoveredDevice{ID: id, IP: ip})
		log.Debugf("[DISCOVERY] found device id=%s ip=%s", id, ip)
	}
	return found, nil
}
