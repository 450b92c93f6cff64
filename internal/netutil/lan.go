package netutil

import (
	"fmt"
	"net"
)

// LANAddress finds the host's LAN-facing IPv4 address. A connected UDP socket
// is tried first since it picks the interface the default route uses; when
// that fails (no route, airplane mode) the interfaces are scanned directly.
// Best effort either way: callers treat a failure as advisory.
func LANAddress() (string, error) {
	if addr, err := addressViaRoute(); err == nil {
		return addr, nil
	}
	return addressViaInterfaces()
}

func addressViaRoute() (string, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return "", fmt.Errorf("could not open probe socket: %w", err)
	}
	defer func() { _ = conn.Close() }()
	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || local.IP.IsLoopback() {
		return "", fmt.Errorf("probe socket has no usable local address")
	}
	return local.IP.String(), nil
}

func addressViaInterfaces() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("could not list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip != nil && !ip.IsLoopback() && ip.IsPrivate() {
				return ip.String(), nil
			}
		}
	}
	return "", fmt.Errorf("no LAN address found")
}
