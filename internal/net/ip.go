package net

import (
	"net"
	"strconv"

	"github.com/rs/zerolog/log"
)

// OutgoingIP finds the address other machines on the LAN should use to
// reach this one.
func OutgoingIP() string {
	// Nothing is actually sent, UDP dial just picks the route.
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return firstIPv4()
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// firstIPv4 is used on networks without a default route.
func firstIPv4() string {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		// skip loopback and down interfaces
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4().String()
			}
		}
	}
	log.Warn().Msg("no suitable local IP found, share link uses loopback")
	return "127.0.0.1"
}

// ShareURL is the link printed by `serve` for others to join with.
func ShareURL(port int) string {
	return "http://" + net.JoinHostPort(OutgoingIP(), strconv.Itoa(port))
}
