package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service a garden server announces.
const ServiceType = "_secretgarden._tcp"

// ErrNoServer is returned by Discover when no garden answers in time.
var ErrNoServer = errors.New("no garden server found on the local network")

// Advertise announces a garden server listening on port. Shut the returned
// server down to withdraw the announcement.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(
		host,        // instance name, e.g. "alices-laptop"
		ServiceType, // _secretgarden._tcp
		"",          // domain, empty means ".local"
		"",          // hostname, empty uses the OS one
		port,
		nil, // IPs are auto-detected
		[]string{"AIS Secret Garden", "path=/api"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Discover browses the local network for a garden server and returns the
// base URL of the first one that answers within timeout.
func Discover(ctx context.Context, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)

	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			select {
			case found <- baseURL(e.AddrV4, e.Port):
			default:
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errCh := make(chan error, 1)
	go func() {
		err := mdns.Query(params)
		close(entries)
		errCh <- err
	}()

	select {
	case u := <-found:
		return u, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errCh:
		// The query finished; an entry may still be in flight.
		select {
		case u := <-found:
			return u, nil
		case <-time.After(50 * time.Millisecond):
		}
		if err != nil {
			return "", fmt.Errorf("mdns query: %w", err)
		}
		return "", ErrNoServer
	}
}

func baseURL(ip net.IP, port int) string {
	return "http://" + net.JoinHostPort(ip.String(), fmt.Sprint(port))
}
