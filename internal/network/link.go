package network

import (
	"context"
	"net"

	"github.com/pkg/errors"

	"github.com/fkcurrie/matrixportal-golang/internal/types"
)

// Link is the network connection the portal fetches over
type Link interface {
	// Connected reports whether the link is up
	Connected() bool
	// Connect brings the link up with the given credentials
	Connect(ctx context.Context, secrets types.Secrets) error
	// IP returns the address of the link
	IP() (net.IP, error)
}

// HostLink is the host's own network stack. It is up when an interface with
// a routable IPv4 address is up; Connect cannot join an access point and
// only re-checks the interfaces.
type HostLink struct {
	// Interfaces lists interfaces, net.Interfaces when nil
	Interfaces func() ([]net.Interface, error)
}

func (l *HostLink) Connected() bool {
	_, err := l.IP()
	return err == nil
}

func (l *HostLink) Connect(ctx context.Context, _ types.Secrets) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := l.IP()
	return err
}

// IP returns the first IPv4 address of an interface that is up, skipping
// loopback and link-local addresses.
func (l *HostLink) IP() (net.IP, error) {
	list := l.Interfaces
	if list == nil {
		list = net.Interfaces
	}
	interfaces, err := list()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get network interfaces")
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addresses, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addresses {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			if ipNet.IP.IsLoopback() || ipNet.IP.IsLinkLocalUnicast() {
				continue
			}
			return ipNet.IP.To4(), nil
		}
	}
	return nil, errors.New("no network interface with an ipv4 address is up")
}
