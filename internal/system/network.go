package system

import (
	"context"
	"errors"
	"net"
	"strings"
)

var ErrNoAddress = errors.New("no usable IPv4 address")

// NetInfo reports the address other machines reach this one on.
type NetInfo interface {
	IP(ctx context.Context) (string, error)
}

type NoopNetInfo struct{}

func (NoopNetInfo) IP(ctx context.Context) (string, error) { return "", nil }

// InterfaceNetInfo picks the first non-loopback IPv4 address of an up
// interface. Prefix, when set, restricts the search to interfaces whose name
// starts with it (e.g. "wlan").
type InterfaceNetInfo struct {
	Prefix string
}

func (n InterfaceNetInfo) IP(ctx context.Context) (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if n.Prefix != "" && !strings.HasPrefix(iface.Name, n.Prefix) {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		if ip := firstIPv4(addrs); ip != "" {
			return ip, nil
		}
	}
	return "", ErrNoAddress
}

func firstIPv4(addrs []net.Addr) string {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() {
			return ip4.String()
		}
	}
	return ""
}

// StatusURL builds the status page URL for host and a listen address such as
// ":80" or "0.0.0.0:8080". The port is omitted when it is 80.
func StatusURL(host, listen string) string {
	if host == "" {
		return ""
	}
	_, port, err := net.SplitHostPort(listen)
	if err != nil || port == "" || port == "80" {
		return "http://" + host + "/"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}
