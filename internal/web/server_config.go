package web

import (
	"fmt"
	"net"
	"strings"
)

// The intended defaults differ per binary:
// - real device: :80
// - simulator:   :8080
const (
	DefaultListenAddr   = ":80"
	SimulatorListenAddr = ":8080"
)

// ServerConfig contains settings for running the HTTP server.
type ServerConfig struct {
	ListenAddr string
	DevMode    bool
}

// NewServerConfig validates the listen address, falling back to
// defaultListenAddr when it is empty.
func NewServerConfig(listenAddr string, devMode bool, defaultListenAddr string) (ServerConfig, error) {
	listenAddr = strings.TrimSpace(listenAddr)
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}
	if _, _, err := net.SplitHostPort(listenAddr); err != nil {
		return ServerConfig{}, fmt.Errorf("listen address %q: %w", listenAddr, err)
	}
	return ServerConfig{ListenAddr: listenAddr, DevMode: devMode}, nil
}
