package server

import (
	"fmt"
	"net"
	"strings"
)

// Config holds the Flight listener settings.
type Config struct {
	// Host is the interface to bind.
	Host string

	// Port is the Flight SQL listener port.
	Port int

	// Catalogs are the synthetic catalog names advertised to clients.
	// Every catalog is a view over the same physical schema.
	Catalogs []string

	// AuthToken, when non-empty, requires clients to present it as a
	// Bearer token on every call.
	AuthToken string
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// ParseCatalogs splits a comma-separated catalog list, dropping empty
// entries.
func ParseCatalogs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
