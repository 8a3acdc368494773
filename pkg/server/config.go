package server

import (
	"net/http"
	"net/url"
	"time"
)

// Config configures the HTTP server.
type Config struct {
	// Address is the listen address.
	Address string

	// RenderTimeout bounds how long a page load waits for data before
	// rendering whatever is cached.
	RenderTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout bounds reading request headers.
	ReadHeaderTimeout time.Duration

	// ReadBufferSize and WriteBufferSize size the websocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// ReadTimeout closes a live session that sent nothing for this long.
	// The client pings every half of it.
	ReadTimeout time.Duration

	// CheckOrigin validates websocket origins.
	CheckOrigin func(r *http.Request) bool

	// TrustedProxies lists proxy IPs or CIDRs whose forwarding headers are
	// believed when logging client addresses.
	TrustedProxies []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		RenderTimeout:     5 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		ReadTimeout:       60 * time.Second,
		CheckOrigin:       SameOriginCheck,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.RenderTimeout == 0 {
		out.RenderTimeout = d.RenderTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	return &out
}

// SameOriginCheck accepts websocket requests without an Origin header or
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && originURL.Host == r.Host
}
