package server

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// proxyMatcher reports whether a peer is a trusted proxy.
type proxyMatcher struct {
	ips  map[string]struct{}
	nets []*net.IPNet
}

// newProxyMatcher parses IP and CIDR entries. Invalid entries are logged
// and skipped. It returns nil when nothing is trusted.
func newProxyMatcher(entries []string, logger *slog.Logger) *proxyMatcher {
	m := &proxyMatcher{ips: make(map[string]struct{})}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		switch {
		case entry == "":
		case strings.Contains(entry, "/"):
			_, network, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn("invalid trusted proxy CIDR", "entry", entry, "error", err)
				continue
			}
			m.nets = append(m.nets, network)
		default:
			ip := net.ParseIP(entry)
			if ip == nil {
				logger.Warn("invalid trusted proxy IP", "entry", entry)
				continue
			}
			m.ips[ip.String()] = struct{}{}
		}
	}
	if len(m.ips) == 0 && len(m.nets) == 0 {
		return nil
	}
	return m
}

func (m *proxyMatcher) trusted(ip net.IP) bool {
	if m == nil || ip == nil {
		return false
	}
	if _, ok := m.ips[ip.String()]; ok {
		return true
	}
	for _, network := range m.nets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP returns the address of the browser behind r. Forwarding headers
// are honored only when the peer is trusted; the right-most untrusted hop
// wins.
func clientIP(r *http.Request, proxies *proxyMatcher) string {
	peer := parseIP(r.RemoteAddr)
	if peer == nil {
		return ""
	}
	if !proxies.trusted(peer) {
		return peer.String()
	}

	hops := forwardedFor(r.Header.Get("Forwarded"))
	if len(hops) == 0 {
		hops = xForwardedFor(r.Header.Get("X-Forwarded-For"))
	}
	if len(hops) == 0 {
		return peer.String()
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if !proxies.trusted(hops[i]) {
			return hops[i].String()
		}
	}
	return hops[0].String()
}

func forwardedFor(header string) []net.IP {
	var out []net.IP
	for _, element := range strings.Split(header, ",") {
		for _, pair := range strings.Split(element, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(k), "for") {
				continue
			}
			if ip := parseIP(v); ip != nil {
				out = append(out, ip)
			}
		}
	}
	return out
}

func xForwardedFor(header string) []net.IP {
	var out []net.IP
	for _, part := range strings.Split(header, ",") {
		if ip := parseIP(part); ip != nil {
			out = append(out, ip)
		}
	}
	return out
}

// parseIP accepts "ip", "ip:port", "[v6]:port" and quoted forms.
func parseIP(value string) net.IP {
	host := strings.Trim(strings.TrimSpace(value), "\"")
	if host == "" || strings.EqualFold(host, "unknown") {
		return nil
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if zone := strings.Index(host, "%"); zone != -1 {
		host = host[:zone]
	}
	return net.ParseIP(host)
}
