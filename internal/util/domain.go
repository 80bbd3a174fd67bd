package util

import (
	"net"
	"net/url"
	"strings"
)

// ETLDPlusOne returns the last two labels of host. It is a cheap
// approximation that ignores multi-label public suffixes.
func ETLDPlusOne(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if net.ParseIP(host) != nil {
		return host
	}
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// SameSite reports whether u points at the same registrable domain as host.
func SameSite(host string, u *url.URL) bool {
	if u == nil || u.Hostname() == "" {
		return true
	}
	return ETLDPlusOne(host) == ETLDPlusOne(u.Hostname())
}
