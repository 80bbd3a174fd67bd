package util

import (
	"net"
	"strings"
)

// internalNets are ranges that public registries know nothing useful about.
var internalNets = mustParseCIDRs(
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"198.18.0.0/15",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

var internalSuffixes = []string{".internal", ".local", ".localhost", ".lan"}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		out = append(out, n)
	}
	return out
}

// IsInternalHost reports whether host is a loopback, private or link-local
// literal, or carries a well-known internal suffix. Names are not resolved.
func IsInternalHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "localhost" {
		return true
	}
	for _, s := range internalSuffixes {
		if strings.HasSuffix(host, s) {
			return true
		}
	}
	if ip := net.ParseIP(host); ip != nil {
		return IsInternalIP(ip)
	}
	return false
}

// IsInternalIP reports whether ip lies in a private, loopback or link-local range.
func IsInternalIP(ip net.IP) bool {
	for _, n := range internalNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
