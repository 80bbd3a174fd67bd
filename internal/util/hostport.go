package util

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ErrEmptyHost is returned when the input carries no host.
var ErrEmptyHost = errors.New("empty host")

// SplitHostPort parses "host" or "host:port". IPv6 literals must be
// bracketed when a port is given. hasPort is false when no port was supplied.
func SplitHostPort(input string) (host string, port uint16, hasPort bool, err error) {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "https://")
	input = strings.TrimSuffix(input, "/")
	if input == "" {
		return "", 0, false, ErrEmptyHost
	}
	if ip := net.ParseIP(strings.Trim(input, "[]")); ip != nil {
		return ip.String(), 0, false, nil
	}
	if !strings.Contains(input, ":") {
		return strings.ToLower(input), 0, false, nil
	}
	h, p, err := net.SplitHostPort(input)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid host:port %q: %w", input, err)
	}
	if h == "" {
		return "", 0, false, ErrEmptyHost
	}
	n, err := strconv.ParseUint(p, 10, 16)
	if err != nil || n == 0 {
		return "", 0, false, fmt.Errorf("invalid port %q", p)
	}
	return strings.ToLower(h), uint16(n), true, nil
}
