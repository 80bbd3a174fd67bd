// Package portselect picks the first candidate port a host accepts
// connections on.
package portselect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// ErrHostUnreachable is returned when no candidate port accepts a connection.
var ErrHostUnreachable = errors.New("host unreachable")

// Attempt describes one connection attempt. Err is nil on success.
type Attempt struct {
	Port uint16
	Err  error
}

// Select tries each port in order with a single connect bounded by timeout
// and returns the first that accepts. onAttempt, if non-nil, sees every
// attempt.
func Select(ctx context.Context, host string, ports []uint16, timeout time.Duration, onAttempt func(Attempt)) (uint16, error) {
	if len(ports) == 0 {
		return 0, fmt.Errorf("%w: %s: no candidate ports", ErrHostUnreachable, host)
	}
	d := &net.Dialer{Timeout: timeout}
	for _, port := range ports {
		conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
		if onAttempt != nil {
			onAttempt(Attempt{Port: port, Err: err})
		}
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			continue
		}
		_ = conn.Close()
		return port, nil
	}
	return 0, fmt.Errorf("%w: %s on ports %v", ErrHostUnreachable, host, ports)
}
