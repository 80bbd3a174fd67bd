package ping

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when neither ICMP sockets nor a ping binary
// can be used.
var ErrUnavailable = errors.New("no usable ICMP method")

// Detect returns the native pinger when its socket can be opened and falls
// back to the system ping command otherwise.
func Detect(privileged bool, resolver Resolver) (Pinger, error) {
	native := &ICMPPinger{Privileged: privileged, Resolver: resolver}
	nativeErr := native.Check()
	if nativeErr == nil {
		return native, nil
	}
	if cmd, err := LookupCommand(); err == nil {
		return cmd, nil
	}
	return nil, fmt.Errorf("%w: %v; ping not found in PATH", ErrUnavailable, nativeErr)
}
