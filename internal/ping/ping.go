// Package ping measures round-trip latency to a host with ICMP echo.
package ping

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"time"
)

// ErrNoReply is returned when no echo request was answered.
var ErrNoReply = errors.New("no echo replies received")

// Result summarizes one ping run. Times are in milliseconds.
type Result struct {
	Sent     int
	Received int
	MinMs    float64
	AvgMs    float64
	MaxMs    float64
}

// Pinger sends count echo requests to host.
type Pinger interface {
	Ping(ctx context.Context, host string, count int) (Result, error)
}

// Rating maps an average RTT in ms to a 1-5 score.
func Rating(avgMs float64) int {
	switch {
	case avgMs <= 2:
		return 5
	case avgMs <= 3:
		return 4
	case avgMs <= 5:
		return 3
	case avgMs <= 8:
		return 2
	default:
		return 1
	}
}

// GoodRating is the lowest rating that counts in the target's favor.
const GoodRating = 4

func summarize(sent int, rtts []time.Duration) (Result, error) {
	res := Result{Sent: sent, Received: len(rtts)}
	if len(rtts) == 0 {
		return res, ErrNoReply
	}
	res.MinMs = math.Inf(1)
	var total float64
	for _, d := range rtts {
		ms := float64(d) / float64(time.Millisecond)
		total += ms
		res.MinMs = math.Min(res.MinMs, ms)
		res.MaxMs = math.Max(res.MaxMs, ms)
	}
	res.AvgMs = math.Round(total/float64(len(rtts))*1000) / 1000
	return res, nil
}

// Resolver resolves a host to one IPv4 address.
type Resolver interface {
	LookupA(ctx context.Context, host string) (net.IP, error)
}

func resolve(ctx context.Context, r Resolver, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	if r != nil {
		return r.LookupA(ctx, host)
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no IPv4 address for %s", host)
	}
	return ips[0], nil
}
