package portselect

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"
)

func listenPort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	return portOf(t, ln.Addr())
}

func closedPort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	p := portOf(t, ln.Addr())
	ln.Close()
	return p
}

func portOf(t *testing.T, a net.Addr) uint16 {
	_, ps, _ := net.SplitHostPort(a.String())
	n, err := strconv.Atoi(ps)
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return uint16(n)
}

func TestSelectFirstReachable(t *testing.T) {
	closed := closedPort(t)
	open := listenPort(t)
	other := listenPort(t)

	var attempts []Attempt
	got, err := Select(context.Background(), "127.0.0.1", []uint16{closed, open, other}, time.Second, func(a Attempt) {
		attempts = append(attempts, a)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != open {
		t.Fatalf("selected %d, want %d", got, open)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].Port != closed || attempts[0].Err == nil {
		t.Fatalf("first attempt should fail on %d: %+v", closed, attempts[0])
	}
	if attempts[1].Port != open || attempts[1].Err != nil {
		t.Fatalf("second attempt should succeed on %d: %+v", open, attempts[1])
	}
}

func TestSelectUnreachable(t *testing.T) {
	ports := []uint16{closedPort(t), closedPort(t)}
	calls := 0
	_, err := Select(context.Background(), "127.0.0.1", ports, time.Second, func(Attempt) { calls++ })
	if !errors.Is(err, ErrHostUnreachable) {
		t.Fatalf("expected ErrHostUnreachable, got %v", err)
	}
	if calls != len(ports) {
		t.Fatalf("each port should be tried exactly once, got %d attempts", calls)
	}
}

func TestSelectNoPorts(t *testing.T) {
	if _, err := Select(context.Background(), "127.0.0.1", nil, time.Second, nil); !errors.Is(err, ErrHostUnreachable) {
		t.Fatalf("expected ErrHostUnreachable, got %v", err)
	}
}
