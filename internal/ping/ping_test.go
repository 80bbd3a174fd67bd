package ping

import (
	"errors"
	"testing"
	"time"
)

func TestRatingBoundaries(t *testing.T) {
	tests := []struct {
		avg  float64
		want int
	}{
		{0.5, 5},
		{2.0, 5},
		{2.01, 4},
		{3.0, 4},
		{3.01, 3},
		{5.0, 3},
		{5.01, 2},
		{8.0, 2},
		{8.01, 1},
		{120, 1},
	}
	for _, tt := range tests {
		if got := Rating(tt.avg); got != tt.want {
			t.Fatalf("Rating(%v) = %d, want %d", tt.avg, got, tt.want)
		}
	}
}

const linuxOutput = `PING example.com (93.184.216.34) 56(84) bytes of data.
64 bytes from 93.184.216.34: icmp_seq=1 ttl=56 time=1.41 ms
64 bytes from 93.184.216.34: icmp_seq=2 ttl=56 time=1.52 ms

--- example.com ping statistics ---
5 packets transmitted, 5 received, 0% packet loss, time 4006ms
rtt min/avg/max/mdev = 1.410/1.502/1.623/0.071 ms
`

const bsdOutput = `PING example.com (93.184.216.34): 56 data bytes
64 bytes from 93.184.216.34: icmp_seq=0 ttl=56 time=9.120 ms

--- example.com ping statistics ---
5 packets transmitted, 4 packets received, 20.0% packet loss
round-trip min/avg/max/stddev = 8.911/9.204/9.532/0.221 ms
`

func TestParseOutput(t *testing.T) {
	res, err := ParseOutput(linuxOutput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AvgMs != 1.502 || res.MinMs != 1.41 || res.MaxMs != 1.623 || res.Sent != 5 || res.Received != 5 {
		t.Fatalf("unexpected linux result %+v", res)
	}

	res, err = ParseOutput(bsdOutput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AvgMs != 9.204 || res.Received != 4 {
		t.Fatalf("unexpected bsd result %+v", res)
	}
}

func TestParseOutputUnparsable(t *testing.T) {
	for _, out := range []string{"", "ping: unknown host nope.invalid\n", "rtt min/avg/max/mdev = a/b/c/d ms\n"} {
		if _, err := ParseOutput(out); !errors.Is(err, ErrUnparsable) {
			t.Fatalf("expected ErrUnparsable for %q, got %v", out, err)
		}
	}
}

func TestSummarize(t *testing.T) {
	res, err := summarize(3, []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AvgMs != 2 || res.MinMs != 1 || res.MaxMs != 3 || res.Received != 3 {
		t.Fatalf("unexpected summary %+v", res)
	}
	if _, err := summarize(5, nil); !errors.Is(err, ErrNoReply) {
		t.Fatalf("expected ErrNoReply, got %v", err)
	}
}
