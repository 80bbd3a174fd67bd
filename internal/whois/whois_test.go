package whois

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

const cymruReply = `AS      | IP               | BGP Prefix          | CC | Registry | Allocated  | AS Name
13335   | 104.16.132.229   | 104.16.128.0/20     | US | arin     | 2014-03-28 | CLOUDFLARENET - Cloudflare, Inc., US
`

func TestParseASNResponse(t *testing.T) {
	rec, err := ParseASNResponse(cymruReply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ASN != "13335" || rec.Country != "US" || rec.Prefix != "104.16.128.0/20" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !strings.Contains(rec.Name, "Cloudflare") {
		t.Fatalf("unexpected name %q", rec.Name)
	}
}

func TestParseASNResponseNoRecord(t *testing.T) {
	for _, body := range []string{"", "AS      | IP | AS Name\n", "NA      | 10.0.0.1         | NA                  |    | other    |            | NA\n"} {
		if _, err := ParseASNResponse(body); !errors.Is(err, ErrNoRecord) {
			t.Fatalf("expected ErrNoRecord for %q, got %v", body, err)
		}
	}
}

func TestLookupASN(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		got <- line
		_, _ = conn.Write([]byte(cymruReply))
	}()

	c := New(ln.Addr().String(), 2*time.Second)
	rec, err := c.LookupASN(context.Background(), net.ParseIP("104.16.132.229"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ASN != "13335" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if q := <-got; q != " -v 104.16.132.229\r\n" {
		t.Fatalf("unexpected query %q", q)
	}
}
