package resolve

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func startServer(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestLookupA(t *testing.T) {
	addr := startServer(t, func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		switch req.Question[0].Name {
		case "example.test.":
			m.Answer = append(m.Answer,
				&dns.CNAME{Hdr: dns.RR_Header{Name: "example.test.", Rrtype: dns.TypeCNAME, Class: dns.ClassINET, Ttl: 60}, Target: "edge.example.test."},
				&dns.A{Hdr: dns.RR_Header{Name: "edge.example.test.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60}, A: net.ParseIP("192.0.2.7")},
			)
		case "empty.test.":
		default:
			m.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	})

	r, err := New([]string{addr}, time.Second)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ip, err := r.LookupA(context.Background(), "example.test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ip.Equal(net.ParseIP("192.0.2.7")) {
		t.Fatalf("unexpected ip %s", ip)
	}

	if _, err := r.LookupA(context.Background(), "empty.test"); !errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected ErrNoAddress, got %v", err)
	}
	if _, err := r.LookupA(context.Background(), "missing.test"); err == nil {
		t.Fatalf("expected NXDOMAIN error")
	}
}

func TestLookupALiteral(t *testing.T) {
	r, _ := New([]string{"127.0.0.1"}, time.Second)
	ip, err := r.LookupA(context.Background(), "203.0.113.9")
	if err != nil || ip.String() != "203.0.113.9" {
		t.Fatalf("literal not passed through: %v %v", ip, err)
	}
	if got := r.Servers(); got[0] != "127.0.0.1:53" {
		t.Fatalf("port not defaulted: %v", got)
	}
}

func TestFromSystem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolv.conf")
	if err := os.WriteFile(path, []byte("nameserver 192.0.2.53\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	r, err := FromSystem(path, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Servers(); len(got) != 1 || got[0] != "192.0.2.53:53" {
		t.Fatalf("unexpected servers %v", got)
	}
	if _, err := New(nil, time.Second); err == nil {
		t.Fatalf("expected error for no servers")
	}
}
