package cdn

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/selimozcann/RealityScout/internal/model"
)

// HTTPHeaders fetches headers with a HEAD request, falling back to GET when
// the server rejects HEAD.
type HTTPHeaders struct {
	Client *http.Client
}

// Headers implements HeaderFetcher.
func (s *HTTPHeaders) Headers(ctx context.Context, target model.Target) (http.Header, error) {
	u := "https://" + target.Addr() + "/"
	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.Client.Do(req)
		if err != nil {
			return nil, err
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusMethodNotAllowed && method == http.MethodHead {
			continue
		}
		return resp.Header, nil
	}
	return nil, fmt.Errorf("no response from %s", u)
}

// TLSCertificates performs a plain handshake and renders the peer chain.
type TLSCertificates struct {
	Timeout time.Duration
}

// Transcript implements CertFetcher.
func (s *TLSCertificates) Transcript(ctx context.Context, target model.Target) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	d := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config:    &tls.Config{ServerName: target.Host, InsecureSkipVerify: true}, // #nosec G402
	}
	conn, err := d.DialContext(ctx, "tcp", target.Addr())
	if err != nil {
		return "", err
	}
	defer conn.Close()
	state := conn.(*tls.Conn).ConnectionState()
	return DescribeChain(state.PeerCertificates), nil
}

// DescribeChain renders subject, issuer and names of each certificate.
func DescribeChain(chain []*x509.Certificate) string {
	var b strings.Builder
	for i, c := range chain {
		fmt.Fprintf(&b, "%d s:%s\n", i, c.Subject.String())
		fmt.Fprintf(&b, "  i:%s\n", c.Issuer.String())
		if len(c.DNSNames) > 0 {
			fmt.Fprintf(&b, "  san:%s\n", strings.Join(c.DNSNames, ","))
		}
		if len(c.Subject.Organization) > 0 {
			fmt.Fprintf(&b, "  o:%s\n", strings.Join(c.Subject.Organization, ","))
		}
	}
	return b.String()
}
