package httpclient

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// Protocol restricts which HTTP version a client negotiates.
type Protocol int

const (
	// ProtocolAuto lets ALPN pick between h2 and http/1.1.
	ProtocolAuto Protocol = iota
	// ProtocolHTTP1 only offers http/1.1.
	ProtocolHTTP1
	// ProtocolHTTP2 only speaks h2 over TLS.
	ProtocolHTTP2
)

// Config holds settings for the HTTP client.
type Config struct {
	Timeout   time.Duration
	Headers   http.Header
	UserAgent string
	Insecure  bool
	Protocol  Protocol
}

// headerRoundTripper wraps a base RoundTripper to inject headers. Requests
// are sent exactly once.
type headerRoundTripper struct {
	base      http.RoundTripper
	headers   http.Header
	userAgent string
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if h.base == nil {
		h.base = http.DefaultTransport
	}
	r := req.Clone(req.Context())
	for k, vs := range h.headers {
		r.Header.Del(k)
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if h.userAgent != "" && r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", h.userAgent)
	}
	return h.base.RoundTrip(r)
}

// New returns a configured HTTP client with manual redirect handling.
func New(cfg Config) *http.Client {
	return &http.Client{
		Transport: &headerRoundTripper{
			base:      newTransport(cfg),
			headers:   cfg.Headers,
			userAgent: cfg.UserAgent,
		},
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// prevent automatic redirects
			return http.ErrUseLastResponse
		},
	}
}

func newTransport(cfg Config) http.RoundTripper {
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	tlsCfg := &tls.Config{InsecureSkipVerify: cfg.Insecure} // #nosec G402

	switch cfg.Protocol {
	case ProtocolHTTP2:
		tlsCfg.NextProtos = []string{http2.NextProtoTLS}
		return &http2.Transport{
			TLSClientConfig: tlsCfg,
			DialTLSContext: func(ctx context.Context, network, addr string, c *tls.Config) (net.Conn, error) {
				td := &tls.Dialer{NetDialer: dialer, Config: c}
				return td.DialContext(ctx, network, addr)
			},
			ReadIdleTimeout: cfg.Timeout,
		}
	case ProtocolHTTP1:
		tlsCfg.NextProtos = []string{"http/1.1"}
		return &http.Transport{
			TLSClientConfig:     tlsCfg,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: cfg.Timeout,
			// a non-nil empty map disables the bundled h2 upgrade
			TLSNextProto:      map[string]func(string, *tls.Conn) http.RoundTripper{},
			DisableKeepAlives: true,
		}
	}
	return &http.Transport{
		TLSClientConfig:     tlsCfg,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: cfg.Timeout,
		ForceAttemptHTTP2:   true,
		DisableKeepAlives:   true,
	}
}

// CloseIdle releases pooled connections held by c.
func CloseIdle(c *http.Client) {
	if h, ok := c.Transport.(*headerRoundTripper); ok {
		if ci, ok := h.base.(interface{ CloseIdleConnections() }); ok {
			ci.CloseIdleConnections()
		}
	}
}
