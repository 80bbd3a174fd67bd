package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/selimozcann/RealityScout/internal/model"
)

// HTTP2 checks whether the target serves HTTP/2 over TLS.
type HTTP2 struct {
	Timeout time.Duration
	// H2 only speaks HTTP/2; H1 only speaks HTTP/1.1.
	H2 *http.Client
	H1 *http.Client
}

// Kind implements Prober.
func (p *HTTP2) Kind() model.ProbeKind { return model.KindHTTP2 }

func statusLine(resp *http.Response) string {
	return fmt.Sprintf("%s %d", resp.Proto, resp.StatusCode)
}

// fetchHead sends HEAD and retries once as GET if the server answers 405.
func fetchHead(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	var resp *http.Response
	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err = client.Do(req)
		if err != nil {
			return nil, err
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			break
		}
	}
	return resp, nil
}

func (p *HTTP2) request(ctx context.Context, client *http.Client, target model.Target) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fetchHead(ctx, client, "https://"+target.Addr()+"/")
}

// Probe implements Prober.
func (p *HTTP2) Probe(ctx context.Context, target model.Target, progress Progress) model.Outcome {
	if progress == nil {
		progress = noProgress
	}
	progress("Checking HTTP/2 support...")

	var errs []string
	if p.H2 != nil {
		resp, err := p.request(ctx, p.H2, target)
		switch {
		case err != nil:
			errs = append(errs, err.Error())
		case resp.ProtoMajor == 2:
			line := statusLine(resp)
			o := positive(model.KindHTTP2, model.FindingSupported, "HTTP/2 supported ("+line+")")
			o.Detail = map[string]string{"protocol": line, "method": "request"}
			return o
		}
	}

	progress("Checking HTTP/2 via ALPN...")
	proto, aerr := negotiateALPN(ctx, target, []string{http2.NextProtoTLS, "http/1.1"}, p.Timeout)
	if aerr == nil && proto == http2.NextProtoTLS {
		o := positive(model.KindHTTP2, model.FindingSupported, "HTTP/2 supported (ALPN h2)")
		o.Detail = map[string]string{"alpn": proto, "method": "alpn"}
		return o
	}
	if aerr != nil {
		errs = append(errs, aerr.Error())
	}

	if p.H1 != nil {
		resp, err := p.request(ctx, p.H1, target)
		if err == nil {
			o := negative(model.KindHTTP2, model.FindingUnsupported,
				fmt.Sprintf("HTTP/2 not supported (using HTTP/%d.%d)", resp.ProtoMajor, resp.ProtoMinor))
			o.Detail = map[string]string{"protocol": statusLine(resp), "alpn": proto}
			return o
		}
		errs = append(errs, err.Error())
	}
	if aerr == nil {
		o := negative(model.KindHTTP2, model.FindingUnsupported, "HTTP/2 not supported")
		o.Detail = map[string]string{"alpn": proto}
		return o
	}
	return model.ErrorOutcome(model.KindHTTP2, "Error during HTTP/2 check: "+strings.Join(errs, "; "))
}

// HTTP3 checks whether the target selects h3 during ALPN. There is no
// secondary confirmation path.
type HTTP3 struct {
	Timeout time.Duration
}

// Kind implements Prober.
func (p *HTTP3) Kind() model.ProbeKind { return model.KindHTTP3 }

// Probe implements Prober.
func (p *HTTP3) Probe(ctx context.Context, target model.Target, progress Progress) model.Outcome {
	if progress == nil {
		progress = noProgress
	}
	progress("Checking HTTP/3 support...")
	proto, err := negotiateALPN(ctx, target, []string{"h3"}, p.Timeout)
	if err == nil && proto == "h3" {
		o := positive(model.KindHTTP3, model.FindingSupported, "HTTP/3 supported")
		o.Detail = map[string]string{"alpn": proto}
		return o
	}
	var de *DialError
	if errors.As(err, &de) {
		return model.ErrorOutcome(model.KindHTTP3, "Error checking HTTP/3: "+err.Error())
	}
	return negative(model.KindHTTP3, model.FindingUnsupported, "HTTP/3 not supported or unable to determine")
}
