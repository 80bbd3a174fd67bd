package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/selimozcann/RealityScout/internal/htmlscan"
	"github.com/selimozcann/RealityScout/internal/model"
	"github.com/selimozcann/RealityScout/internal/util"
)

const bodyScanLimit = 256 << 10

// RedirectRule decides whether a response is a server-side redirect.
type RedirectRule func(resp *http.Response) (*url.URL, bool)

// StatusRedirect treats any 3xx status as a redirect.
func StatusRedirect(resp *http.Response) (*url.URL, bool) {
	if resp.StatusCode < 300 || resp.StatusCode > 399 {
		return nil, false
	}
	loc, err := resp.Location()
	if err != nil {
		return nil, true
	}
	return loc, true
}

// LocationRedirect treats a resolvable Location header as a redirect,
// whatever the status.
func LocationRedirect(resp *http.Response) (*url.URL, bool) {
	loc, err := resp.Location()
	if err != nil || loc.String() == "" {
		return nil, false
	}
	return loc, true
}

// Redirect checks whether the target's root page redirects elsewhere.
type Redirect struct {
	Client  *http.Client
	Timeout time.Duration
	Rule    RedirectRule
	// NoRedirect is the evidence text used when no redirect is found.
	NoRedirect string
	// Strict also counts meta refresh and script redirects in HTML pages.
	Strict bool
}

// Kind implements Prober.
func (p *Redirect) Kind() model.ProbeKind { return model.KindRedirect }

// Probe implements Prober.
func (p *Redirect) Probe(ctx context.Context, target model.Target, progress Progress) model.Outcome {
	if progress == nil {
		progress = noProgress
	}
	progress("Checking for redirects...")

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	base := &url.URL{Scheme: "https", Host: target.Addr(), Path: "/"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return model.ErrorOutcome(model.KindRedirect, "Error during redirect check: "+err.Error())
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return model.ErrorOutcome(model.KindRedirect, "Error during redirect check: "+err.Error())
	}
	defer resp.Body.Close()

	status := fmt.Sprintf("%d", resp.StatusCode)
	if loc, ok := p.Rule(resp); ok {
		return redirectFound(target, loc, map[string]string{"status": status, "via": "http"})
	}
	if p.Strict && resp.StatusCode/100 == 2 && htmlscan.IsHTML(resp.Header.Get("Content-Type")) {
		rd, ok, err := htmlscan.Scan(resp.Body, bodyScanLimit, base)
		if err == nil && ok {
			return redirectFound(target, rd.Target, map[string]string{"status": status, "via": string(rd.Via)})
		}
	}
	o := positive(model.KindRedirect, model.FindingUnsupported, p.NoRedirect)
	o.Detail = map[string]string{"status": status}
	return o
}

func redirectFound(target model.Target, loc *url.URL, detail map[string]string) model.Outcome {
	where := "(unknown)"
	var notes []string
	if loc != nil {
		where = loc.String()
		detail["location"] = where
		if !util.SameSite(target.Host, loc) {
			notes = append(notes, "cross-site")
		}
		if loc.Scheme == "http" {
			notes = append(notes, "downgrades to http")
		}
	}
	evidence := "Redirect found: " + where
	if len(notes) > 0 {
		evidence += " (" + strings.Join(notes, ", ") + ")"
	}
	o := negative(model.KindRedirect, model.FindingSupported, evidence)
	o.Detail = detail
	return o
}
