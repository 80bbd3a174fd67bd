// Package htmlscan finds client-side redirects in HTML pages.
package htmlscan

import (
	"io"
	"mime"
	"net/url"
	"regexp"
)

// Mechanism names how a page redirects the browser.
type Mechanism string

const (
	MetaRefresh Mechanism = "meta-refresh"
	Script      Mechanism = "script"
)

var (
	metaRefreshRe = regexp.MustCompile(`(?i)<meta[^>]*http-equiv\s*=\s*["']?refresh["']?[^>]*content\s*=\s*["']\s*\d*\s*;\s*url\s*=\s*([^"'>\s]+)`)
	scriptRe      = regexp.MustCompile(`(?i)(?:window\.|document\.|top\.|self\.)?location(?:\.href)?\s*=\s*['"]([^'"#]+)['"]`)
)

// Redirect is a client-side redirect found in a page.
type Redirect struct {
	Target *url.URL
	Via    Mechanism
}

// IsHTML reports whether a Content-Type header names an HTML document.
func IsHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mt == "text/html" || mt == "application/xhtml+xml")
}

// Find returns the first redirect in body, resolved against base.
func Find(body []byte, base *url.URL) (Redirect, bool) {
	for _, c := range []struct {
		re  *regexp.Regexp
		via Mechanism
	}{{metaRefreshRe, MetaRefresh}, {scriptRe, Script}} {
		m := c.re.FindSubmatch(body)
		if m == nil {
			continue
		}
		u, err := url.Parse(string(m[1]))
		if err != nil {
			continue
		}
		return Redirect{Target: base.ResolveReference(u), Via: c.via}, true
	}
	return Redirect{}, false
}

// Scan reads at most limit bytes of r and looks for a redirect.
func Scan(r io.Reader, limit int64, base *url.URL) (Redirect, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return Redirect{}, false, err
	}
	rd, ok := Find(body, base)
	return rd, ok, nil
}
