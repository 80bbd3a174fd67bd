package cdn

import (
	"net/http"
	"sort"
	"strings"
)

// Signature maps a lower-case fragment to a provider display name.
type Signature struct {
	Fragment string
	Name     string
}

// Table is an ordered list of signatures. The first fragment found wins.
type Table []Signature

// DefaultTable returns the built-in provider signatures.
func DefaultTable() Table {
	return Table{
		{"cloudflare", "Cloudflare"},
		{"akamai", "Akamai"},
		{"fastly", "Fastly"},
		{"incapsula", "Imperva Incapsula"},
		{"sucuri", "Sucuri"},
		{"stackpath", "StackPath"},
		{"cdn77", "CDN77"},
		{"edgecast", "Verizon Edgecast"},
		{"keycdn", "KeyCDN"},
		{"azure", "Microsoft Azure CDN"},
		{"aliyun", "Alibaba Cloud CDN"},
		{"baidu", "Baidu Cloud CDN"},
		{"tencent", "Tencent Cloud CDN"},
		{"cloudfront", "Amazon CloudFront"},
		{"gcore", "G-Core Labs"},
	}
}

// With returns a copy of t with extra signatures appended.
func (t Table) With(extra ...Signature) Table {
	out := make(Table, 0, len(t)+len(extra))
	out = append(out, t...)
	for _, s := range extra {
		out = append(out, Signature{Fragment: strings.ToLower(s.Fragment), Name: s.Name})
	}
	return out
}

// Match returns the provider whose fragment occurs in text, case-insensitively.
func (t Table) Match(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, s := range t {
		if strings.Contains(lower, s.Fragment) {
			return s.Name, true
		}
	}
	return "", false
}

// headerHints maps header names that only CDNs set to a table fragment.
// Entries ending in "*" match by prefix.
var headerHints = []struct {
	name     string
	fragment string
}{
	{"cf-ray", "cloudflare"},
	{"cf-cache-status", "cloudflare"},
	{"x-akamai-*", "akamai"},
	{"akamai-*", "akamai"},
	{"x-fastly-*", "fastly"},
	{"fastly-*", "fastly"},
	{"x-amz-cf-id", "cloudfront"},
	{"x-amz-cf-pop", "cloudfront"},
	{"x-sucuri-id", "sucuri"},
	{"x-iinfo", "incapsula"},
	{"x-cdn77-*", "cdn77"},
	{"x-azure-ref", "azure"},
}

// SerializeHeaders renders h as a lower-case "name: value" block with
// sorted names so matching is deterministic.
func SerializeHeaders(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		for _, v := range h[k] {
			b.WriteString(strings.ToLower(k))
			b.WriteString(": ")
			b.WriteString(strings.ToLower(v))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// MatchHeaders checks the serialized header block against the table, then
// falls back to CDN-specific header names.
func (t Table) MatchHeaders(h http.Header) (string, bool) {
	if name, ok := t.Match(SerializeHeaders(h)); ok {
		return name, true
	}
	for _, hint := range headerHints {
		prefix, wildcard := strings.CutSuffix(hint.name, "*")
		for k := range h {
			lk := strings.ToLower(k)
			if lk != hint.name && !(wildcard && strings.HasPrefix(lk, prefix)) {
				continue
			}
			if name, ok := t.Match(hint.fragment); ok {
				return name, true
			}
		}
	}
	return "", false
}
