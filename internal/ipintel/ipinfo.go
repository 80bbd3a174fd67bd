// Package ipintel looks up the organization owning an IP address.
package ipintel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// ErrNoOrg is returned when a source knows nothing about the address.
var ErrNoOrg = errors.New("no organization for address")

// Source returns the owning organization of ip.
type Source interface {
	Org(ctx context.Context, ip net.IP) (string, error)
}

// IPInfo queries the ipinfo.io JSON API.
type IPInfo struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

type ipinfoResponse struct {
	IP  string `json:"ip"`
	Org string `json:"org"`
}

// Org returns the "org" field for ip, e.g. "AS13335 Cloudflare, Inc.".
func (s *IPInfo) Org(ctx context.Context, ip net.IP) (string, error) {
	u := strings.TrimSuffix(s.BaseURL, "/") + "/" + ip.String() + "/json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ipinfo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ipinfo status %d", resp.StatusCode)
	}
	var body ipinfoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body); err != nil {
		return "", fmt.Errorf("ipinfo decode: %w", err)
	}
	if body.Org == "" {
		return "", ErrNoOrg
	}
	return body.Org, nil
}

// Chain asks each source in order and returns the first organization found.
type Chain []Source

// Org implements Source.
func (c Chain) Org(ctx context.Context, ip net.IP) (string, error) {
	var errs []error
	for _, s := range c {
		org, err := s.Org(ctx, ip)
		if err == nil && org != "" {
			return org, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return "", ErrNoOrg
	}
	return "", errors.Join(errs...)
}
