// Package whois queries an IP-to-ASN WHOIS registry such as whois.cymru.com.
package whois

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// ErrNoRecord is returned when the registry answers without an AS entry.
var ErrNoRecord = errors.New("no ASN record")

// ASNRecord is one parsed registry line.
type ASNRecord struct {
	ASN      string
	IP       string
	Prefix   string
	Country  string
	Registry string
	Name     string
}

// Client talks the plain WHOIS protocol (RFC 3912) to one server.
type Client struct {
	Server  string
	Timeout time.Duration
}

// New returns a Client for server ("host:port").
func New(server string, timeout time.Duration) *Client {
	return &Client{Server: server, Timeout: timeout}
}

// LookupASN asks the registry which AS announces ip.
func (c *Client) LookupASN(ctx context.Context, ip net.IP) (ASNRecord, error) {
	if ip == nil {
		return ASNRecord{}, errors.New("nil ip")
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", c.Server)
	if err != nil {
		return ASNRecord{}, fmt.Errorf("whois dial %s: %w", c.Server, err)
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if _, err := fmt.Fprintf(conn, " -v %s\r\n", ip.String()); err != nil {
		return ASNRecord{}, fmt.Errorf("whois write: %w", err)
	}
	body, err := io.ReadAll(io.LimitReader(conn, 64*1024))
	if err != nil {
		return ASNRecord{}, fmt.Errorf("whois read: %w", err)
	}
	return ParseASNResponse(string(body))
}

// ParseASNResponse extracts the last data line of a verbose Cymru-style
// response. Lines are pipe separated; the header line starts with "AS".
func ParseASNResponse(body string) (ASNRecord, error) {
	var last string
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		// data lines start with the AS number or NA
		if line == "" || strings.HasPrefix(line, "AS") || strings.HasPrefix(line, "Bulk mode") {
			continue
		}
		last = line
	}
	if last == "" {
		return ASNRecord{}, ErrNoRecord
	}
	if !strings.Contains(last, "|") {
		fields := strings.Fields(last)
		if len(fields) <= 4 {
			return ASNRecord{}, fmt.Errorf("%w: %q", ErrNoRecord, last)
		}
		return ASNRecord{ASN: fields[0], Name: strings.Join(fields[4:], " ")}, nil
	}
	cols := strings.Split(last, "|")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	rec := ASNRecord{ASN: cols[0], Name: cols[len(cols)-1]}
	if len(cols) >= 7 {
		rec.IP, rec.Prefix, rec.Country, rec.Registry = cols[1], cols[2], cols[3], cols[4]
	}
	if rec.ASN == "NA" || rec.Name == "" || rec.Name == "NA" {
		return rec, fmt.Errorf("%w: %q", ErrNoRecord, last)
	}
	return rec, nil
}
