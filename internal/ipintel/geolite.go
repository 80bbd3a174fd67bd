package ipintel

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoLiteASN reads a MaxMind GeoLite2-ASN database.
type GeoLiteASN struct {
	db *geoip2.Reader
}

// OpenGeoLiteASN opens the database at path.
func OpenGeoLiteASN(path string) (*GeoLiteASN, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GeoLite2 ASN database: %w", err)
	}
	return &GeoLiteASN{db: db}, nil
}

// Org implements Source.
func (g *GeoLiteASN) Org(_ context.Context, ip net.IP) (string, error) {
	rec, err := g.db.ASN(ip)
	if err != nil {
		return "", err
	}
	if rec == nil || rec.AutonomousSystemOrganization == "" {
		return "", ErrNoOrg
	}
	return fmt.Sprintf("AS%d %s", rec.AutonomousSystemNumber, rec.AutonomousSystemOrganization), nil
}

// Close releases the database.
func (g *GeoLiteASN) Close() error { return g.db.Close() }
