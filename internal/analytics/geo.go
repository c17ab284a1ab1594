package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

// DefaultGeoEndpoint is an ipapi.co compatible lookup service.
const DefaultGeoEndpoint = "https://ipapi.co"

// Location is a coarse geography for a client IP.
type Location struct {
	Country string
	City    string
}

// UnknownLocation is used whenever the geography cannot be determined.
var UnknownLocation = Location{Country: Unknown, City: Unknown}

// GeoLocator resolves client IPs to locations. Implementations never fail;
// anything they cannot resolve is UnknownLocation.
type GeoLocator interface {
	Locate(ctx context.Context, ip string) Location
}

// Exempt reports whether ip must not be sent to an external lookup:
// unparseable, loopback, private, link-local or unspecified addresses.
func Exempt(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return true
	}

	return addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast()
}

// HTTPGeoLocator queries <endpoint>/<ip>/json/ and reads country_name and city.
type HTTPGeoLocator struct {
	client   *http.Client
	endpoint string
}

// NewHTTPGeoLocator creates a geolocator with a bounded request timeout.
func NewHTTPGeoLocator(endpoint string, timeout time.Duration) *HTTPGeoLocator {
	return &HTTPGeoLocator{
		client:   &http.Client{Timeout: timeout},
		endpoint: strings.TrimSuffix(endpoint, "/"),
	}
}

type geoResponse struct {
	CountryName string `json:"country_name"`
	City        string `json:"city"`
}

func (g *HTTPGeoLocator) Locate(ctx context.Context, ip string) Location {
	if Exempt(ip) {
		return UnknownLocation
	}

	loc, err := g.fetch(ctx, ip)
	if err != nil {
		return UnknownLocation
	}

	return loc
}

func (g *HTTPGeoLocator) fetch(ctx context.Context, ip string) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", g.endpoint, ip), nil)
	if err != nil {
		return Location{}, err
	}

	req.Header.Set("User-Agent", "shortlinks")

	resp, err := g.client.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geolocation status %d", resp.StatusCode)
	}

	var body geoResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, err
	}

	return Location{
		Country: orUnknown(body.CountryName),
		City:    orUnknown(body.City),
	}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}

	return s
}
