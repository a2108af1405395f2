// Package listing provides the short-term-rental listing model and snapshot storage.
package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// Coordinates is a validated latitude/longitude pair. A listing either has
// both values or none: Listing.Location is nil when coordinates are absent.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// NewCoordinates validates lat/lon and returns a coordinate pair.
func NewCoordinates(lat, lon float64) (*Coordinates, error) {
	c := &Coordinates{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// UnmarshalJSON requires both fields. A lone latitude or longitude is an
// error rather than a pair with a zero on the missing side.
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat *float64 `json:"latitude"`
		Lon *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Lat == nil && raw.Lon == nil:
		return errors.New("location requires latitude and longitude")
	case raw.Lat == nil:
		return errors.New("latitude is required when longitude is set")
	case raw.Lon == nil:
		return errors.New("longitude is required when latitude is set")
	}
	c.Lat, c.Lon = *raw.Lat, *raw.Lon
	return nil
}

// Validate reports the first invalid field, naming it.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) {
		return fmt.Errorf("latitude is not a finite number: %v", c.Lat)
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("longitude is not a finite number: %v", c.Lon)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude out of range: %v", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude out of range: %v", c.Lon)
	}
	return nil
}

// Review is a raw guest review attached to a listing by the feed.
type Review struct {
	Text      string     `json:"text"`
	Author    string     `json:"author,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Permalink string     `json:"permalink,omitempty"`
}

// Listing represents a short-term-rental listing from a feed snapshot.
type Listing struct {
	ID           string       `json:"id"`
	URL          string       `json:"url"`
	City         string       `json:"city,omitempty"`
	State        string       `json:"state,omitempty"`
	Neighborhood string       `json:"neighborhood,omitempty"`
	Location     *Coordinates `json:"location,omitempty"`
	Price        *float64     `json:"price,omitempty"`
	PropertyType string       `json:"property_type,omitempty"`
	Reviews      []Review     `json:"reviews,omitempty"`
	Photos       []string     `json:"photos,omitempty"`
}

// HasLocation reports whether the listing carries usable coordinates.
func (l Listing) HasLocation() bool {
	return l.Location != nil && l.Location.Validate() == nil
}

// HasPrice reports whether the listing has a comparable nightly price.
func (l Listing) HasPrice() bool {
	return l.Price != nil && *l.Price > 0 && !math.IsInf(*l.Price, 0) && !math.IsNaN(*l.Price)
}

// CanonicalURL returns the listing URL in canonical join-key form.
func (l Listing) CanonicalURL() string {
	return CanonicalURL(l.URL)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Market returns the market key ("los-angeles-ca") the listing belongs to.
// Empty when the listing has no city.
func (l Listing) Market() string {
	return MarketKey(l.City, l.State)
}

// MarketKey builds a market key from a city and state.
func MarketKey(city, state string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		return ""
	}
	key := strings.ToLower(city)
	if s := strings.TrimSpace(state); s != "" {
		key += " " + strings.ToLower(s)
	}
	return strings.Trim(nonSlug.ReplaceAllString(key, "-"), "-")
}
