package listing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Decode extracts a Listing from a raw feed record. Feeds disagree on field
// names, so each field tries several keys; records may also be nested under
// a top-level "data" key. Coordinates are kept only when both are present
// and valid.
func Decode(raw json.RawMessage) (Listing, error) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return Listing{}, fmt.Errorf("decoding listing record: %w", err)
	}

	// Navigate into nested "data" key if present
	if nested, ok := data["data"]; ok {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(nested, &m); err == nil {
			data = m
		}
	}

	var l Listing
	l.ID = jsonID(data, "id", "listing_id")
	l.URL = jsonString(data, "url", "listing_url")
	if l.ID == "" && l.URL == "" {
		return Listing{}, fmt.Errorf("listing record has neither id nor url")
	}
	if l.ID == "" {
		l.ID = CanonicalURL(l.URL)
	}

	l.City = jsonString(data, "city")
	l.State = jsonString(data, "state", "region")
	l.Neighborhood = jsonString(data, "neighborhood", "neighbourhood", "area")
	l.PropertyType = jsonString(data, "property_type", "room_type", "type")
	l.Price = jsonFloat64(data, "price", "nightly_price", "price_per_night")

	lat := jsonFloat64(data, "latitude", "lat")
	lon := jsonFloat64(data, "longitude", "lng", "lon")
	if lat != nil && lon != nil {
		if c, err := NewCoordinates(*lat, *lon); err == nil {
			l.Location = c
		}
	}

	l.Reviews = decodeReviews(data["reviews"])
	l.Photos = decodePhotos(data, "photos", "picture_url")

	return l, nil
}

// DecodeAll decodes a JSON array of feed records, skipping records that
// cannot be decoded. It returns the number of skipped records.
func DecodeAll(raw []byte) ([]Listing, int, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, 0, fmt.Errorf("decoding listing array: %w", err)
	}

	listings := make([]Listing, 0, len(records))
	skipped := 0
	for _, rec := range records {
		l, err := Decode(rec)
		if err != nil {
			skipped++
			continue
		}
		listings = append(listings, l)
	}
	return listings, skipped, nil
}

func decodeReviews(raw json.RawMessage) []Review {
	if len(raw) == 0 {
		return nil
	}

	var texts []string
	if err := json.Unmarshal(raw, &texts); err == nil {
		reviews := make([]Review, 0, len(texts))
		for _, t := range texts {
			if strings.TrimSpace(t) != "" {
				reviews = append(reviews, Review{Text: t})
			}
		}
		return reviews
	}

	var objs []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil
	}
	reviews := make([]Review, 0, len(objs))
	for _, o := range objs {
		r := Review{
			Text:      jsonString(o, "text", "comments", "body"),
			Author:    jsonString(o, "author", "reviewer_name", "name"),
			Permalink: jsonString(o, "permalink", "url"),
		}
		if r.Text == "" {
			continue
		}
		if ts := jsonString(o, "created_at", "date"); ts != "" {
			if t, ok := parseTime(ts); ok {
				r.CreatedAt = &t
			}
		}
		reviews = append(reviews, r)
	}
	return reviews
}

func decodePhotos(data map[string]json.RawMessage, keys ...string) []string {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return list
		}
		var one string
		if err := json.Unmarshal(raw, &one); err == nil && one != "" {
			return []string{one}
		}
	}
	return nil
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// jsonID accepts either a string or numeric id.
func jsonID(data map[string]json.RawMessage, keys ...string) string {
	if s := jsonString(data, keys...); s != "" {
		return s
	}
	for _, key := range keys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

// jsonFloat64 tries multiple keys and returns the first numeric value.
// Numeric strings such as "$120" or "120.50" are accepted.
func jsonFloat64(data map[string]json.RawMessage, keys ...string) *float64 {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err == nil {
			return &v
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// jsonString tries multiple keys and returns the first non-empty string value.
func jsonString(data map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
