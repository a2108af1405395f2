package listing

import (
	"encoding/json"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantErr  bool
		wantFunc func(t *testing.T, l Listing)
	}{
		{
			name: "flat record",
			raw: `{"id": "101", "url": "https://www.airbnb.com/rooms/101?utm_source=x", "city": "Los Angeles",
				"state": "CA", "neighborhood": "Downtown", "latitude": 34.05, "longitude": -118.24,
				"price": 120, "property_type": "Entire apartment",
				"reviews": ["Felt very safe walking back at night."], "photos": ["a.jpg", "b.jpg"]}`,
			wantFunc: func(t *testing.T, l Listing) {
				if l.ID != "101" {
					t.Errorf("id = %q, want 101", l.ID)
				}
				if l.Neighborhood != "Downtown" {
					t.Errorf("neighborhood = %q", l.Neighborhood)
				}
				if !l.HasLocation() || l.Location.Lat != 34.05 {
					t.Errorf("location = %+v", l.Location)
				}
				if l.Price == nil || *l.Price != 120 {
					t.Errorf("price = %v, want 120", l.Price)
				}
				if len(l.Reviews) != 1 || len(l.Photos) != 2 {
					t.Errorf("reviews = %d, photos = %d", len(l.Reviews), len(l.Photos))
				}
				if l.Market() != "los-angeles-ca" {
					t.Errorf("market = %q", l.Market())
				}
			},
		},
		{
			name: "nested under data with alternate keys",
			raw: `{"data": {"listing_id": 7, "listing_url": "https://example.com/7", "neighbourhood": "Venice",
				"lat": 33.99, "lng": -118.47, "nightly_price": "$1,250.50", "room_type": "Private room",
				"reviews": [{"comments": "Someone broke into our car.", "reviewer_name": "Sam", "date": "2026-03-01"}]}}`,
			wantFunc: func(t *testing.T, l Listing) {
				if l.ID != "7" {
					t.Errorf("id = %q, want 7", l.ID)
				}
				if l.Price == nil || *l.Price != 1250.50 {
					t.Errorf("price = %v, want 1250.50", l.Price)
				}
				if l.PropertyType != "Private room" {
					t.Errorf("type = %q", l.PropertyType)
				}
				if len(l.Reviews) != 1 || l.Reviews[0].Author != "Sam" || l.Reviews[0].CreatedAt == nil {
					t.Errorf("reviews = %+v", l.Reviews)
				}
			},
		},
		{
			name: "partial coordinates dropped",
			raw:  `{"id": "9", "latitude": 34.0}`,
			wantFunc: func(t *testing.T, l Listing) {
				if l.Location != nil {
					t.Errorf("expected nil location, got %+v", l.Location)
				}
			},
		},
		{
			name: "out of range coordinates dropped",
			raw:  `{"id": "9", "latitude": 134.0, "longitude": 10}`,
			wantFunc: func(t *testing.T, l Listing) {
				if l.Location != nil {
					t.Errorf("expected nil location, got %+v", l.Location)
				}
			},
		},
		{
			name:    "no identity",
			raw:     `{"city": "Los Angeles"}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			raw:     `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Decode(json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.wantFunc(t, l)
		})
	}
}

func TestDecodeAllSkipsBadRecords(t *testing.T) {
	raw := []byte(`[{"id": "1"}, {"city": "nowhere"}, {"id": "2", "url": "https://example.com/2"}]`)

	listings, skipped, err := DecodeAll(raw)
	if err != nil {
		t.Fatalf("decode all: %v", err)
	}
	if len(listings) != 2 {
		t.Errorf("got %d listings, want 2", len(listings))
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}
