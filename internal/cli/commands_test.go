package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/evcraddock/safety-report/internal/db"
	"github.com/evcraddock/safety-report/internal/listing"
	"github.com/evcraddock/safety-report/internal/report"
	"github.com/evcraddock/safety-report/internal/snippet"
)

const poolJSON = `[
  {"id": "dt", "url": "https://www.airbnb.com/rooms/dt", "city": "Los Angeles", "state": "CA",
   "neighborhood": "Downtown", "latitude": 34.05, "longitude": -118.24, "price": 120, "room_type": "Entire apartment"},
  {"id": "sm", "url": "https://www.airbnb.com/rooms/sm", "city": "Los Angeles", "state": "CA",
   "neighborhood": "Santa Monica", "latitude": 34.02, "longitude": -118.49, "price": 130, "room_type": "Entire apartment"},
  {"id": "bh", "url": "https://www.airbnb.com/rooms/bh", "city": "Los Angeles", "state": "CA",
   "neighborhood": "Beverly Hills", "latitude": 34.07, "longitude": -118.40, "price": 150, "room_type": "Entire apartment"},
  {"url": ""}
]`

// isolate points HOME, the working directory and SR_* settings at a temp
// dir and returns a database path inside it.
func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Chdir(tmp)
	for _, k := range []string{"SR_DB", "SR_STORE", "SR_FEED_URL", "SR_GEOCODER_URL", "SR_AREA_TABLE", "SR_MARKETS", "SR_TAKEAWAY_TTL", "SR_PORT"} {
		t.Setenv(k, "")
	}
	return filepath.Join(tmp, "test.db")
}

func importPool(t *testing.T, dbPath string) {
	t.Helper()
	file := filepath.Join(filepath.Dir(dbPath), "pool.json")
	if err := os.WriteFile(file, []byte(poolJSON), 0o600); err != nil {
		t.Fatalf("write pool: %v", err)
	}
	if _, err := executeCommand("import", file, "--db", dbPath); err != nil {
		t.Fatalf("import: %v", err)
	}
}

func openTestDB(t *testing.T, path string) *listing.Repository {
	t.Helper()
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})
	return listing.NewRepository(d)
}

func TestImportFile(t *testing.T) {
	dbPath := isolate(t)
	importPool(t, dbPath)

	got, err := openTestDB(t, dbPath).Snapshot(context.Background(), "los-angeles-ca")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d listings, want 3", len(got))
	}
}

func TestImportRequiresSource(t *testing.T) {
	isolate(t)
	if _, err := executeCommand("import"); err == nil {
		t.Fatal("expected error with no file or market")
	}
}

func TestImportByMarketRequiresFeed(t *testing.T) {
	dbPath := isolate(t)
	if _, err := executeCommand("import", "--market", "los-angeles-ca", "--db", dbPath); err == nil {
		t.Fatal("expected error without SR_FEED_URL")
	}
}

func TestAlternativesLocal(t *testing.T) {
	dbPath := isolate(t)
	importPool(t, dbPath)

	if _, err := executeCommand("alternatives", "https://www.airbnb.com/rooms/dt/", "--db", dbPath); err != nil {
		t.Fatalf("alternatives: %v", err)
	}
	if _, err := executeCommand("alternatives", "https://www.airbnb.com/rooms/dt", "--market", "los-angeles-ca", "--limit", "1", "--format", "json", "--db", dbPath); err != nil {
		t.Fatalf("alternatives json: %v", err)
	}
}

func TestReportLocal(t *testing.T) {
	dbPath := isolate(t)
	importPool(t, dbPath)

	if _, err := executeCommand("report", "https://www.airbnb.com/rooms/sm", "--local", "--db", dbPath); err != nil {
		t.Fatalf("report: %v", err)
	}

	_, err := executeCommand("report", "https://www.airbnb.com/rooms/nope", "--local", "--db", dbPath)
	if !errors.Is(err, report.ErrListingNotFound) {
		t.Fatalf("err = %v, want ErrListingNotFound", err)
	}
}

func TestSnippetAddListRemove(t *testing.T) {
	dbPath := isolate(t)

	if _, err := executeCommand("snippet", "add", "dt", "Our", "car", "was", "broken", "into.", "--source", "video", "--posted", "2026-02-01", "--db", dbPath); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := executeCommand("snippet", "list", "dt", "--db", dbPath); err != nil {
		t.Fatalf("list: %v", err)
	}

	d, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	records, err := snippet.NewRepository(d).List(context.Background(), "dt")
	if cerr := d.Close(); cerr != nil {
		t.Errorf("close db: %v", cerr)
	}
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Text != "Our car was broken into." || records[0].PostedAt == nil {
		t.Fatalf("records = %+v", records)
	}

	if _, err := executeCommand("snippet", "remove", "1", "--db", dbPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := executeCommand("snippet", "remove", "1", "--db", dbPath); err == nil {
		t.Fatal("expected error removing a missing snippet")
	}
}

func TestSnippetAddValidation(t *testing.T) {
	dbPath := isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no text", []string{"snippet", "add", "dt"}},
		{"bad source", []string{"snippet", "add", "dt", "text", "--source", "tweet"}},
		{"bad date", []string{"snippet", "add", "dt", "text", "--posted", "yesterday"}},
		{"bad id", []string{"snippet", "remove", "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(append(tt.args, "--db", dbPath)...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTakeawayLocal(t *testing.T) {
	dbPath := isolate(t)

	if _, err := executeCommand("snippet", "add", "dt", "The street is well lit and feels safe.", "--db", dbPath); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := executeCommand("takeaway", "dt", "--db", dbPath); err != nil {
		t.Fatalf("takeaway: %v", err)
	}
	if _, err := executeCommand("takeaway", "--db", dbPath); err == nil {
		t.Fatal("expected error without a subject key")
	}
}

func TestScoreFlags(t *testing.T) {
	dbPath := isolate(t)

	if _, err := executeCommand("score", "--neighborhood", "Venice", "--db", dbPath); err != nil {
		t.Fatalf("score: %v", err)
	}
	if _, err := executeCommand("score", "--lat", "34.05", "--db", dbPath); err == nil {
		t.Fatal("expected error for --lat without --lon")
	}
	if _, err := executeCommand("score", "--lat", "91", "--lon", "0", "--db", dbPath); err == nil {
		t.Fatal("expected error for out-of-range latitude")
	}
}

func TestScoreFlagsListing(t *testing.T) {
	f := scoreFlags{neighborhood: "Venice", city: "Los Angeles", state: "CA", lat: 33.99, lon: -118.47}
	l, err := f.listing(true, true)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if l.Location == nil || l.Location.Lat != 33.99 {
		t.Errorf("location = %+v", l.Location)
	}
	if l.Market() != "los-angeles-ca" {
		t.Errorf("market = %q", l.Market())
	}
}

func TestClassifyArgs(t *testing.T) {
	isolate(t)

	if _, err := executeCommand("classify", "Is it safe at night?", "Someone was mugged on the corner."); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if _, err := executeCommand("classify", "text", "--source", "podcast"); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestServeRejectsArgs(t *testing.T) {
	if _, err := executeCommand("serve", "extra"); err == nil {
		t.Fatal("expected error for extra args")
	}
}

func TestServeInvalidConfig(t *testing.T) {
	isolate(t)
	t.Setenv("SR_STORE", "mongo")

	if _, err := executeCommand("serve"); err == nil {
		t.Fatal("expected config error")
	}
}
