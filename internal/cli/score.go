package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/safety-report/internal/listing"
	"github.com/evcraddock/safety-report/internal/report"
)

type scoreFlags struct {
	file         string
	neighborhood string
	city         string
	state        string
	lat, lon     float64
}

func newScoreCmd() *cobra.Command {
	var f scoreFlags

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a listing's area",
		Long:  "Compute the night, transit and walk scores for a listing described by flags or a JSON file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := f.listing(cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon"))
			if err != nil {
				return err
			}
			return runScore(cmd.Context(), l)
		},
	}

	cmd.Flags().StringVar(&f.file, "file", "", "JSON listing record")
	cmd.Flags().StringVar(&f.neighborhood, "neighborhood", "", "neighborhood name")
	cmd.Flags().StringVar(&f.city, "city", "", "city name")
	cmd.Flags().StringVar(&f.state, "state", "", "state")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "longitude")

	return cmd
}

func (f scoreFlags) listing(hasLat, hasLon bool) (listing.Listing, error) {
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return listing.Listing{}, fmt.Errorf("reading %s: %w", f.file, err)
		}
		return listing.Decode(json.RawMessage(data))
	}

	l := listing.Listing{Neighborhood: f.neighborhood, City: f.city, State: f.state}
	if hasLat != hasLon {
		return listing.Listing{}, fmt.Errorf("--lat and --lon must be given together")
	}
	if hasLat {
		loc, err := listing.NewCoordinates(f.lat, f.lon)
		if err != nil {
			return listing.Listing{}, err
		}
		l.Location = loc
	}
	return l, nil
}

func runScore(ctx context.Context, l listing.Listing) error {
	c, err := loadComponents(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	sec := report.NewScoreSection(c.scorer.ScoreContext(ctx, l))
	if isJSON() {
		return printJSON(sec)
	}
	return printScore(sec)
}
