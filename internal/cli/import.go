package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/safety-report/internal/config"
	"github.com/evcraddock/safety-report/internal/feed"
	"github.com/evcraddock/safety-report/internal/listing"
)

func newImportCmd() *cobra.Command {
	var market string

	cmd := &cobra.Command{
		Use:   "import [file.json]",
		Short: "Import a listing snapshot",
		Long: `Import listings into the local database.

With a file argument (or "-" for stdin) the file must hold a JSON array of
feed records. With --market and SR_FEED_URL set, the market snapshot is
pulled from the feed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && market == "" {
				return fmt.Errorf("a file or --market is required")
			}
			return runImport(cmd.Context(), args, market)
		},
	}

	cmd.Flags().StringVar(&market, "market", "", "pull this market from the listing feed")

	return cmd
}

func runImport(ctx context.Context, args []string, market string) error {

	var (
		listings []listing.Listing
		skipped  int
		err      error
	)
	if len(args) == 1 {
		listings, skipped, err = readListingFile(args[0])
	} else {
		listings, err = fetchMarket(ctx, market)
	}
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	database, err := openDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	n, err := listing.NewRepository(database).Import(listings)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]int{"imported": n, "skipped": skipped})
	}
	fmt.Printf("Imported %d listings", n)
	if skipped > 0 {
		fmt.Printf(" (%d records skipped)", skipped)
	}
	fmt.Println()
	return nil
}

func readListingFile(path string) ([]listing.Listing, int, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return listing.DecodeAll(data)
}

func fetchMarket(ctx context.Context, market string) ([]listing.Listing, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	fc, err := feed.NewClient(cfg.FeedURL, cfg.FeedAPIKey, cfg.FeedRate)
	if err != nil {
		return nil, fmt.Errorf("SR_FEED_URL must be set to import by market: %w", err)
	}
	return fc.Snapshot(ctx, market)
}
