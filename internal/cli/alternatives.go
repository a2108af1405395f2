package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newAlternativesCmd() *cobra.Command {
	var (
		market string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "alternatives <listing-url>",
		Short: "Rank safer alternatives for a listing",
		Long:  "Find the listing in the market snapshot and rank nearby listings that score safer, by safety gain, price match, distance and property type.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if market == "" {
				market = defaultMarket()
			}
			return runAlternatives(cmd.Context(), args[0], market, limit)
		},
	}

	cmd.Flags().StringVar(&market, "market", "", "market key, e.g. los-angeles-ca (default: search all)")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of alternatives (default: $SR_ALTERNATIVES_LIMIT or 3)")

	return cmd
}

func runAlternatives(ctx context.Context, rawURL, market string, limit int) error {
	c, err := loadComponents(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	if limit <= 0 {
		limit = c.cfg.AlternativesLimit
	}

	target, snapshot, err := c.engine.Lookup(ctx, rawURL, market)
	if err != nil {
		return err
	}
	matches, err := c.engine.Alternatives(ctx, target, snapshot, limit)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(matches)
	}
	return printMatches(matches)
}
