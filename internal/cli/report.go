package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/safety-report/internal/report"
)

func newReportCmd() *cobra.Command {
	var (
		market string
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "report <listing-url>",
		Short: "Show the full safety report for a listing",
		Long:  "Fetch the safety report from the API server, or build it in-process with --local.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if market == "" {
				market = defaultMarket()
			}
			return runReport(cmd.Context(), args[0], market, local)
		},
	}

	cmd.Flags().StringVar(&market, "market", "", "market key, e.g. los-angeles-ca (default: search all)")
	cmd.Flags().BoolVar(&local, "local", false, "build the report without a server")

	return cmd
}

func runReport(ctx context.Context, rawURL, market string, local bool) error {
	var (
		rep *report.Report
		err error
	)
	if local {
		rep, err = buildLocalReport(ctx, rawURL, market)
	} else {
		rep, err = newAPIClient().Report(ctx, rawURL, market)
	}
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	if isJSON() {
		return printJSON(rep)
	}
	return printReport(rep)
}

func buildLocalReport(ctx context.Context, rawURL, market string) (*report.Report, error) {
	c, err := loadComponents(ctx)
	if err != nil {
		return nil, err
	}
	defer c.close()
	return c.engine.BuildForURL(ctx, rawURL, market)
}
