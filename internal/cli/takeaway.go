package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newTakeawayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "takeaway <subject-key>",
		Short: "Show the takeaway for a listing or geo cell",
		Long:  "Serve the cached takeaway for a subject key (a listing ID or a geo cell such as geo:34.05:-118.25), synthesizing it from stored snippets when missing or expired.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTakeaway(cmd.Context(), args[0])
		},
	}
}

func runTakeaway(ctx context.Context, key string) error {
	c, err := loadComponents(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	snippets, err := c.snippets.ListBySubject(ctx, key)
	if err != nil {
		return err
	}
	classified, err := c.classifier.ClassifyAll(ctx, snippets)
	if err != nil {
		return err
	}
	t, outcome := c.synth.Get(ctx, key, classified)

	if isJSON() {
		return printJSON(map[string]interface{}{"cache": outcome, "takeaway": t})
	}
	printTakeaway(key, t, string(outcome))
	return nil
}
