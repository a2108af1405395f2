package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/safety-report/internal/signal"
)

func newSnippetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snippet",
		Short: "Manage stored social comments and transcripts",
	}
	cmd.AddCommand(newSnippetAddCmd(), newSnippetListCmd(), newSnippetRemoveCmd())
	return cmd
}

func newSnippetAddCmd() *cobra.Command {
	var (
		source    string
		author    string
		permalink string
		posted    string
	)

	cmd := &cobra.Command{
		Use:   "add <subject-key> <text>",
		Short: "Store a snippet under a listing ID or geo cell",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := signal.ParseSource(source)
			if err != nil {
				return err
			}
			s := signal.Snippet{
				Text:      strings.Join(args[1:], " "),
				Source:    src,
				Author:    author,
				Permalink: permalink,
			}
			if posted != "" {
				ts, err := time.Parse("2006-01-02", posted)
				if err != nil {
					return fmt.Errorf("invalid --posted %q: want YYYY-MM-DD", posted)
				}
				s.Timestamp = &ts
			}
			return runSnippetAdd(cmd.Context(), args[0], s)
		},
	}

	cmd.Flags().StringVar(&source, "source", "social_comment", "snippet source (review|social_comment|video_transcript)")
	cmd.Flags().StringVar(&author, "author", "", "author handle")
	cmd.Flags().StringVar(&permalink, "permalink", "", "link to the original post")
	cmd.Flags().StringVar(&posted, "posted", "", "date posted (YYYY-MM-DD)")

	return cmd
}

func runSnippetAdd(ctx context.Context, key string, s signal.Snippet) error {
	c, err := loadComponents(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	rec, err := c.snippets.Add(ctx, key, s)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(rec)
	}
	fmt.Printf("Snippet #%d added to %s.\n", rec.ID, rec.SubjectKey)
	return nil
}

func newSnippetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <subject-key>",
		Short: "List snippets stored under a subject key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnippetList(cmd.Context(), args[0])
		},
	}
}

func runSnippetList(ctx context.Context, key string) error {
	c, err := loadComponents(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	records, err := c.snippets.List(ctx, key)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(records)
	}
	printSnippets(records)
	return nil
}

func newSnippetRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a stored snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid snippet ID: %s", args[0])
			}
			c, err := loadComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer c.close()
			if err := c.snippets.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Snippet #%d removed.\n", id)
			return nil
		},
	}
}
