package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/safety-report/internal/signal"
)

func newClassifyCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify snippets for safety relevance and sentiment",
		Long:  "Classify each argument as one snippet. With no arguments, each non-empty line of stdin is a snippet.",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := signal.ParseSource(source)
			if err != nil {
				return err
			}
			texts := args
			if len(texts) == 0 {
				texts, err = readLines(os.Stdin)
				if err != nil {
					return err
				}
			}
			if len(texts) == 0 {
				return fmt.Errorf("no snippets to classify")
			}
			return runClassify(cmd.Context(), texts, src)
		},
	}

	cmd.Flags().StringVar(&source, "source", "social_comment", "snippet source (review|social_comment|video_transcript)")

	return cmd
}

func runClassify(ctx context.Context, texts []string, src signal.Source) error {
	snippets := make([]signal.Snippet, 0, len(texts))
	for _, t := range texts {
		snippets = append(snippets, signal.Snippet{Text: t, Source: src})
	}

	classified, err := signal.NewClassifier().ClassifyAll(ctx, snippets)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(struct {
			Summary  signal.Summary             `json:"summary"`
			Snippets []signal.ClassifiedSnippet `json:"snippets"`
		}{signal.Summarize(classified), classified})
	}
	return printClassified(classified)
}

func readLines(f *os.File) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return lines, nil
}
