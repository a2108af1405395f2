package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/safety-report/internal/alternative"
	"github.com/evcraddock/safety-report/internal/report"
	"github.com/evcraddock/safety-report/internal/scoring"
	"github.com/evcraddock/safety-report/internal/signal"
	"github.com/evcraddock/safety-report/internal/snippet"
	"github.com/evcraddock/safety-report/internal/takeaway"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printScore prints a labelled score as a table.
func printScore(s report.ScoreSection) error {
	area := s.Area
	if area == "" {
		area = "(baseline)"
	}
	fmt.Printf("Area:     %s\n", area)
	fmt.Printf("Overall:  %d  %s\n\n", s.Overall, formatRisk(s.Risk))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "QUESTION\tSCORE\tRISK"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, m := range s.Metrics {
		q := m.Question
		if m.Supplemental {
			q += " *"
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", q, m.Score, m.Risk); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	fmt.Println("\n* not included in the overall score")
	return nil
}

// printClassified prints classified snippets, one per line.
func printClassified(items []signal.ClassifiedSnippet) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "RELEVANT\tSENTIMENT\tRULES\tTEXT"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, c := range items {
		relevant := "no"
		if c.Relevant {
			relevant = "yes"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			relevant, c.Sentiment, strings.Join(c.Rules, ","), truncate(c.Text, 60)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	s := signal.Summarize(items)
	fmt.Printf("\n%d snippets, %d relevant (%d positive, %d negative, %d mixed, %d neutral)\n",
		s.Total, s.Relevant, s.Positive, s.Negative, s.Mixed, s.Neutral)
	return nil
}

// printTakeaway prints a takeaway's bullets.
func printTakeaway(key string, t *takeaway.Takeaway, cache string) {
	if cache != "" {
		fmt.Printf("%s (%s, expires %s)\n", key, cache, t.ExpiresAt.Format("2006-01-02"))
	} else {
		fmt.Println(key)
	}
	if t.Empty() {
		fmt.Println("  No safety takeaways yet.")
		return
	}
	for _, b := range t.Positive {
		fmt.Printf("  %s %s\n", takeaway.PositiveMarker, b)
	}
	for _, b := range t.Negative {
		fmt.Printf("  %s %s\n", takeaway.NegativeMarker, b)
	}
}

// printMatches prints ranked alternatives as a table.
func printMatches(matches []alternative.Match) error {
	if len(matches) == 0 {
		fmt.Println("No safer alternatives found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "#\tLISTING\tAREA\tSCORE\tGAIN\tPRICE\tMATCH\tKM"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for i, m := range matches {
		price := "-"
		if m.Listing.Price != nil {
			price = "$" + formatPrice(*m.Listing.Price)
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%d\t+%.0f\t%s\t%.0f%%\t%.1f\n",
			i+1, truncate(m.Listing.URL, 40), m.SafetyScore.Area, m.SafetyScore.Overall,
			m.SafetyScoreDiff, price, m.PriceMatchPct, m.DistanceKM); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// printReport prints every section of a report.
func printReport(r *report.Report) error {
	fmt.Printf("Listing:  %s\n", r.Listing.URL)
	if err := printScore(r.Score); err != nil {
		return err
	}

	fmt.Printf("\nSignals (%s): %d relevant of %d\n", r.Signals.Status, r.Signals.Summary.Relevant, r.Signals.Summary.Total)

	fmt.Println("\nWhat guests say:")
	printSection(r.ListingTakeaway)
	fmt.Println("\nAround the block:")
	printSection(r.AreaTakeaway)

	fmt.Printf("\nSafer alternatives (%s):\n", r.Alternatives.Status)
	if err := printMatches(r.Alternatives.Matches); err != nil {
		return err
	}

	if len(r.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range r.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	return nil
}

func printSection(s report.TakeawaySection) {
	if s.Takeaway == nil {
		fmt.Printf("  (%s)\n", s.Status)
		return
	}
	if s.Status == report.StatusUnknown {
		fmt.Println("  (partial: some sources were unavailable)")
	}
	if s.Takeaway.Empty() {
		fmt.Println("  No safety takeaways yet.")
		return
	}
	for _, b := range s.Takeaway.Positive {
		fmt.Printf("  %s %s\n", takeaway.PositiveMarker, b)
	}
	for _, b := range s.Takeaway.Negative {
		fmt.Printf("  %s %s\n", takeaway.NegativeMarker, b)
	}
}

// printSnippets prints stored snippets in text format.
func printSnippets(records []*snippet.Record) {
	if len(records) == 0 {
		fmt.Println("No snippets.")
		return
	}

	for _, r := range records {
		author := r.Author
		if author == "" {
			author = "anonymous"
		}
		fmt.Printf("[%s] #%d %s (%s)\n  %s\n\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.ID, r.Source, author, r.Text)
	}
}

// formatRisk decorates a risk label for terminals.
func formatRisk(risk string) string {
	switch risk {
	case scoring.RiskLow:
		return "● " + risk
	case scoring.RiskMedium:
		return "◐ " + risk
	default:
		return "○ " + risk
	}
}

// formatPrice formats a nightly price with thousands separators, dropping
// cents when whole.
func formatPrice(p float64) string {
	whole := int64(p)
	s := fmt.Sprintf("%d", whole)

	if len(s) > 3 {
		var parts []string
		for len(s) > 3 {
			parts = append([]string{s[len(s)-3:]}, parts...)
			s = s[:len(s)-3]
		}
		parts = append([]string{s}, parts...)
		s = strings.Join(parts, ",")
	}

	if cents := int64((p-float64(whole))*100 + 0.5); cents > 0 {
		s += fmt.Sprintf(".%02d", cents)
	}
	return s
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
