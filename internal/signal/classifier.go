package signal

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Classifier applies a relevance table and a sentiment table. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	relevance []Rule
	sentiment []Rule
}

// NewClassifier returns a classifier using the default tables.
func NewClassifier() *Classifier {
	return &Classifier{
		relevance: DefaultRelevanceRules(),
		sentiment: DefaultSentimentRules(),
	}
}

// NewClassifierWithRules returns a classifier for custom, e.g. per-market,
// tables.
func NewClassifierWithRules(relevance, sentiment []Rule) (*Classifier, error) {
	if err := validateRules("relevance", relevance, RejectQuestion, RejectOffTopic, AcceptSafety); err != nil {
		return nil, err
	}
	if err := validateRules("sentiment", sentiment, MarkPositive, MarkNegative); err != nil {
		return nil, err
	}
	return &Classifier{
		relevance: append([]Rule(nil), relevance...),
		sentiment: append([]Rule(nil), sentiment...),
	}, nil
}

// Classify is a pure function of the snippet text.
func (c *Classifier) Classify(s Snippet) ClassifiedSnippet {
	out := ClassifiedSnippet{Snippet: s, Sentiment: Neutral}

	relevant, rule := c.relevant(s.Text)
	if rule != "" {
		out.Rules = append(out.Rules, rule)
	}
	if !relevant {
		return out
	}
	out.Relevant = true

	sentiment, fired := c.polarity(s.Text)
	out.Sentiment = sentiment
	out.Rules = append(out.Rules, fired...)
	return out
}

// relevant walks the relevance table; the first rule that matches decides.
func (c *Classifier) relevant(text string) (bool, string) {
	for _, r := range c.relevance {
		if !r.Pattern.MatchString(text) {
			continue
		}
		return r.Effect == AcceptSafety, r.Name
	}
	return false, ""
}

func (c *Classifier) polarity(text string) (Sentiment, []string) {
	var fired []string
	positive, negative := false, false
	work := []byte(text)

	for _, r := range c.sentiment {
		spans := r.Pattern.FindAllIndex(work, -1)
		if len(spans) == 0 {
			continue
		}
		fired = append(fired, r.Name)
		switch r.Effect {
		case MarkPositive:
			positive = true
		case MarkNegative:
			negative = true
		}
		for _, sp := range spans {
			for i := sp[0]; i < sp[1]; i++ {
				work[i] = ' '
			}
		}
	}

	switch {
	case positive && negative:
		return Mixed, fired
	case positive:
		return Positive, fired
	case negative:
		return Negative, fired
	default:
		return Neutral, fired
	}
}

// ClassifyAll classifies snippets in parallel and preserves input order. It
// only fails when ctx is cancelled.
func (c *Classifier) ClassifyAll(ctx context.Context, snippets []Snippet) ([]ClassifiedSnippet, error) {
	out := make([]ClassifiedSnippet, len(snippets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range snippets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = c.Classify(snippets[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
