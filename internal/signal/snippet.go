// Package signal decides whether free-text snippets carry a safety claim and
// tags their sentiment.
package signal

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies where a snippet came from.
type Source string

const (
	SourceReview          Source = "review"
	SourceSocialComment   Source = "social_comment"
	SourceVideoTranscript Source = "video_transcript"
)

// ParseSource accepts the canonical names plus hyphenated and short forms.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "review", "reviews":
		return SourceReview, nil
	case "social_comment", "social-comment", "social", "comment":
		return SourceSocialComment, nil
	case "video_transcript", "video-transcript", "video", "transcript":
		return SourceVideoTranscript, nil
	default:
		return "", fmt.Errorf("invalid source %q: must be review, social_comment, or video_transcript", s)
	}
}

// Snippet is a piece of free text about a listing or area. It is treated as
// immutable once classified.
type Snippet struct {
	Text      string     `json:"text"`
	Source    Source     `json:"source"`
	Author    string     `json:"author,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Permalink string     `json:"permalink,omitempty"`
}

// Sentiment is the safety polarity of a relevant snippet.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
	Mixed    Sentiment = "mixed"
)

// ClassifiedSnippet is a snippet plus its derived classification. Rules
// lists the names of the rules that fired, in table order.
type ClassifiedSnippet struct {
	Snippet
	Relevant  bool      `json:"relevant"`
	Sentiment Sentiment `json:"sentiment"`
	Rules     []string  `json:"rules,omitempty"`
}

// Summary counts classified snippets by outcome.
type Summary struct {
	Total    int `json:"total"`
	Relevant int `json:"relevant"`
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Mixed    int `json:"mixed"`
	Neutral  int `json:"neutral"`
}

// Summarize tallies a classified set. Irrelevant snippets only count
// toward Total.
func Summarize(items []ClassifiedSnippet) Summary {
	s := Summary{Total: len(items)}
	for _, c := range items {
		if !c.Relevant {
			continue
		}
		s.Relevant++
		switch c.Sentiment {
		case Positive:
			s.Positive++
		case Negative:
			s.Negative++
		case Mixed:
			s.Mixed++
		default:
			s.Neutral++
		}
	}
	return s
}
