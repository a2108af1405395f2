// Package snippet stores social comments and video transcripts about a
// listing or geo cell.
package snippet

import (
	"time"

	"github.com/evcraddock/safety-report/internal/signal"
)

// Record is a stored snippet.
type Record struct {
	ID         int64         `json:"id"`
	SubjectKey string        `json:"subject_key"`
	Source     signal.Source `json:"source"`
	Text       string        `json:"text"`
	Author     string        `json:"author,omitempty"`
	Permalink  string        `json:"permalink,omitempty"`
	PostedAt   *time.Time    `json:"posted_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Signal converts the record for classification.
func (r *Record) Signal() signal.Snippet {
	return signal.Snippet{
		Text:      r.Text,
		Source:    r.Source,
		Author:    r.Author,
		Timestamp: r.PostedAt,
		Permalink: r.Permalink,
	}
}
