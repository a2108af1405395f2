package signal

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"testing"
)

func TestClassifyRelevance(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name     string
		text     string
		relevant bool
		rule     string
	}{
		{"interrogative", "Is it safe to walk at night here?", false, "interrogative"},
		{"question with has anyone", "Has anyone had their car broken into on this street?", false, "interrogative"},
		{"question in a later sentence", "Our car was broken into when we parked on the street. Would we stay again? No.", true, "vocab_crime"},
		{"question across lines", "What a view\nthe garage felt sketchy, did it? Yes.", true, "vocab_fear"},
		{"relocation intent", "We are moving to LA next year, which area is safe", false, "off_topic_intent"},
		{"purchase intent", "Thinking about buying a house here, crime seems low.", false, "off_topic_intent"},
		{"no vocabulary", "Lovely apartment with a great view and comfy bed.", false, ""},
		{"crime vocabulary", "There was some petty theft in the garage.", true, "vocab_crime"},
		{"fear vocabulary", "The alley behind the building felt sketchy.", true, "vocab_fear"},
		{"safety vocabulary", "We felt completely safe the whole stay.", true, "vocab_safety"},
		{"case insensitive", "POLICE were patrolling all night.", true, "vocab_safety"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(Snippet{Text: tt.text, Source: SourceReview})
			if got.Relevant != tt.relevant {
				t.Errorf("relevant = %v, want %v", got.Relevant, tt.relevant)
			}
			if tt.rule == "" && len(got.Rules) != 0 {
				t.Errorf("rules = %v, want none", got.Rules)
			}
			if tt.rule != "" && (len(got.Rules) == 0 || got.Rules[0] != tt.rule) {
				t.Errorf("rules = %v, want first %q", got.Rules, tt.rule)
			}
			if !got.Relevant && got.Sentiment != Neutral {
				t.Errorf("irrelevant snippet has sentiment %q", got.Sentiment)
			}
		})
	}
}

func TestClassifySentiment(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		text string
		want Sentiment
	}{
		{"plain positive", "We felt safe walking back late.", Positive},
		{"plain negative", "Our rental car was broken into overnight.", Negative},
		{"negated negative", "I never felt unsafe in this neighborhood.", Positive},
		{"not dangerous", "The area is not dangerous at all.", Positive},
		{"absent crime", "No crime that we noticed, and the block is well lit.", Positive},
		{"negated positive", "Honestly it did not feel safe after dark.", Negative},
		{"contraction", "We didn't feel safe walking to the subway.", Negative},
		{"mixed", "The building is secure but there was a shooting two blocks away.", Mixed},
		{"neutral", "Safety information was posted by the door.", Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(Snippet{Text: tt.text})
			if !got.Relevant {
				t.Fatalf("expected relevant, rules = %v", got.Rules)
			}
			if got.Sentiment != tt.want {
				t.Errorf("sentiment = %q, want %q (rules %v)", got.Sentiment, tt.want, got.Rules)
			}
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	c := NewClassifier()
	texts := []string{
		"Is it safe to walk at night here?",
		"I never felt unsafe in this neighborhood.",
		"The building is secure but there was a shooting two blocks away.",
		"Lovely apartment with a great view.",
		"",
	}
	for _, text := range texts {
		first := c.Classify(Snippet{Text: text, Source: SourceSocialComment, Author: "a"})
		second := c.Classify(first.Snippet)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%q: %+v != %+v", text, first, second)
		}
	}
}

func TestNoVocabularyIsNeverRelevant(t *testing.T) {
	c := NewClassifier()
	texts := []string{
		"Great host, quick replies.",
		"The kitchen had everything we needed!",
		"Parking was easy and the beds were comfy.",
	}
	for _, text := range texts {
		if HasSafetyVocabulary(text) {
			t.Fatalf("%q unexpectedly contains vocabulary", text)
		}
		if c.Classify(Snippet{Text: text}).Relevant {
			t.Errorf("%q classified relevant", text)
		}
	}
}

func TestClassifyAllPreservesOrder(t *testing.T) {
	c := NewClassifier()
	var snippets []Snippet
	for i := 0; i < 200; i++ {
		text := fmt.Sprintf("Stay %d was quiet.", i)
		if i%3 == 0 {
			text = fmt.Sprintf("Stay %d felt safe.", i)
		}
		snippets = append(snippets, Snippet{Text: text})
	}

	got, err := c.ClassifyAll(context.Background(), snippets)
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	if len(got) != len(snippets) {
		t.Fatalf("got %d results, want %d", len(got), len(snippets))
	}
	for i, cs := range got {
		if cs.Text != snippets[i].Text {
			t.Fatalf("result %d out of order: %q", i, cs.Text)
		}
		if !reflect.DeepEqual(cs, c.Classify(snippets[i])) {
			t.Errorf("result %d differs from sequential classification", i)
		}
	}
}

func TestClassifyAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClassifier().ClassifyAll(ctx, []Snippet{{Text: "safe"}, {Text: "unsafe"}})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNewClassifierWithRules(t *testing.T) {
	rel := []Rule{{Name: "flood", Pattern: regexp.MustCompile(`(?i)flood`), Effect: AcceptSafety}}
	sent := []Rule{{Name: "dry", Pattern: regexp.MustCompile(`(?i)stayed dry`), Effect: MarkPositive}}

	c, err := NewClassifierWithRules(rel, sent)
	if err != nil {
		t.Fatalf("NewClassifierWithRules: %v", err)
	}
	got := c.Classify(Snippet{Text: "Despite the flood warning we stayed dry."})
	if !got.Relevant || got.Sentiment != Positive {
		t.Errorf("got %+v", got)
	}
	if !reflect.DeepEqual(got.Rules, []string{"flood", "dry"}) {
		t.Errorf("rules = %v", got.Rules)
	}

	bad := []struct {
		name      string
		rel, sent []Rule
	}{
		{"sentiment effect in relevance table", []Rule{{Name: "x", Pattern: regexp.MustCompile("x"), Effect: MarkPositive}}, nil},
		{"relevance effect in sentiment table", nil, []Rule{{Name: "x", Pattern: regexp.MustCompile("x"), Effect: AcceptSafety}}},
		{"missing pattern", []Rule{{Name: "x", Effect: AcceptSafety}}, nil},
		{"missing name", []Rule{{Pattern: regexp.MustCompile("x"), Effect: AcceptSafety}}, nil},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClassifierWithRules(tt.rel, tt.sent); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{"review", SourceReview, false},
		{"Social-Comment", SourceSocialComment, false},
		{"video", SourceVideoTranscript, false},
		{"tweet", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSource(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSource(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseSource(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	items := []ClassifiedSnippet{
		{Relevant: true, Sentiment: Positive},
		{Relevant: true, Sentiment: Negative},
		{Relevant: true, Sentiment: Mixed},
		{Relevant: true, Sentiment: Neutral},
		{Relevant: false, Sentiment: Neutral},
	}
	got := Summarize(items)
	want := Summary{Total: 5, Relevant: 4, Positive: 1, Negative: 1, Mixed: 1, Neutral: 1}
	if got != want {
		t.Errorf("Summarize = %+v, want %+v", got, want)
	}
}
