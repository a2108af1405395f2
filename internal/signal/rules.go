package signal

import (
	"fmt"
	"regexp"
)

// Effect is what a rule does when its pattern matches.
type Effect int

const (
	// RejectQuestion marks the snippet irrelevant because it asks rather
	// than asserts.
	RejectQuestion Effect = iota + 1
	// RejectOffTopic marks the snippet irrelevant because of an off-topic
	// intent such as relocating or buying.
	RejectOffTopic
	// AcceptSafety marks the snippet relevant.
	AcceptSafety
	// MarkPositive counts a safety-affirming phrase.
	MarkPositive
	// MarkNegative counts a safety-negating phrase.
	MarkNegative
)

func (e Effect) String() string {
	switch e {
	case RejectQuestion:
		return "reject_question"
	case RejectOffTopic:
		return "reject_off_topic"
	case AcceptSafety:
		return "accept_safety"
	case MarkPositive:
		return "positive"
	case MarkNegative:
		return "negative"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// Rule pairs a pattern with its effect. Tables are evaluated in order.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Effect  Effect
}

const negation = `(?:never|not|no|didn[’']?t|did not|don[’']?t|do not|wasn[’']?t|was not|isn[’']?t|is not|hardly)`

var (
	// An interrogative only pairs with a question mark in the same sentence.
	interrogativePattern = regexp.MustCompile(`(?i)\b(?:how|what|where|when|why|is it|are there|has any\w*)\b[^?.!\n]*\?`)
	offTopicPattern      = regexp.MustCompile(`(?i)(moving to|relocat|buy(?:ing)? a (?:house|home|condo|place)|mortgage|for sale|looking to rent|apartment hunting)`)

	crimeVocabulary    = regexp.MustCompile(`(?i)(crime|criminal|theft|thief|stolen|steal|robbery|robbed|burglar|break-in|break into|broken into|broke into|mugg)`)
	violenceVocabulary = regexp.MustCompile(`(?i)(assault|violen|shooting|gunshot|stabbing|harass)`)
	fearVocabulary     = regexp.MustCompile(`(?i)(danger|sketchy|afraid|scared|unsafe)`)
	safetyVocabulary   = regexp.MustCompile(`(?i)(safe|safety|secure|police)`)

	negatedNegative = regexp.MustCompile(`(?i)\b` + negation + `(?:\s+\w+){0,2}\s+(?:unsafe|dangerous|sketchy|afraid|scared|worried|threatened|uneasy|nervous)\b`)
	absentCrime     = regexp.MustCompile(`(?i)\b(?:no|zero|never any|never had any|without any)\s+(?:crime|theft|break-ins?|incidents?|trouble|issues with safety)\b`)
	negatedPositive = regexp.MustCompile(`(?i)\b` + negation + `(?:\s+\w+){0,2}\s+(?:safe|secure|comfortable)\b`)
	positiveTerms   = regexp.MustCompile(`(?i)\b(?:safe|safely|secure|well[- ]lit|peaceful|protected|gated)\b`)
	negativeTerms   = regexp.MustCompile(`(?i)(unsafe|danger|sketchy|afraid|scared|crime|theft|stolen|robbed|robbery|burglar|break-in|break into|broken into|broke into|assault|violen|shooting|gunshot|harass|mugg|threaten)`)
)

// DefaultRelevanceRules returns the relevance gate: rejections first, then
// the safety vocabulary.
func DefaultRelevanceRules() []Rule {
	return []Rule{
		{Name: "interrogative", Pattern: interrogativePattern, Effect: RejectQuestion},
		{Name: "off_topic_intent", Pattern: offTopicPattern, Effect: RejectOffTopic},
		{Name: "vocab_crime", Pattern: crimeVocabulary, Effect: AcceptSafety},
		{Name: "vocab_violence", Pattern: violenceVocabulary, Effect: AcceptSafety},
		{Name: "vocab_fear", Pattern: fearVocabulary, Effect: AcceptSafety},
		{Name: "vocab_safety", Pattern: safetyVocabulary, Effect: AcceptSafety},
	}
}

// DefaultSentimentRules returns the polarity table. Negated phrases come
// before plain terms; a matched span is masked so it counts once.
func DefaultSentimentRules() []Rule {
	return []Rule{
		{Name: "negated_negative", Pattern: negatedNegative, Effect: MarkPositive},
		{Name: "absent_crime", Pattern: absentCrime, Effect: MarkPositive},
		{Name: "negated_positive", Pattern: negatedPositive, Effect: MarkNegative},
		{Name: "positive_terms", Pattern: positiveTerms, Effect: MarkPositive},
		{Name: "negative_terms", Pattern: negativeTerms, Effect: MarkNegative},
	}
}

// HasSafetyVocabulary reports whether text contains any term from the
// default safety vocabulary.
func HasSafetyVocabulary(text string) bool {
	for _, r := range DefaultRelevanceRules() {
		if r.Effect == AcceptSafety && r.Pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func validateRules(table string, rules []Rule, allowed ...Effect) error {
	for i, r := range rules {
		if r.Name == "" {
			return fmt.Errorf("%s rule %d: name is required", table, i)
		}
		if r.Pattern == nil {
			return fmt.Errorf("%s rule %q: pattern is required", table, r.Name)
		}
		ok := false
		for _, e := range allowed {
			if r.Effect == e {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%s rule %q: effect %s not allowed", table, r.Name, r.Effect)
		}
	}
	return nil
}
