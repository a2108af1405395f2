package takeaway

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/evcraddock/safety-report/internal/signal"
)

const (
	minWords         = 3
	maxBulletRunes   = 240
	nearDupThreshold = 0.8
)

// Synthesize builds a takeaway from classified snippets. It is pure: the
// same inputs always produce the same lists.
func Synthesize(key string, snippets []signal.ClassifiedSnippet, now time.Time, ttl time.Duration) Takeaway {
	var pos, neg []string
	for _, s := range snippets {
		if !s.Relevant {
			continue
		}
		switch s.Sentiment {
		case signal.Positive:
			pos = append(pos, s.Text)
		case signal.Negative:
			neg = append(neg, s.Text)
		}
	}

	return Takeaway{
		SubjectKey: key,
		Positive:   bullets(pos, PositiveMarker),
		Negative:   bullets(neg, NegativeMarker),
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

// bullets picks up to MaxBullets sentences. Sentences naming a safety term
// come first; a snippet with no such sentence contributes its other
// sentences after them.
func bullets(texts []string, marker string) []string {
	var preferred, fallback []string
	for _, text := range texts {
		var withVocab, rest []string
		for _, s := range splitSentences(text) {
			s = stripMarkers(s)
			if !complete(s) {
				continue
			}
			if signal.HasSafetyVocabulary(s) {
				withVocab = append(withVocab, s)
			} else {
				rest = append(rest, s)
			}
		}
		if len(withVocab) > 0 {
			preferred = append(preferred, withVocab...)
		} else {
			fallback = append(fallback, rest...)
		}
	}

	out := make([]string, 0, MaxBullets)
	var kept [][]string
	for _, s := range append(preferred, fallback...) {
		if len(out) == MaxBullets {
			break
		}
		tokens := tokenize(s)
		if duplicate(tokens, kept) {
			continue
		}
		kept = append(kept, tokens)
		out = append(out, marker+" "+s)
	}
	return out
}

// splitSentences cuts text after runs of terminal punctuation followed by
// whitespace or the end of text. Punctuation stays with its sentence.
func splitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		j := i
		for j+1 < len(runes) && isTerminal(runes[j+1]) {
			j++
		}
		if j+1 == len(runes) || unicode.IsSpace(runes[j+1]) {
			if s := strings.TrimSpace(string(runes[start : j+1])); s != "" {
				out = append(out, s)
			}
			start = j + 1
		}
		i = j
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func stripMarkers(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("✓⚠•*-–>", r)
	})
}

// complete reports whether s reads as a whole sentence.
func complete(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > maxBulletRunes {
		return false
	}
	if strings.HasSuffix(s, "...") || strings.HasSuffix(s, "…") {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(s)
	if last != '.' && last != '!' && last != '?' {
		return false
	}
	return len(tokenize(s)) >= minWords
}

// tokenize lower-cases s and returns its words, ignoring punctuation.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func duplicate(tokens []string, kept [][]string) bool {
	for _, k := range kept {
		if strings.Join(tokens, " ") == strings.Join(k, " ") || jaccard(tokens, k) >= nearDupThreshold {
			return true
		}
	}
	return false
}

func jaccard(a, b []string) float64 {
	set := make(map[string]int, len(a)+len(b))
	for _, t := range a {
		set[t] |= 1
	}
	for _, t := range b {
		set[t] |= 2
	}
	if len(set) == 0 {
		return 1
	}
	both := 0
	for _, v := range set {
		if v == 3 {
			both++
		}
	}
	return float64(both) / float64(len(set))
}
