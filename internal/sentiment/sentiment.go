// Package sentiment scores citizen feedback with a word list. Results are
// advisory and never block a feedback update.
package sentiment

import (
	"strings"
	"unicode"
)

const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// Score is the outcome of analysing one text. Label is empty for empty text.
type Score struct {
	Score       int      `json:"score"`
	Comparative float64  `json:"comparative"`
	Label       string   `json:"sentiment,omitempty"`
	Tokens      []string `json:"tokens"`
	Words       []string `json:"words"`
}

type Analyzer interface {
	Analyze(text string) Score
}

// Label maps a summed score to positive (> 1), negative (< -1) or neutral.
func Label(score int) string {
	switch {
	case score > 1:
		return LabelPositive
	case score < -1:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// Lexicon sums per-word weights. A negator directly before a scored word flips it.
type Lexicon struct {
	weights  map[string]int
	negators map[string]struct{}
}

func NewLexicon(weights map[string]int) *Lexicon {
	l := &Lexicon{weights: make(map[string]int, len(weights)), negators: map[string]struct{}{}}
	for w, v := range weights {
		l.weights[strings.ToLower(w)] = v
	}
	for _, n := range []string{"not", "no", "never", "dont", "don't", "isnt", "isn't", "wasnt", "wasn't", "didnt", "didn't"} {
		l.negators[n] = struct{}{}
	}
	return l
}

// NewDefaultLexicon uses the built-in feedback word list.
func NewDefaultLexicon() *Lexicon {
	return NewLexicon(defaultWeights)
}

func (l *Lexicon) Analyze(text string) Score {
	tokens := tokenize(text)
	out := Score{Tokens: tokens, Words: []string{}}
	if len(tokens) == 0 {
		return out
	}

	for i, tok := range tokens {
		w, ok := l.weights[tok]
		if !ok {
			continue
		}
		if i > 0 {
			if _, negated := l.negators[tokens[i-1]]; negated {
				w = -w
			}
		}
		out.Score += w
		out.Words = append(out.Words, tok)
	}
	out.Comparative = float64(out.Score) / float64(len(tokens))
	out.Label = Label(out.Score)
	return out
}

// Nop is used when sentiment analysis is disabled.
type Nop struct{}

func (Nop) Analyze(text string) Score {
	tokens := tokenize(text)
	out := Score{Tokens: tokens, Words: []string{}}
	if len(tokens) > 0 {
		out.Label = LabelNeutral
	}
	return out
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.Trim(f, "'"); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
