package text

import (
	"math"
	"strings"
	"unicode"

	"github.com/jonreiter/govader"

	"github.com/andresmejia3/interviewlens/internal/types"
)

// PolarityScorer returns polarity in [-1,1] and subjectivity in [0,1].
type PolarityScorer interface {
	Polarity(text string) (polarity, subjectivity float64)
}

// CompoundScorer returns a normalised compound score in [-1,1] plus the proportions
// of positive, neutral and negative tokens.
type CompoundScorer interface {
	Compound(text string) CompoundScores
}

type CompoundScores struct {
	Compound float64
	Positive float64
	Neutral  float64
	Negative float64
}

// LexiconPolarity averages the assessments of the words it knows. Intensifiers scale the
// word that follows them and a negation within three words flips and halves it.
type LexiconPolarity struct{}

func (LexiconPolarity) Polarity(text string) (float64, float64) {
	words := tokenize(text)
	var sumP, sumS float64
	n := 0
	for i, w := range words {
		lw := strings.ToLower(w)
		if _, ok := intensifiers[lw]; ok {
			continue
		}
		a, ok := assessments[lw]
		if !ok {
			continue
		}
		p, s := a.polarity, a.subjectivity
		if i > 0 {
			if m, ok := intensifiers[strings.ToLower(words[i-1])]; ok {
				p = clamp(p*m, -1, 1)
				s = clamp(s*m, 0, 1)
			}
		}
		if negatedBefore(words, i) {
			p *= -0.5
		}
		sumP += p
		sumS += s
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return clamp(sumP/float64(n), -1, 1), clamp(sumS/float64(n), 0, 1)
}

// VaderCompound scores text with the VADER rule set and lexicon.
type VaderCompound struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderCompound() *VaderCompound {
	return &VaderCompound{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderCompound) Compound(text string) CompoundScores {
	if strings.TrimSpace(text) == "" {
		return CompoundScores{}
	}
	s := v.analyzer.PolarityScores(text)
	return CompoundScores{
		Compound: clamp(s.Compound, -1, 1),
		Positive: clamp(s.Positive, 0, 1),
		Neutral:  clamp(s.Neutral, 0, 1),
		Negative: clamp(s.Negative, 0, 1),
	}
}

// tokenize splits on whitespace and trims surrounding punctuation, keeping inner apostrophes.
func tokenize(text string) []string {
	fields := strings.Fields(text)
	words := fields[:0]
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func negatedBefore(words []string, i int) bool {
	for back := 1; back <= 3 && i-back >= 0; back++ {
		prev := strings.ToLower(words[i-back])
		if negations[prev] || strings.HasSuffix(prev, "n't") {
			return true
		}
	}
	return false
}

func polarityLabel(p, threshold float64) string {
	switch {
	case p > threshold:
		return types.LabelPositive
	case p < -threshold:
		return types.LabelNegative
	}
	return types.LabelNeutral
}

func compoundLabel(c, threshold float64) string {
	switch {
	case c >= threshold:
		return types.LabelPositive
	case c <= -threshold:
		return types.LabelNegative
	}
	return types.LabelNeutral
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
