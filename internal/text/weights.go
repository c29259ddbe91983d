package text

import (
	"fmt"
	"math"
)

// Weights is the single configuration point for every constant of the text evaluator.
// Each parameter group must sum to at most 1 so that its score stays in [0,1].
type Weights struct {
	Clarity         ClarityWeights         `yaml:"clarity"`
	Confidence      ConfidenceWeights      `yaml:"confidence"`
	Enthusiasm      EnthusiasmWeights      `yaml:"enthusiasm"`
	Professionalism ProfessionalismWeights `yaml:"professionalism"`
	Engagement      EngagementWeights      `yaml:"engagement"`

	// KeywordSaturation is the keyword count at which a keyword signal reaches 1.
	KeywordSaturation float64 `yaml:"keyword_saturation"`
	// IdealSentenceWords is the average sentence length that scores 1 for clarity.
	IdealSentenceWords float64 `yaml:"ideal_sentence_words"`
	// EngagementWords is the word count at which the length signal of engagement saturates.
	EngagementWords float64 `yaml:"engagement_words"`

	PolarityThreshold   float64 `yaml:"polarity_threshold"`
	CompoundThreshold   float64 `yaml:"compound_threshold"`
	DisagreementPenalty float64 `yaml:"disagreement_penalty"`
}

type ClarityWeights struct {
	Length      float64 `yaml:"length"`
	Diversity   float64 `yaml:"diversity"`
	Objectivity float64 `yaml:"objectivity"`
}

type ConfidenceWeights struct {
	Keywords float64 `yaml:"keywords"`
	Polarity float64 `yaml:"polarity"`
	Compound float64 `yaml:"compound"`
}

type EnthusiasmWeights struct {
	Keywords float64 `yaml:"keywords"`
	Polarity float64 `yaml:"polarity"`
	Positive float64 `yaml:"positive"`
}

type ProfessionalismWeights struct {
	Keywords    float64 `yaml:"keywords"`
	Objectivity float64 `yaml:"objectivity"`
	Balance     float64 `yaml:"balance"`
}

type EngagementWeights struct {
	Length    float64 `yaml:"length"`
	Sentiment float64 `yaml:"sentiment"`
	Diversity float64 `yaml:"diversity"`
}

func DefaultWeights() Weights {
	return Weights{
		Clarity:             ClarityWeights{Length: 0.3, Diversity: 0.4, Objectivity: 0.3},
		Confidence:          ConfidenceWeights{Keywords: 0.3, Polarity: 0.35, Compound: 0.35},
		Enthusiasm:          EnthusiasmWeights{Keywords: 0.3, Polarity: 0.4, Positive: 0.3},
		Professionalism:     ProfessionalismWeights{Keywords: 0.4, Objectivity: 0.4, Balance: 0.2},
		Engagement:          EngagementWeights{Length: 0.3, Sentiment: 0.4, Diversity: 0.3},
		KeywordSaturation:   5,
		IdealSentenceWords:  17.5,
		EngagementWords:     200,
		PolarityThreshold:   0.1,
		CompoundThreshold:   0.05,
		DisagreementPenalty: 0.5,
	}
}

const weightTolerance = 1e-9

// Validate rejects weights that could push a score outside [0,1].
func (w Weights) Validate() error {
	groups := []struct {
		name string
		vals []float64
	}{
		{"clarity", []float64{w.Clarity.Length, w.Clarity.Diversity, w.Clarity.Objectivity}},
		{"confidence", []float64{w.Confidence.Keywords, w.Confidence.Polarity, w.Confidence.Compound}},
		{"enthusiasm", []float64{w.Enthusiasm.Keywords, w.Enthusiasm.Polarity, w.Enthusiasm.Positive}},
		{"professionalism", []float64{w.Professionalism.Keywords, w.Professionalism.Objectivity, w.Professionalism.Balance}},
		{"engagement", []float64{w.Engagement.Length, w.Engagement.Sentiment, w.Engagement.Diversity}},
	}
	for _, g := range groups {
		var sum float64
		for _, v := range g.vals {
			if v < 0 || math.IsNaN(v) {
				return fmt.Errorf("%s weights must be non-negative", g.name)
			}
			sum += v
		}
		if sum > 1+weightTolerance {
			return fmt.Errorf("%s weights sum to %.3f, must be <= 1", g.name, sum)
		}
	}
	if w.KeywordSaturation <= 0 {
		return fmt.Errorf("keyword_saturation must be > 0")
	}
	if w.IdealSentenceWords <= 0 {
		return fmt.Errorf("ideal_sentence_words must be > 0")
	}
	if w.EngagementWords <= 0 {
		return fmt.Errorf("engagement_words must be > 0")
	}
	if w.PolarityThreshold < 0 || w.PolarityThreshold >= 1 {
		return fmt.Errorf("polarity_threshold must be in [0,1)")
	}
	if w.CompoundThreshold < 0 || w.CompoundThreshold >= 1 {
		return fmt.Errorf("compound_threshold must be in [0,1)")
	}
	if w.DisagreementPenalty < 0 || w.DisagreementPenalty > 1 {
		return fmt.Errorf("disagreement_penalty must be in [0,1]")
	}
	return nil
}
