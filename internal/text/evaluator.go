// Package text derives the five text parameters from a transcript.
//
// Two independent sentiment engines run over the cleaned transcript: a polarity/subjectivity
// engine with its own word list and a compound-score engine backed by VADER. Their outputs
// are combined with lexical heuristics (sentence length, vocabulary diversity, keyword
// presence) using the weights in Weights.
//
// Overall sentiment: when both engines agree on the label, that label is used. When they
// disagree, the compound engine's label wins and the confidence (the mean of both engines'
// absolute scores) is multiplied by Weights.DisagreementPenalty.
package text

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/andresmejia3/interviewlens/internal/types"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

type Evaluator struct {
	weights  Weights
	polarity PolarityScorer
	compound CompoundScorer
}

type Option func(*Evaluator)

func WithPolarityScorer(p PolarityScorer) Option {
	return func(e *Evaluator) { e.polarity = p }
}

func WithCompoundScorer(c CompoundScorer) Option {
	return func(e *Evaluator) { e.compound = c }
}

func NewEvaluator(w Weights, opts ...Option) *Evaluator {
	e := &Evaluator{weights: w, polarity: LexiconPolarity{}, compound: NewVaderCompound()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Neutral is the evaluation of a transcript with no words.
func Neutral() types.TextEvaluation {
	return types.TextEvaluation{
		Scores: types.TextScores{
			CommunicationClarity: 0.5,
			Confidence:           0.5,
			Enthusiasm:           0.5,
			Professionalism:      0.5,
			Engagement:           0.5,
		},
		OverallSentiment: types.Sentiment{Label: types.LabelNeutral, Confidence: 0.0},
		Details: types.SentimentDetails{
			Polarity: types.PolarityResult{Label: types.LabelNeutral},
			Compound: types.CompoundResult{Label: types.LabelNeutral},
		},
	}
}

// Clean normalises unicode and collapses whitespace.
func Clean(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

func (e *Evaluator) Evaluate(transcript string) types.TextEvaluation {
	cleaned := Clean(transcript)
	if cleaned == "" {
		return Neutral()
	}
	w := e.weights

	pol, subj := e.polarity.Polarity(cleaned)
	pr := types.PolarityResult{
		Polarity:     types.Round(clamp(pol, -1, 1), 3),
		Subjectivity: types.Round(clamp(subj, 0, 1), 3),
	}
	pr.Label = polarityLabel(pr.Polarity, w.PolarityThreshold)
	pr.Confidence = math.Abs(pr.Polarity)

	cs := e.compound.Compound(cleaned)
	cr := types.CompoundResult{
		Compound: types.Round(clamp(cs.Compound, -1, 1), 3),
		Positive: types.Round(clamp(cs.Positive, 0, 1), 3),
		Neutral:  types.Round(clamp(cs.Neutral, 0, 1), 3),
		Negative: types.Round(clamp(cs.Negative, 0, 1), 3),
	}
	cr.Label = compoundLabel(cr.Compound, w.CompoundThreshold)
	cr.Confidence = math.Abs(cr.Compound)

	overall := FuseSentiment(pr, cr, w.DisagreementPenalty)

	lower := strings.ToLower(cleaned)
	words := strings.Fields(lower)
	diversity := vocabularyDiversity(words)

	scores := types.TextScores{
		CommunicationClarity: e.clarity(cleaned, diversity, pr.Subjectivity),
		Confidence: score(
			w.Confidence.Keywords*keywordScore(lower, confidenceKeywords, w.KeywordSaturation) +
				w.Confidence.Polarity*(pr.Polarity+1)/2 +
				w.Confidence.Compound*(cr.Compound+1)/2),
		Enthusiasm: score(
			w.Enthusiasm.Keywords*keywordScore(lower, enthusiasmKeywords, w.KeywordSaturation) +
				w.Enthusiasm.Polarity*math.Max(0, pr.Polarity) +
				w.Enthusiasm.Positive*cr.Positive),
		Professionalism: score(
			w.Professionalism.Keywords*keywordScore(lower, professionalKeywords, w.KeywordSaturation) +
				w.Professionalism.Objectivity*(1-pr.Subjectivity) +
				w.Professionalism.Balance*(1-math.Min(math.Abs(pr.Polarity), 0.5)*2)),
		Engagement: score(
			w.Engagement.Length*math.Min(float64(len(words))/w.EngagementWords, 1) +
				w.Engagement.Sentiment*overall.Confidence +
				w.Engagement.Diversity*diversity),
	}

	return types.TextEvaluation{
		Scores:           scores,
		OverallSentiment: overall,
		Details:          types.SentimentDetails{Polarity: pr, Compound: cr},
		WordCount:        len(words),
		TextLength:       utf8.RuneCountInString(cleaned),
	}
}

// FuseSentiment picks the overall label. Agreement keeps the shared label; disagreement
// takes the compound engine's label with the confidence scaled by penalty.
func FuseSentiment(p types.PolarityResult, c types.CompoundResult, penalty float64) types.Sentiment {
	conf := (p.Confidence + c.Confidence) / 2
	if p.Label == c.Label {
		return types.Sentiment{Label: p.Label, Confidence: types.Round(types.Clamp01(conf), 3)}
	}
	return types.Sentiment{Label: c.Label, Confidence: types.Round(types.Clamp01(conf*penalty), 3)}
}

func (e *Evaluator) clarity(text string, diversity, subjectivity float64) float64 {
	var sentences []string
	for _, s := range sentenceSplit.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return 0.5
	}
	total := 0
	for _, s := range sentences {
		total += len(strings.Fields(s))
	}
	ideal := e.weights.IdealSentenceWords
	avg := float64(total) / float64(len(sentences))
	length := types.Clamp01(1 - math.Abs(avg-ideal)/ideal)

	c := e.weights.Clarity
	return score(c.Length*length + c.Diversity*diversity + c.Objectivity*(1-subjectivity))
}

func vocabularyDiversity(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

// keywordScore counts keywords that occur anywhere in text (substring match).
func keywordScore(lower string, keywords []string, saturation float64) float64 {
	n := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			n++
		}
	}
	return math.Min(float64(n)/saturation, 1)
}

func score(v float64) float64 {
	return types.Round(types.Clamp01(v), 2)
}
