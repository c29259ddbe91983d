package types

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"
)

// VideoAsset describes an opened video source. It is immutable once probed.
type VideoAsset struct {
	ID         string
	Path       string
	FrameCount int // 0 when the container does not report it
	FPS        float64
	Duration   float64 // seconds
	Width      int
	Height     int
	HasAudio   bool
}

// FrameSample is one sampled frame, still JPEG encoded as it came off the decoder pipe.
type FrameSample struct {
	Index int
	Data  []byte
}

// Name returns the frame identifier used in reports and annotated file names.
func (f FrameSample) Name() string { return FrameName(f.Index) }

// Decode turns the JPEG payload into pixels.
func (f FrameSample) Decode() (image.Image, error) {
	return jpeg.Decode(bytes.NewReader(f.Data))
}

func FrameName(index int) string { return fmt.Sprintf("frame%d", index) }

// FaceBox is a face bounding box in pixel coordinates of its frame.
type FaceBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (b FaceBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Within clips the box to bounds. The result may be empty.
func (b FaceBox) Within(bounds image.Rectangle) FaceBox {
	r := b.Rect().Intersect(bounds)
	if r.Empty() {
		return FaceBox{}
	}
	return FaceBox{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

func (b FaceBox) Empty() bool { return b.W <= 0 || b.H <= 0 }

// FacialScores are the four facial parameters, each in [0,1].
type FacialScores struct {
	Confidence       float64 `json:"confidence"`
	Authenticity     float64 `json:"authenticity"`
	Leadership       float64 `json:"leadership"`
	PressureHandling float64 `json:"pressure_handling"`
}

func (s FacialScores) Values() [4]float64 {
	return [4]float64{s.Confidence, s.Authenticity, s.Leadership, s.PressureHandling}
}

func FacialScoresFrom(v [4]float64) FacialScores {
	return FacialScores{Confidence: v[0], Authenticity: v[1], Leadership: v[2], PressureHandling: v[3]}
}

func (s FacialScores) Clamp() FacialScores {
	v := s.Values()
	for i := range v {
		v[i] = Clamp01(v[i])
	}
	return FacialScoresFrom(v)
}

func (s FacialScores) Mean() float64 {
	v := s.Values()
	return (v[0] + v[1] + v[2] + v[3]) / 4
}

// FaceResult pairs a detected face with its scores.
type FaceResult struct {
	Box    FaceBox      `json:"box"`
	Scores FacialScores `json:"scores"`
}

// FrameResult is everything the facial branch learned about one sampled frame.
type FrameResult struct {
	Index int
	Boxes []FaceBox
	Faces []FaceResult
	// DetectorErr is set when the face locator failed; Boxes is then empty.
	DetectorErr error
	// ScoreErrs counts faces that were located but could not be scored.
	ScoreErrs int
}

// Segment is a time aligned piece of transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is produced once per job.
type TranscriptionResult struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"
)

type Sentiment struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// TextScores are the five text parameters, each in [0,1].
type TextScores struct {
	CommunicationClarity float64 `json:"communication_clarity"`
	Confidence           float64 `json:"confidence"`
	Enthusiasm           float64 `json:"enthusiasm"`
	Professionalism      float64 `json:"professionalism"`
	Engagement           float64 `json:"engagement"`
}

func (s TextScores) Values() [5]float64 {
	return [5]float64{s.CommunicationClarity, s.Confidence, s.Enthusiasm, s.Professionalism, s.Engagement}
}

func (s TextScores) Mean() float64 {
	var sum float64
	for _, v := range s.Values() {
		sum += v
	}
	return sum / 5
}

// PolarityResult is the output of the polarity/subjectivity engine.
type PolarityResult struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
	Label        string  `json:"label"`
	Confidence   float64 `json:"confidence"`
}

// CompoundResult is the output of the compound-score engine.
type CompoundResult struct {
	Compound   float64 `json:"compound"`
	Positive   float64 `json:"positive"`
	Neutral    float64 `json:"neutral"`
	Negative   float64 `json:"negative"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type SentimentDetails struct {
	Polarity PolarityResult `json:"polarity_engine"`
	Compound CompoundResult `json:"compound_engine"`
}

// TextEvaluation is what the text evaluator returns for one transcript.
type TextEvaluation struct {
	Scores           TextScores       `json:"scores"`
	OverallSentiment Sentiment        `json:"overall_sentiment"`
	Details          SentimentDetails `json:"sentiment_details"`
	WordCount        int              `json:"word_count"`
	TextLength       int              `json:"text_length"`
}

// Warning is a degradation notice. Code is stable and machine readable.
type Warning struct {
	Code    string
	Message string
}

func (w Warning) String() string { return w.Code + ": " + w.Message }

func NewWarning(code, format string, args ...any) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Clamp01 bounds v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
