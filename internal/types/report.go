package types

// FrameAnalysis lists the scored faces of one frame in the facial summary.
type FrameAnalysis struct {
	Frame string       `json:"frame"`
	Faces []FaceResult `json:"faces"`
}

// FacialSummary aggregates facial scores over every face of every sampled frame.
type FacialSummary struct {
	Scores         FacialScores    `json:"scores"`
	OverallScore   float64         `json:"overall_score"`
	FrameCount     int             `json:"frame_count"`
	FramesAnalyzed int             `json:"frames_analyzed"`
	FaceCount      int             `json:"face_count"`
	Scorer         string          `json:"scorer"`
	FrameAnalyses  []FrameAnalysis `json:"frame_analyses"`
	// Partial is set when the branch timed out and only the finished frames were aggregated.
	Partial bool `json:"partial"`
}

// TextSummary is the text evaluation with its own overall score.
type TextSummary struct {
	TextEvaluation
	OverallScore float64 `json:"overall_score"`
}

// State names which evaluators produced usable data.
type State string

const (
	StateNoAnalysis State = "no_analysis"
	StateFacialOnly State = "facial_only"
	StateTextOnly   State = "text_only"
	StateBoth       State = "both"
)

// Analysis is a closed union: NoAnalysis, FacialOnly, TextOnly or Both.
type Analysis interface {
	State() State
	sealed()
}

type NoAnalysis struct{}

type FacialOnly struct {
	Facial *FacialSummary
}

type TextOnly struct {
	Text *TextSummary
}

type Both struct {
	Facial *FacialSummary
	Text   *TextSummary
}

func (NoAnalysis) State() State { return StateNoAnalysis }
func (FacialOnly) State() State { return StateFacialOnly }
func (TextOnly) State() State   { return StateTextOnly }
func (Both) State() State       { return StateBoth }

func (NoAnalysis) sealed() {}
func (FacialOnly) sealed() {}
func (TextOnly) sealed()   {}
func (Both) sealed()       {}

// Source values name the summary that is authoritative for display.
const (
	SourceFacial = "facial"
	SourceText   = "text"
	SourceNone   = "none"
)

// EvaluationReport is the terminal artifact of a job.
type EvaluationReport struct {
	JobID         string
	VideoPath     string
	Step          int
	Analysis      Analysis
	Source        string
	FrameAnalysis map[string][]FaceBox
	Transcription *TranscriptionResult
	Warnings      []Warning
}
