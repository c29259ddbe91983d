// Package aggregate joins the facial and text branches of a job into an EvaluationReport.
//
// The aggregator never averages facial and text scores together. Each summary keeps its
// own parameters and its own overall score; Source only says which one to show first.
// Branch failures become warnings in the report. Aggregate is a pure function of its
// inputs, so the same branch outputs always give the same report.
package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/andresmejia3/interviewlens/internal/types"
)

// Warning codes. They are stable and machine readable.
const (
	CodeNoFramesSampled          = "no_frames_sampled"
	CodeNoFaces                  = "no_faces"
	CodeDetectorFailed           = "detector_failed"
	CodeScorerFallback           = "scorer_fallback"
	CodeFaceScoreFailed          = "face_score_failed"
	CodeDecoderTruncated         = "decoder_truncated"
	CodeFacialTimeout            = "facial_timeout"
	CodeFacialFailed             = "facial_failed"
	CodeNoAudioTrack             = "no_audio_track"
	CodeTranscriptionUnavailable = "transcription_unavailable"
	CodeTranscriptionDisabled    = "transcription_disabled"
	CodeTranscriptionFailed      = "transcription_failed"
	CodeTextTimeout              = "text_timeout"
	CodeNoAnalysis               = "no_analysis"
)

// FacialBranch is what the visual branch produced, complete or not.
type FacialBranch struct {
	// Frames holds one result per sampled frame that finished, in any order.
	Frames []types.FrameResult
	Scorer string
	// ScorerErr explains why the fallback scorer was selected.
	ScorerErr error
	// SampleErr is the sampler's terminal error, e.g. an early termination.
	SampleErr error
	// Err marks the whole branch as failed, e.g. with a TimeoutError.
	Err error
}

// TextBranch is what the audio branch produced.
type TextBranch struct {
	Disabled      bool
	Transcription *types.TranscriptionResult
	Evaluation    *types.TextEvaluation
	Err           error
}

type Options struct {
	// Precedence is the summary shown first when both exist: types.SourceFacial or types.SourceText.
	Precedence string
}

// Job identifies the job a report belongs to.
type Job struct {
	ID        string
	VideoPath string
	Step      int
}

func Aggregate(job Job, facial FacialBranch, text TextBranch, opts Options) types.EvaluationReport {
	report := types.EvaluationReport{
		JobID:         job.ID,
		VideoPath:     job.VideoPath,
		Step:          job.Step,
		FrameAnalysis: make(map[string][]types.FaceBox),
	}

	frames := sortedFrames(facial.Frames)
	for _, f := range frames {
		boxes := f.Boxes
		if boxes == nil {
			boxes = []types.FaceBox{}
		}
		report.FrameAnalysis[types.FrameName(f.Index)] = boxes
	}

	fs, facialWarnings := summarizeFacial(frames, facial)
	ts, textWarnings := summarizeText(text)
	report.Warnings = append(facialWarnings, textWarnings...)
	report.Transcription = text.Transcription

	switch {
	case fs != nil && ts != nil:
		report.Analysis = types.Both{Facial: fs, Text: ts}
		report.Source = types.SourceFacial
		if opts.Precedence == types.SourceText {
			report.Source = types.SourceText
		}
	case fs != nil:
		report.Analysis = types.FacialOnly{Facial: fs}
		report.Source = types.SourceFacial
	case ts != nil:
		report.Analysis = types.TextOnly{Text: ts}
		report.Source = types.SourceText
	default:
		report.Analysis = types.NoAnalysis{}
		report.Source = types.SourceNone
		report.Warnings = append(report.Warnings,
			types.NewWarning(CodeNoAnalysis, "neither facial nor text analysis produced usable data"))
	}
	return report
}

func sortedFrames(in []types.FrameResult) []types.FrameResult {
	out := make([]types.FrameResult, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func summarizeFacial(frames []types.FrameResult, b FacialBranch) (*types.FacialSummary, []types.Warning) {
	var warnings []types.Warning

	if b.ScorerErr != nil {
		warnings = append(warnings, types.NewWarning(CodeScorerFallback,
			"facial model unavailable, scores use the fallback heuristics (%v)", b.ScorerErr))
	}

	var early *types.EarlyTerminationError
	if errors.As(b.SampleErr, &early) {
		warnings = append(warnings, types.NewWarning(CodeDecoderTruncated, "%v", early))
	}

	var timeout *types.TimeoutError
	partial := errors.As(b.Err, &timeout)
	if partial {
		warnings = append(warnings, types.NewWarning(CodeFacialTimeout,
			"%v; facial summary covers the %d sampled frames that finished", timeout, len(frames)))
	} else if b.Err != nil {
		warnings = append(warnings, types.NewWarning(CodeFacialFailed, "facial analysis failed: %v", b.Err))
		return nil, warnings
	}

	var (
		sums          [4]float64
		faceCount     int
		failedFrames  int
		firstDetErr   error
		scoreFailures int
		analyses      []types.FrameAnalysis
	)
	for _, f := range frames {
		if f.DetectorErr != nil {
			failedFrames++
			if firstDetErr == nil {
				firstDetErr = f.DetectorErr
			}
		}
		scoreFailures += f.ScoreErrs
		if len(f.Faces) == 0 {
			continue
		}
		for _, face := range f.Faces {
			v := face.Scores.Values()
			for i := range sums {
				sums[i] += v[i]
			}
			faceCount++
		}
		analyses = append(analyses, types.FrameAnalysis{Frame: types.FrameName(f.Index), Faces: f.Faces})
	}

	if failedFrames > 0 {
		warnings = append(warnings, types.NewWarning(CodeDetectorFailed,
			"face detector failed on %d of %d sampled frames (%v)", failedFrames, len(frames), firstDetErr))
	}
	if scoreFailures > 0 {
		warnings = append(warnings, types.NewWarning(CodeFaceScoreFailed,
			"%d detected faces could not be scored", scoreFailures))
	}

	switch {
	case len(frames) == 0 && partial:
		return nil, warnings
	case len(frames) == 0:
		warnings = append(warnings, types.NewWarning(CodeNoFramesSampled,
			"no frames were sampled from the video"))
		return nil, warnings
	case faceCount == 0:
		if failedFrames < len(frames) {
			warnings = append(warnings, types.NewWarning(CodeNoFaces, "%v", types.ErrNoFaces))
		}
		return nil, warnings
	}

	var means [4]float64
	for i := range sums {
		means[i] = types.Round(types.Clamp01(sums[i]/float64(faceCount)), 3)
	}
	scores := types.FacialScoresFrom(means)

	return &types.FacialSummary{
		Scores:         scores,
		OverallScore:   types.Round(scores.Mean(), 3),
		FrameCount:     len(analyses),
		FramesAnalyzed: len(frames),
		FaceCount:      faceCount,
		Scorer:         b.Scorer,
		FrameAnalyses:  analyses,
		Partial:        partial,
	}, warnings
}

func summarizeText(b TextBranch) (*types.TextSummary, []types.Warning) {
	if b.Disabled {
		return nil, []types.Warning{types.NewWarning(CodeTranscriptionDisabled, "transcription was disabled for this job")}
	}

	if b.Err != nil {
		var (
			noAudio     *types.NoAudioTrackError
			unavailable *types.TranscriptionUnavailableError
			timeout     *types.TimeoutError
		)
		code := CodeTranscriptionFailed
		switch {
		case errors.As(b.Err, &noAudio):
			code = CodeNoAudioTrack
		case errors.As(b.Err, &unavailable):
			code = CodeTranscriptionUnavailable
		case errors.As(b.Err, &timeout):
			code = CodeTextTimeout
		}
		return nil, []types.Warning{types.NewWarning(code, "%v", b.Err)}
	}

	if b.Transcription == nil || b.Evaluation == nil {
		return nil, []types.Warning{types.NewWarning(CodeTranscriptionFailed, "%s", "text branch produced no result")}
	}

	return &types.TextSummary{
		TextEvaluation: *b.Evaluation,
		OverallScore:   types.Round(b.Evaluation.Scores.Mean(), 2),
	}, nil
}

// Facial returns the facial summary of an analysis, if any.
func Facial(a types.Analysis) *types.FacialSummary {
	switch v := a.(type) {
	case types.FacialOnly:
		return v.Facial
	case types.Both:
		return v.Facial
	case types.TextOnly, types.NoAnalysis:
		return nil
	default:
		panic(fmt.Sprintf("aggregate: unknown analysis %T", a))
	}
}

// Text returns the text summary of an analysis, if any.
func Text(a types.Analysis) *types.TextSummary {
	switch v := a.(type) {
	case types.TextOnly:
		return v.Text
	case types.Both:
		return v.Text
	case types.FacialOnly, types.NoAnalysis:
		return nil
	default:
		panic(fmt.Sprintf("aggregate: unknown analysis %T", a))
	}
}
