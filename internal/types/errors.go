package types

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the coarse error taxonomy of a job. Only KindInput aborts a job.
type Kind int

const (
	KindUnknown Kind = iota
	KindInput
	KindDependencyUnavailable
	KindNoSignal
	KindPartialFailure
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input_error"
	case KindDependencyUnavailable:
		return "dependency_unavailable"
	case KindNoSignal:
		return "no_signal"
	case KindPartialFailure:
		return "partial_failure"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidStep = errors.New("sampling step must be >= 1")
	ErrNoFaces     = errors.New("no faces detected in sampled frames")
)

// InputError is fatal for the job: bad parameters or an asset that cannot be opened.
type InputError struct {
	Op  string
	Err error
}

func (e *InputError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

// UnsupportedMediaError means the decoder could not open or decode the asset.
type UnsupportedMediaError struct {
	Path string
	Err  error
}

func (e *UnsupportedMediaError) Error() string {
	return fmt.Sprintf("unsupported media %q: %v", e.Path, e.Err)
}
func (e *UnsupportedMediaError) Unwrap() error { return e.Err }

// EarlyTerminationError reports a decoder that stopped before the expected number of samples.
type EarlyTerminationError struct {
	Expected int
	Got      int
	Err      error
}

func (e *EarlyTerminationError) Error() string {
	msg := fmt.Sprintf("decoder stopped early: sampled %d of %d expected frames", e.Got, e.Expected)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}
func (e *EarlyTerminationError) Unwrap() error { return e.Err }

// ModelUnavailableError means the facial model weights or runtime could not be loaded.
type ModelUnavailableError struct {
	Path string
	Err  error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("facial model %q unavailable: %v", e.Path, e.Err)
}
func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// TranscriptionUnavailableError means the speech engine or the audio extraction tool is missing.
type TranscriptionUnavailableError struct {
	Reason string
	Err    error
}

func (e *TranscriptionUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription unavailable: %s: %v", e.Reason, e.Err)
	}
	return "transcription unavailable: " + e.Reason
}
func (e *TranscriptionUnavailableError) Unwrap() error { return e.Err }

// NoAudioTrackError means the asset has no audio stream at all. Silence is not this error.
type NoAudioTrackError struct {
	Path string
}

func (e *NoAudioTrackError) Error() string { return fmt.Sprintf("%s has no audio track", e.Path) }

// TimeoutError marks a branch that did not finish before the job deadline.
type TimeoutError struct {
	Stage string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not finish within %s", e.Stage, e.After)
}

// KindOf classifies err. Unclassified failures count as partial failures since they only
// ever come out of one branch.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var (
		inputErr *InputError
		mediaErr *UnsupportedMediaError
		modelErr *ModelUnavailableError
		transErr *TranscriptionUnavailableError
		audioErr *NoAudioTrackError
		earlyErr *EarlyTerminationError
		timeErr  *TimeoutError
	)
	switch {
	case errors.As(err, &inputErr), errors.As(err, &mediaErr), errors.Is(err, ErrInvalidStep):
		return KindInput
	case errors.As(err, &modelErr), errors.As(err, &transErr):
		return KindDependencyUnavailable
	case errors.As(err, &audioErr), errors.Is(err, ErrNoFaces):
		return KindNoSignal
	case errors.As(err, &earlyErr), errors.As(err, &timeErr):
		return KindPartialFailure
	}
	return KindPartialFailure
}
