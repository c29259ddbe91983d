// Package transcribe extracts the audio track of a video and turns it into text.
package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/andresmejia3/interviewlens/internal/types"
	"github.com/andresmejia3/interviewlens/internal/utils"
)

// Engine is a speech-to-text back end.
type Engine interface {
	Name() string
	// Available reports a missing binary, key or model before any work is done.
	Available() error
	Transcribe(ctx context.Context, wavPath, language string) (types.TranscriptionResult, error)
}

// Extractor writes the audio track of a video as 16 kHz mono WAV.
type Extractor interface {
	Available() error
	Extract(ctx context.Context, videoPath, wavPath string) error
}

// ErrNoAudioStream is returned by an Extractor when the input has nothing to extract.
var ErrNoAudioStream = errors.New("input has no audio stream")

type FFmpegExtractor struct{}

func (FFmpegExtractor) Available() error { return utils.RequireBinary("ffmpeg") }

func (FFmpegExtractor) Extract(ctx context.Context, videoPath, wavPath string) error {
	cmd := utils.NewAudioExtractCmd(ctx, videoPath, wavPath)
	if err := cmd.Run(); err != nil {
		logs := cmd.Logs()
		if strings.Contains(logs, "does not contain any stream") || strings.Contains(logs, "matches no streams") {
			return ErrNoAudioStream
		}
		return errors.Wrapf(err, "ffmpeg audio extraction: %s", logs)
	}
	return nil
}

type Service struct {
	engine    Engine
	extractor Extractor
	language  string
	log       logrus.FieldLogger
}

// NewService builds a transcriber. language is an optional hint passed to the engine.
func NewService(engine Engine, extractor Extractor, language string, log logrus.FieldLogger) *Service {
	return &Service{engine: engine, extractor: extractor, language: language, log: log}
}

// Transcribe returns NoAudioTrackError for assets without an audio stream and
// TranscriptionUnavailableError when the extractor or engine is missing. A silent track
// yields an empty transcript, not an error.
func (s *Service) Transcribe(ctx context.Context, asset types.VideoAsset) (types.TranscriptionResult, error) {
	if !asset.HasAudio {
		return types.TranscriptionResult{}, &types.NoAudioTrackError{Path: asset.Path}
	}
	if err := s.extractor.Available(); err != nil {
		return types.TranscriptionResult{}, &types.TranscriptionUnavailableError{Reason: "audio extraction", Err: err}
	}
	if err := s.engine.Available(); err != nil {
		return types.TranscriptionResult{}, &types.TranscriptionUnavailableError{Reason: s.engine.Name() + " engine", Err: err}
	}

	dir, err := os.MkdirTemp("", "interviewlens-audio-*")
	if err != nil {
		return types.TranscriptionResult{}, errors.Wrap(err, "temp dir")
	}
	defer os.RemoveAll(dir)

	log := s.log.WithFields(logrus.Fields{"stage": "transcribe", "engine": s.engine.Name()})

	wav := filepath.Join(dir, "audio.wav")
	if err := s.extractor.Extract(ctx, asset.Path, wav); err != nil {
		if errors.Is(err, ErrNoAudioStream) {
			return types.TranscriptionResult{}, &types.NoAudioTrackError{Path: asset.Path}
		}
		return types.TranscriptionResult{}, err
	}
	log.Debug("audio extracted")

	res, err := s.engine.Transcribe(ctx, wav, s.language)
	if err != nil {
		return types.TranscriptionResult{}, errors.Wrapf(err, "%s transcription", s.engine.Name())
	}
	res = Normalize(res)
	log.WithFields(logrus.Fields{"language": res.Language, "segments": len(res.Segments)}).Info("transcription finished")
	return res, nil
}

// Normalize trims text, defaults the language to "unknown" and drops empty segments.
func Normalize(r types.TranscriptionResult) types.TranscriptionResult {
	out := types.TranscriptionResult{
		Text:     strings.TrimSpace(r.Text),
		Language: strings.TrimSpace(r.Language),
		Segments: make([]types.Segment, 0, len(r.Segments)),
	}
	if out.Language == "" {
		out.Language = "unknown"
	}
	for _, seg := range r.Segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		out.Segments = append(out.Segments, seg)
	}
	return out
}
