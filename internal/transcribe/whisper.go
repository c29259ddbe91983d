package transcribe

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/andresmejia3/interviewlens/internal/types"
	"github.com/andresmejia3/interviewlens/internal/utils"
)

// WhisperCLI runs the openai-whisper command line tool.
type WhisperCLI struct {
	Binary string
	Model  string
}

func (w WhisperCLI) Name() string { return "whisper" }

func (w WhisperCLI) Available() error { return utils.RequireBinary(w.binary()) }

func (w WhisperCLI) binary() string {
	if w.Binary == "" {
		return "whisper"
	}
	return w.Binary
}

func (w WhisperCLI) model() string {
	if w.Model == "" {
		return "base"
	}
	return w.Model
}

func (w WhisperCLI) Transcribe(ctx context.Context, wavPath, language string) (types.TranscriptionResult, error) {
	outDir := filepath.Dir(wavPath)
	args := []string{wavPath,
		"--model", w.model(),
		"--output_format", "json",
		"--output_dir", outDir,
		"--fp16", "False",
		"--verbose", "False",
	}
	if language != "" {
		args = append(args, "--language", language)
	}

	cmd := utils.NewSafeCommandContext(ctx, w.binary(), args...)
	if err := cmd.Run(); err != nil {
		return types.TranscriptionResult{}, errors.Wrap(err, cmd.Logs())
	}

	name := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath)) + ".json"
	data, err := os.ReadFile(filepath.Join(outDir, name))
	if err != nil {
		return types.TranscriptionResult{}, errors.Wrap(err, "whisper output")
	}
	return parseWhisperJSON(data)
}

type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func parseWhisperJSON(data []byte) (types.TranscriptionResult, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return types.TranscriptionResult{}, errors.Wrap(err, "decode whisper output")
	}
	res := types.TranscriptionResult{Text: out.Text, Language: out.Language}
	for _, s := range out.Segments {
		res.Segments = append(res.Segments, types.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return res, nil
}
