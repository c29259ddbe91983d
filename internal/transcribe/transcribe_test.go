package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/andresmejia3/interviewlens/internal/logging"
	"github.com/andresmejia3/interviewlens/internal/types"
)

type fakeEngine struct {
	unavailable error
	result      types.TranscriptionResult
	err         error
	gotLanguage string
	calls       int
}

func (f *fakeEngine) Name() string     { return "fake" }
func (f *fakeEngine) Available() error { return f.unavailable }
func (f *fakeEngine) Transcribe(_ context.Context, wav, language string) (types.TranscriptionResult, error) {
	f.calls++
	f.gotLanguage = language
	if _, err := os.Stat(wav); err != nil {
		return types.TranscriptionResult{}, err
	}
	return f.result, f.err
}

type fakeExtractor struct {
	unavailable error
	err         error
}

func (f fakeExtractor) Available() error { return f.unavailable }
func (f fakeExtractor) Extract(_ context.Context, _, wav string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(wav, []byte("RIFF"), 0644)
}

func TestServiceTranscribe(t *testing.T) {
	withAudio := types.VideoAsset{Path: "interview.mp4", HasAudio: true}

	tests := []struct {
		name      string
		asset     types.VideoAsset
		engine    *fakeEngine
		extractor fakeExtractor
		wantKind  types.Kind
		wantErr   bool
		wantText  string
	}{
		{
			name:     "no audio track",
			asset:    types.VideoAsset{Path: "mute.mp4"},
			engine:   &fakeEngine{},
			wantErr:  true,
			wantKind: types.KindNoSignal,
		},
		{
			name:      "ffmpeg missing",
			asset:     withAudio,
			engine:    &fakeEngine{},
			extractor: fakeExtractor{unavailable: errors.New("ffmpeg not found")},
			wantErr:   true,
			wantKind:  types.KindDependencyUnavailable,
		},
		{
			name:     "engine missing",
			asset:    withAudio,
			engine:   &fakeEngine{unavailable: errors.New("whisper not found")},
			wantErr:  true,
			wantKind: types.KindDependencyUnavailable,
		},
		{
			name:      "extractor finds no stream",
			asset:     withAudio,
			engine:    &fakeEngine{},
			extractor: fakeExtractor{err: ErrNoAudioStream},
			wantErr:   true,
			wantKind:  types.KindNoSignal,
		},
		{
			name:     "engine failure",
			asset:    withAudio,
			engine:   &fakeEngine{err: errors.New("out of memory")},
			wantErr:  true,
			wantKind: types.KindPartialFailure,
		},
		{
			name:     "silent track is an empty transcript",
			asset:    withAudio,
			engine:   &fakeEngine{result: types.TranscriptionResult{Text: "  "}},
			wantText: "",
		},
		{
			name:     "speech",
			asset:    withAudio,
			engine:   &fakeEngine{result: types.TranscriptionResult{Text: " I led the team. ", Language: "en"}},
			wantText: "I led the team.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.engine, tt.extractor, "en", logging.Discard())
			res, err := s.Transcribe(context.Background(), tt.asset)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if k := types.KindOf(err); k != tt.wantKind {
					t.Errorf("kind = %s, want %s (%v)", k, tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transcribe failed: %v", err)
			}
			if res.Text != tt.wantText {
				t.Errorf("text = %q, want %q", res.Text, tt.wantText)
			}
			if tt.engine.gotLanguage != "en" {
				t.Errorf("language hint = %q, want en", tt.engine.gotLanguage)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize(types.TranscriptionResult{
		Text: "\n Hello. \n",
		Segments: []types.Segment{
			{Start: 0, End: 1, Text: " Hello. "},
			{Start: 1, End: 2, Text: "   "},
		},
	})
	if got.Text != "Hello." {
		t.Errorf("text = %q", got.Text)
	}
	if got.Language != "unknown" {
		t.Errorf("language = %q, want unknown", got.Language)
	}
	if len(got.Segments) != 1 || got.Segments[0].Text != "Hello." {
		t.Errorf("segments = %+v", got.Segments)
	}

	empty := Normalize(types.TranscriptionResult{})
	if empty.Segments == nil {
		t.Error("segments should be an empty list, not nil")
	}
}

func TestParseWhisperJSON(t *testing.T) {
	res, err := parseWhisperJSON([]byte(`{"text":" Hi.","language":"en","segments":[{"id":0,"start":0.0,"end":0.8,"text":" Hi."}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.Language != "en" || len(res.Segments) != 1 || res.Segments[0].End != 0.8 {
		t.Errorf("result = %+v", res)
	}
	if _, err := parseWhisperJSON([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

const fakeWhisper = `#!/bin/sh
in="$1"; shift
while [ $# -gt 0 ]; do
  case "$1" in
    --output_dir) dir="$2"; shift ;;
    --model) model="$2"; shift ;;
  esac
  shift
done
base=$(basename "$in")
name="${base%.*}"
printf '{"text":" Hello from %s. ","language":"en","segments":[{"start":0,"end":1.5,"text":" Hello."}]}' "$model" > "$dir/$name.json"
`

func TestWhisperCLI(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "whisper")
	if err := os.WriteFile(bin, []byte(fakeWhisper), 0755); err != nil {
		t.Fatal(err)
	}
	wav := filepath.Join(dir, "audio.wav")
	os.WriteFile(wav, []byte("RIFF"), 0644)

	w := WhisperCLI{Binary: bin}
	if err := w.Available(); err != nil {
		t.Fatalf("Available() = %v", err)
	}
	res, err := w.Transcribe(context.Background(), wav, "")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if res.Text != " Hello from base. " {
		t.Errorf("text = %q", res.Text)
	}
	if len(res.Segments) != 1 {
		t.Errorf("segments = %+v", res.Segments)
	}

	if err := (WhisperCLI{Binary: filepath.Join(dir, "missing")}).Available(); err == nil {
		t.Error("expected missing binary to be unavailable")
	}
}
