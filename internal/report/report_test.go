package report

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresmejia3/interviewlens/internal/types"
)

func sampleReport(a types.Analysis) types.EvaluationReport {
	return types.EvaluationReport{
		JobID:     "job-1",
		VideoPath: "interview.mp4",
		Step:      30,
		Analysis:  a,
		Source:    types.SourceFacial,
		FrameAnalysis: map[string][]types.FaceBox{
			"frame0":  {{X: 1, Y: 2, W: 3, H: 4}},
			"frame30": {},
		},
		Warnings: []types.Warning{types.NewWarning("scorer_fallback", "model missing")},
	}
}

func TestRenderVariants(t *testing.T) {
	facial := &types.FacialSummary{OverallScore: 0.5, FrameCount: 1, FramesAnalyzed: 2}
	text := &types.TextSummary{OverallScore: 0.6}

	tests := []struct {
		analysis   types.Analysis
		wantFacial bool
		wantText   bool
	}{
		{analysis: types.NoAnalysis{}},
		{analysis: types.FacialOnly{Facial: facial}, wantFacial: true},
		{analysis: types.TextOnly{Text: text}, wantText: true},
		{analysis: types.Both{Facial: facial, Text: text}, wantFacial: true, wantText: true},
	}

	for _, tt := range tests {
		doc := Render(sampleReport(tt.analysis))
		if doc.State != tt.analysis.State() {
			t.Errorf("state = %s, want %s", doc.State, tt.analysis.State())
		}
		if (doc.FacialExpressionAnalysis != nil) != tt.wantFacial {
			t.Errorf("%s: facial present = %v", doc.State, doc.FacialExpressionAnalysis != nil)
		}
		if (doc.Evaluation != nil) != tt.wantText {
			t.Errorf("%s: evaluation present = %v", doc.State, doc.Evaluation != nil)
		}
	}
}

func TestMarshalWireFormat(t *testing.T) {
	data, err := Marshal(Render(sampleReport(types.NoAnalysis{})))
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"frame_analysis", "transcription", "evaluation", "facial_expression_analysis", "warnings", "source", "state"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if string(raw["evaluation"]) != "null" || string(raw["transcription"]) != "null" {
		t.Errorf("absent stages should be null: evaluation %s transcription %s", raw["evaluation"], raw["transcription"])
	}
	if !strings.Contains(string(data), `"frame30": []`) {
		t.Errorf("frame without faces should be an empty list:\n%s", data)
	}
	if !strings.Contains(string(data), `"scorer_fallback: model missing"`) {
		t.Errorf("warning not rendered as a string:\n%s", data)
	}
	if !strings.Contains(string(data), `"x": 1`) {
		t.Errorf("face box keys should be x/y/w/h:\n%s", data)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	r := sampleReport(types.TextOnly{Text: &types.TextSummary{OverallScore: 0.42}})
	for i := 0; i < 20; i++ {
		r.FrameAnalysis[types.FrameName(i*30)] = []types.FaceBox{{X: i, Y: i, W: 10, H: 10}}
	}
	first, _ := Marshal(Render(r))
	for i := 0; i < 5; i++ {
		again, _ := Marshal(Render(r))
		if !bytes.Equal(first, again) {
			t.Fatal("encoding the same report twice produced different bytes")
		}
	}
}

func TestWriteAndUnmarshal(t *testing.T) {
	out := t.TempDir()
	doc := Render(sampleReport(types.NoAnalysis{}))

	path, err := Write(out, doc)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if path != filepath.Join(out, "job-1", ResultsFile) {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.JobID != doc.JobID || back.State != doc.State || len(back.FrameAnalysis) != 2 {
		t.Errorf("round trip = %+v", back)
	}
}

func TestAnnotator(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatal(err)
	}
	frame := types.FrameSample{Index: 60, Data: buf.Bytes()}

	a, err := NewAnnotator(t.TempDir(), "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Annotate(frame, []types.FaceBox{{X: 10, Y: 10, W: 20, H: 20}, {X: 35, Y: 35, W: 50, H: 50}}); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if filepath.Base(a.Path(frame)) != "annot_frame60.jpg" {
		t.Errorf("path = %s", a.Path(frame))
	}

	f, err := os.Open(a.Path(frame))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	out, err := jpeg.Decode(f)
	if err != nil {
		t.Fatal(err)
	}

	isGreen := func(c color.Color) bool {
		r, g, b, _ := c.RGBA()
		return g > 0x6400 && g > r+0x3000 && g > b+0x3000
	}
	if !isGreen(out.At(20, 10)) {
		t.Errorf("top edge pixel %v is not green", out.At(20, 10))
	}
	if isGreen(out.At(20, 20)) {
		t.Errorf("box interior %v should be untouched", out.At(20, 20))
	}

	if err := a.Annotate(types.FrameSample{Index: 1, Data: []byte("garbage")}, nil); err == nil {
		t.Error("expected error for an undecodable frame")
	}
}
