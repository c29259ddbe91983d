package scorer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/andresmejia3/interviewlens/internal/logging"
	"github.com/andresmejia3/interviewlens/internal/types"
)

func uniform(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// randomFace returns images ranging from 1x1 slivers to noisy crops with saturated pixels.
func randomFace(r *rand.Rand) image.Image {
	w, h := 1+r.Intn(48), 1+r.Intn(48)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	mode := r.Intn(3)
	for i := 0; i < len(img.Pix); i += 4 {
		var v uint8
		switch mode {
		case 0:
			v = uint8(r.Intn(256))
		case 1:
			v = []uint8{0, 255}[r.Intn(2)]
		default:
			v = uint8(i)
		}
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, uint8(r.Intn(256)), v, 255
	}
	return img
}

func assertBounded(t *testing.T, s types.FacialScores) {
	t.Helper()
	for i, v := range s.Values() {
		if math.IsNaN(v) || v < 0 || v > 1 {
			t.Fatalf("parameter %d = %v escapes [0,1] (%+v)", i, v, s)
		}
	}
}

func TestFallbackBounds(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		s, err := Fallback{}.Score(context.Background(), randomFace(r))
		if err != nil {
			t.Fatalf("fallback failed: %v", err)
		}
		assertBounded(t, s)
		if s.Confidence > 0.7 || s.Authenticity > 0.75 || s.Leadership > 0.65 || s.PressureHandling > 0.7 {
			t.Fatalf("fallback exceeded its ceilings: %+v", s)
		}
	}
}

func TestFallbackFormula(t *testing.T) {
	tests := []struct {
		name string
		face image.Image
		want types.FacialScores
	}{
		{
			name: "white face",
			face: uniform(10, 10, 255),
			want: types.FacialScores{Confidence: 0.7, Authenticity: 0.75, Leadership: 0.65, PressureHandling: 0.7},
		},
		{
			name: "black face",
			face: uniform(10, 10, 0),
			want: types.FacialScores{Confidence: 0.5, Authenticity: 0.75, Leadership: 0.6, PressureHandling: 0.7},
		},
		{
			name: "empty crop",
			face: image.NewGray(image.Rect(0, 0, 0, 0)),
			want: types.FacialScores{Confidence: 0.5, Authenticity: 0.5, Leadership: 0.5, PressureHandling: 0.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fallback{}.Score(context.Background(), tt.face)
			if err != nil {
				t.Fatal(err)
			}
			gv, wv := got.Values(), tt.want.Values()
			for i := range wv {
				if math.Abs(gv[i]-wv[i]) > 1e-9 {
					t.Errorf("got %+v, want %+v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestFallbackAsymmetry(t *testing.T) {
	face := uniform(10, 10, 0)
	for y := 0; y < 10; y++ {
		for x := 5; x < 10; x++ {
			face.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	s, _ := Fallback{}.Score(context.Background(), face)
	sym, _ := Fallback{}.Score(context.Background(), uniform(10, 10, 128))
	if s.Authenticity >= sym.Authenticity {
		t.Errorf("asymmetric face authenticity %v should be below symmetric %v", s.Authenticity, sym.Authenticity)
	}
}

type fakeBackbone struct {
	out    [4]float64
	err    error
	closed bool
}

func (f *fakeBackbone) Infer(context.Context, image.Image) ([4]float64, error) { return f.out, f.err }
func (f *fakeBackbone) Close() error { f.closed = true; return nil }

func TestModelScorerSigmoid(t *testing.T) {
	m := NewModelScorer(&fakeBackbone{out: [4]float64{0, 1000, -1000, math.NaN()}})
	s, err := m.Score(context.Background(), uniform(4, 4, 10))
	if err != nil {
		t.Fatal(err)
	}
	want := [4]float64{0.5, 1, 0, 0.5}
	for i, v := range s.Values() {
		if math.Abs(v-want[i]) > 1e-9 {
			t.Errorf("parameter %d = %v, want %v", i, v, want[i])
		}
	}
	if m.Name() != NameModel {
		t.Errorf("name = %s", m.Name())
	}
}

func TestModelScorerErrors(t *testing.T) {
	m := NewModelScorer(&fakeBackbone{err: errors.New("engine gone")})
	if _, err := m.Score(context.Background(), uniform(4, 4, 10)); err == nil {
		t.Error("expected backbone error")
	}
	if _, err := m.Score(context.Background(), image.NewGray(image.Rectangle{})); err == nil {
		t.Error("expected error for an empty crop")
	}
}

func TestModelScorerBounds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	m := randomDense(r, 8, 8, 1e3)
	scorer := NewModelScorer(m)
	for i := 0; i < 200; i++ {
		s, err := scorer.Score(context.Background(), randomFace(r))
		if err != nil {
			t.Fatalf("model scorer failed: %v", err)
		}
		assertBounded(t, s)
	}
}

func TestSelect(t *testing.T) {
	cause := &types.ModelUnavailableError{Path: "m.pt", Err: errors.New("torch not installed")}
	failing := NewCache(func(string) (Backbone, error) { return nil, cause })

	s, err := Select(failing, "m.pt", logging.Discard())
	if s.Name() != NameFallback {
		t.Errorf("scorer = %s, want fallback", s.Name())
	}
	var unavailable *types.ModelUnavailableError
	if !errors.As(err, &unavailable) {
		t.Errorf("expected ModelUnavailableError, got %v", err)
	}

	working := NewCache(func(string) (Backbone, error) { return &fakeBackbone{}, nil })
	s, err = Select(working, "m.json", logging.Discard())
	if err != nil || s.Name() != NameModel {
		t.Errorf("Select = %s, %v; want model, nil", s.Name(), err)
	}
}
