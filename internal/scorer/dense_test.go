package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresmejia3/interviewlens/internal/types"
)

func randomDense(r *rand.Rand, w, h int, scale float64) *DenseModel {
	layer := func(out, in int, act string) DenseLayer {
		l := DenseLayer{Activation: act, Bias: make([]float64, out), Weights: make([][]float64, out)}
		for i := range l.Weights {
			l.Weights[i] = make([]float64, in)
			for j := range l.Weights[i] {
				l.Weights[i][j] = (r.Float64()*2 - 1) * scale
			}
			l.Bias[i] = (r.Float64()*2 - 1) * scale
		}
		return l
	}
	m := &DenseModel{
		InputWidth:  w,
		InputHeight: h,
		Mean:        0.5,
		Std:         0.25,
		Layers:      []DenseLayer{layer(6, w*h, "relu"), layer(4, 6, "linear")},
	}
	if err := m.Validate(); err != nil {
		panic(err)
	}
	return m
}

func TestDenseInfer(t *testing.T) {
	m := &DenseModel{
		InputWidth:  1,
		InputHeight: 1,
		Layers: []DenseLayer{{
			Weights:    [][]float64{{1}, {0}, {-1}, {2}},
			Bias:       []float64{0, 0.5, 0, 0},
			Activation: "linear",
		}},
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	out, err := m.Infer(context.Background(), uniform(6, 6, 255))
	if err != nil {
		t.Fatal(err)
	}
	want := [4]float64{1, 0.5, -1, 2}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-2 {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestDenseValidate(t *testing.T) {
	ok := func() *DenseModel {
		return &DenseModel{InputWidth: 2, InputHeight: 1, Layers: []DenseLayer{{
			Weights: [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}},
			Bias:    []float64{0, 0, 0, 0},
		}}}
	}
	if err := ok().Validate(); err != nil {
		t.Fatalf("valid model rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*DenseModel)
	}{
		{"no input size", func(m *DenseModel) { m.InputWidth = 0 }},
		{"no layers", func(m *DenseModel) { m.Layers = nil }},
		{"bias mismatch", func(m *DenseModel) { m.Layers[0].Bias = []float64{0} }},
		{"input mismatch", func(m *DenseModel) { m.Layers[0].Weights[2] = []float64{1} }},
		{"unknown activation", func(m *DenseModel) { m.Layers[0].Activation = "softmax" }},
		{"wrong output size", func(m *DenseModel) {
			m.Layers[0].Weights = m.Layers[0].Weights[:3]
			m.Layers[0].Bias = m.Layers[0].Bias[:3]
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ok()
			tt.mutate(m)
			if err := m.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "face.json")
	data, _ := json.Marshal(randomDense(rand.New(rand.NewSource(3)), 4, 4, 1))
	if err := os.WriteFile(good, data, 0644); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.json")
	os.WriteFile(broken, []byte(`{"input_width": 4}`), 0644)
	onnx := filepath.Join(dir, "face.onnx")
	os.WriteFile(onnx, []byte("x"), 0644)

	l := Loader{}
	if b, err := l.Load(good); err != nil || b == nil {
		t.Fatalf("Load(%s) = %v, %v", good, b, err)
	}

	for _, path := range []string{"", filepath.Join(dir, "missing.json"), broken, onnx} {
		b, err := l.Load(path)
		var unavailable *types.ModelUnavailableError
		if !errors.As(err, &unavailable) {
			t.Errorf("Load(%q) error = %v, want ModelUnavailableError", path, err)
		}
		if b != nil {
			t.Errorf("Load(%q) returned a backbone alongside an error", path)
		}
		if types.KindOf(err) != types.KindDependencyUnavailable {
			t.Errorf("Load(%q) kind = %s", path, types.KindOf(err))
		}
	}
	if _, err := l.Load(""); !errors.Is(err, ErrNoModel) {
		t.Errorf("empty path error = %v, want ErrNoModel", err)
	}
}
