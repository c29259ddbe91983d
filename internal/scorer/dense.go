package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// DenseLayer is one fully connected layer: out = act(W·in + b).
type DenseLayer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

// DenseModel is a small fully connected network over a grayscale face, stored as JSON.
// Inputs are pixel/255 normalised with Mean and Std.
type DenseModel struct {
	InputWidth  int          `json:"input_width"`
	InputHeight int          `json:"input_height"`
	Mean        float64      `json:"mean"`
	Std         float64      `json:"std"`
	Layers      []DenseLayer `json:"layers"`
}

// LoadDense reads and validates a JSON model.
func LoadDense(path string) (*DenseModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m DenseModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "decode model")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *DenseModel) Validate() error {
	if m.InputWidth < 1 || m.InputHeight < 1 {
		return fmt.Errorf("invalid input size %dx%d", m.InputWidth, m.InputHeight)
	}
	if m.Std == 0 {
		m.Std = 1
	}
	if len(m.Layers) == 0 {
		return errors.New("model has no layers")
	}
	in := m.InputWidth * m.InputHeight
	for i, l := range m.Layers {
		if len(l.Weights) == 0 || len(l.Weights) != len(l.Bias) {
			return fmt.Errorf("layer %d: %d weight rows for %d biases", i, len(l.Weights), len(l.Bias))
		}
		for r, row := range l.Weights {
			if len(row) != in {
				return fmt.Errorf("layer %d row %d: %d inputs, want %d", i, r, len(row), in)
			}
		}
		if _, ok := activations[l.Activation]; !ok {
			return fmt.Errorf("layer %d: unknown activation %q", i, l.Activation)
		}
		in = len(l.Weights)
	}
	if in != 4 {
		return fmt.Errorf("model produces %d outputs, want 4", in)
	}
	return nil
}

var activations = map[string]func(float64) float64{
	"":        func(x float64) float64 { return x },
	"linear":  func(x float64) float64 { return x },
	"relu":    func(x float64) float64 { return math.Max(0, x) },
	"tanh":    math.Tanh,
	"sigmoid": sigmoid,
}

func (m *DenseModel) Infer(_ context.Context, face image.Image) ([4]float64, error) {
	var out [4]float64
	if face.Bounds().Empty() {
		return out, errors.New("empty face crop")
	}

	gray := image.NewGray(image.Rect(0, 0, m.InputWidth, m.InputHeight))
	draw.BiLinear.Scale(gray, gray.Bounds(), face, face.Bounds(), draw.Src, nil)

	x := make([]float64, len(gray.Pix))
	for i, p := range gray.Pix {
		x[i] = (float64(p)/255 - m.Mean) / m.Std
	}

	for _, l := range m.Layers {
		act := activations[l.Activation]
		y := make([]float64, len(l.Weights))
		for r, row := range l.Weights {
			sum := l.Bias[r]
			for c, w := range row {
				sum += w * x[c]
			}
			y[r] = act(sum)
		}
		x = y
	}
	copy(out[:], x)
	return out, nil
}

func (m *DenseModel) Close() error { return nil }
