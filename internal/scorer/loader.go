package scorer

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/andresmejia3/interviewlens/internal/types"
	"github.com/andresmejia3/interviewlens/internal/worker"
)

// ErrNoModel is returned when no model path is configured.
var ErrNoModel = errors.New("no model configured")

// Loader resolves a model path to a Backbone by extension: .json is evaluated in
// process, .pt and .pth are served by the python engine.
type Loader struct {
	Python  string
	Script  string
	Workers int
	Log     logrus.FieldLogger
}

// Load wraps every failure in a ModelUnavailableError.
func (l Loader) Load(path string) (Backbone, error) {
	b, err := l.load(path)
	if err != nil {
		return nil, &types.ModelUnavailableError{Path: path, Err: err}
	}
	return b, nil
}

func (l Loader) load(path string) (Backbone, error) {
	if path == "" {
		return nil, ErrNoModel
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		m, err := LoadDense(path)
		if err != nil {
			return nil, err
		}
		return m, nil
	case ".pt", ".pth":
		t, err := l.startTorch(path)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, errors.Errorf("unsupported model format %q", filepath.Ext(path))
	}
}

// TorchBackbone forwards crops to engine processes that hold the torch weights.
type TorchBackbone struct {
	pool *worker.Pool
}

func (l Loader) startTorch(path string) (*TorchBackbone, error) {
	// The engine loads the weights before answering the ready ping, so a missing torch
	// runtime or unreadable weights fail here.
	spawn := func(id int) (*worker.PythonWorker, error) {
		return worker.NewPythonWorker(id, l.Python, l.Script, "--mode", "score", "--model", path)
	}
	log := l.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	pool, err := worker.NewPool(l.Workers, spawn, log.WithField("stage", "scorer"))
	if err != nil {
		return nil, err
	}
	return NewTorchBackbone(pool), nil
}

func NewTorchBackbone(pool *worker.Pool) *TorchBackbone {
	return &TorchBackbone{pool: pool}
}

func (t *TorchBackbone) Infer(ctx context.Context, face image.Image) ([4]float64, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, face, &jpeg.Options{Quality: 95}); err != nil {
		return [4]float64{}, errors.Wrap(err, "encode face")
	}
	var out [4]float64
	err := t.pool.Do(ctx, func(w *worker.PythonWorker) error {
		var err error
		out, err = w.Score(buf.Bytes())
		return err
	})
	return out, err
}

func (t *TorchBackbone) Close() error { return t.pool.Close() }
