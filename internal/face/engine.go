package face

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/andresmejia3/interviewlens/internal/types"
	"github.com/andresmejia3/interviewlens/internal/worker"
)

// EngineOptions locates the python detection engine.
type EngineOptions struct {
	Python  string
	Script  string
	Workers int
}

// EngineDetector runs detection on a pool of engine processes.
type EngineDetector struct {
	pool *worker.Pool
}

// StartEngine spawns the detection workers.
func StartEngine(opts EngineOptions, log logrus.FieldLogger) (*EngineDetector, error) {
	if _, err := os.Stat(opts.Script); err != nil {
		return nil, errors.Wrapf(err, "detection engine script %s (see package worker for the engine contract)", opts.Script)
	}
	spawn := func(id int) (*worker.PythonWorker, error) {
		return worker.NewPythonWorker(id, opts.Python, opts.Script, "--mode", "detect")
	}
	pool, err := worker.NewPool(opts.Workers, spawn, log.WithField("stage", "face"))
	if err != nil {
		return nil, err
	}
	return NewEngineDetector(pool), nil
}

func NewEngineDetector(pool *worker.Pool) *EngineDetector {
	return &EngineDetector{pool: pool}
}

func (e *EngineDetector) Detect(ctx context.Context, frame []byte) ([]types.FaceBox, error) {
	var boxes []types.FaceBox
	err := e.pool.Do(ctx, func(w *worker.PythonWorker) error {
		var err error
		boxes, err = w.Detect(frame)
		return err
	})
	return boxes, err
}

func (e *EngineDetector) Close() error { return e.pool.Close() }
