// Package scorer produces the four facial parameters for a face crop.
//
// Two strategies share the Scorer interface. The model strategy runs a regression
// backbone loaded through a Cache; the fallback strategy derives the parameters from image
// statistics. Select probes the model once per job and picks one strategy for the whole
// job, so every face in a report is scored on the same basis.
package scorer

import (
	"context"
	"image"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/andresmejia3/interviewlens/internal/types"
)

const (
	NameModel    = "model"
	NameFallback = "fallback"
)

type Scorer interface {
	Score(ctx context.Context, face image.Image) (types.FacialScores, error)
	// Name is NameModel or NameFallback.
	Name() string
}

// Backbone is a loaded regression model returning four raw outputs per face.
type Backbone interface {
	Infer(ctx context.Context, face image.Image) ([4]float64, error)
	Close() error
}

// ModelScorer squashes backbone outputs through a sigmoid.
type ModelScorer struct {
	backbone Backbone
}

func NewModelScorer(b Backbone) *ModelScorer { return &ModelScorer{backbone: b} }

func (m *ModelScorer) Name() string { return NameModel }

func (m *ModelScorer) Score(ctx context.Context, face image.Image) (types.FacialScores, error) {
	if face.Bounds().Empty() {
		return types.FacialScores{}, errors.New("empty face crop")
	}
	raw, err := m.backbone.Infer(ctx, face)
	if err != nil {
		return types.FacialScores{}, err
	}
	var out [4]float64
	for i, v := range raw {
		out[i] = sigmoid(v)
	}
	return types.FacialScoresFrom(out).Clamp(), nil
}

func sigmoid(x float64) float64 {
	if math.IsNaN(x) {
		return 0.5
	}
	return 1 / (1 + math.Exp(-x))
}

// Select returns the model strategy when the backbone at path loads, otherwise the
// fallback strategy together with the ModelUnavailableError that caused it.
func Select(cache *Cache, path string, log logrus.FieldLogger) (Scorer, error) {
	backbone, err := cache.Get(path)
	if err != nil {
		log.WithFields(logrus.Fields{"stage": "scorer", "model": path}).WithError(err).Info("using fallback scorer")
		return Fallback{}, err
	}
	log.WithFields(logrus.Fields{"stage": "scorer", "model": path}).Debug("using model scorer")
	return NewModelScorer(backbone), nil
}
