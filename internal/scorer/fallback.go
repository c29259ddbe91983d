package scorer

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/andresmejia3/interviewlens/internal/types"
)

// Fallback scores a face from grayscale statistics of the crop:
//
//	eye       = mean brightness of the top 40% of rows / 255
//	symmetry  = 1 - |mean(left half) - mean(right half)| / 255
//	straight  = 1 (head pose is not estimated)
//
// and caps each parameter below the ceiling a model would reach.
type Fallback struct{}

func (Fallback) Name() string { return NameFallback }

func (Fallback) Score(_ context.Context, face image.Image) (types.FacialScores, error) {
	b := face.Bounds()
	if b.Empty() {
		return types.FacialScores{Confidence: 0.5, Authenticity: 0.5, Leadership: 0.5, PressureHandling: 0.5}, nil
	}

	eyeRows := int(float64(b.Dy()) * 0.4)
	if eyeRows < 1 {
		eyeRows = 1
	}
	half := b.Dx() / 2

	var top, left, right float64
	var nTop, nLeft, nRight int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := float64(color.GrayModel.Convert(face.At(x, y)).(color.Gray).Y)
			if y-b.Min.Y < eyeRows {
				top += g
				nTop++
			}
			switch {
			case x-b.Min.X < half:
				left += g
				nLeft++
			case x-b.Min.X >= b.Dx()-half:
				right += g
				nRight++
			}
		}
	}

	eye := mean(top, nTop) / 255
	symmetry := 1.0
	if nLeft > 0 && nRight > 0 {
		symmetry = 1 - math.Abs(mean(left, nLeft)-mean(right, nRight))/255
	}
	const straight = 1.0

	s := types.FacialScores{
		Confidence:       math.Min(0.7, 0.5*eye+0.5*straight),
		Authenticity:     math.Min(0.75, 0.6*symmetry+0.4*straight),
		Leadership:       math.Min(0.65, 0.4*eye+0.6*straight),
		PressureHandling: math.Min(0.7, 0.5*symmetry+0.3*eye+0.2*straight),
	}
	return s.Clamp(), nil
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
