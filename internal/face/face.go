// Package face locates faces in sampled frames.
//
// A Locator never fails a job: detector errors and panics come back as a Detection with
// no boxes and Err set, so callers can tell "no faces" from "detector failed".
package face

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/andresmejia3/interviewlens/internal/types"
)

// Detector is the raw face detection primitive. It may fail.
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]types.FaceBox, error)
}

// Detection is the outcome of locating faces in one frame.
type Detection struct {
	Boxes []types.FaceBox
	Err   error
}

func (d Detection) Failed() bool { return d.Err != nil }

type Locator interface {
	Locate(ctx context.Context, frame types.FrameSample) Detection
}

// DetectorLocator adapts a Detector to the Locator contract and clips boxes to the frame.
type DetectorLocator struct {
	detector Detector
	log      logrus.FieldLogger
}

func NewLocator(d Detector, log logrus.FieldLogger) *DetectorLocator {
	return &DetectorLocator{detector: d, log: log}
}

func (l *DetectorLocator) Locate(ctx context.Context, frame types.FrameSample) (det Detection) {
	defer func() {
		if r := recover(); r != nil {
			det = Detection{Err: fmt.Errorf("face detector panicked: %v", r)}
		}
	}()

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(frame.Data))
	if err != nil {
		return Detection{Err: fmt.Errorf("frame %d is not a valid JPEG: %w", frame.Index, err)}
	}
	bounds := image.Rect(0, 0, cfg.Width, cfg.Height)

	boxes, err := l.detector.Detect(ctx, frame.Data)
	if err != nil {
		l.log.WithFields(logrus.Fields{"stage": "face", "frame": frame.Index}).WithError(err).Debug("detector failed")
		return Detection{Err: err}
	}

	clipped := make([]types.FaceBox, 0, len(boxes))
	for _, b := range boxes {
		if c := b.Within(bounds); !c.Empty() {
			clipped = append(clipped, c)
		}
	}
	return Detection{Boxes: clipped}
}

// Unavailable is the detector used when no engine could be started.
type Unavailable struct {
	Err error
}

func (u Unavailable) Detect(context.Context, []byte) ([]types.FaceBox, error) {
	return nil, u.Err
}

// Crop copies the box out of img into a new image with origin (0,0).
func Crop(img image.Image, box types.FaceBox) *image.RGBA {
	r := box.Within(img.Bounds()).Rect()
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, img, r, draw.Src, nil)
	return dst
}
