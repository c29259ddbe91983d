package report

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/andresmejia3/interviewlens/internal/types"
)

const annotatedDir = "annotated"

var boxColor = color.RGBA{G: 255, A: 255}

const boxThickness = 2

// Annotator writes a copy of each sampled frame with its face boxes outlined.
type Annotator struct {
	dir string
}

// NewAnnotator prepares <outDir>/<jobID>/annotated.
func NewAnnotator(outDir, jobID string) (*Annotator, error) {
	dir := filepath.Join(JobDir(outDir, jobID), annotatedDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	return &Annotator{dir: dir}, nil
}

// Path is the file an annotated frame is written to.
func (a *Annotator) Path(frame types.FrameSample) string {
	return filepath.Join(a.dir, "annot_"+frame.Name()+".jpg")
}

// Annotate is safe for concurrent use; every frame goes to its own file.
func (a *Annotator) Annotate(frame types.FrameSample, boxes []types.FaceBox) error {
	src, err := frame.Decode()
	if err != nil {
		return errors.Wrapf(err, "decode %s", frame.Name())
	}
	img := image.NewRGBA(src.Bounds())
	draw.Copy(img, img.Bounds().Min, src, src.Bounds(), draw.Src, nil)
	for _, b := range boxes {
		outline(img, b.Within(img.Bounds()).Rect())
	}

	f, err := os.Create(a.Path(frame))
	if err != nil {
		return errors.Wrap(err, "create annotated frame")
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", frame.Name())
	}
	return f.Close()
}

func outline(img *image.RGBA, r image.Rectangle) {
	if r.Empty() {
		return
	}
	fill := image.NewUniform(boxColor)
	t := boxThickness
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		e = e.Intersect(r)
		draw.Draw(img, e, fill, image.Point{}, draw.Src)
	}
}
