// Package pipeline runs one analysis job.
//
// The facial branch (sampler -> locator -> scorer, fanned out over a worker pool) and the
// text branch (transcriber -> text evaluator) run concurrently and share nothing but the
// read-only model cache. Run joins both, or gives up on whichever is still running when the
// job deadline passes, and hands what it has to the aggregator.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/andresmejia3/interviewlens/internal/aggregate"
	"github.com/andresmejia3/interviewlens/internal/face"
	"github.com/andresmejia3/interviewlens/internal/sampler"
	"github.com/andresmejia3/interviewlens/internal/scorer"
	"github.com/andresmejia3/interviewlens/internal/types"
)

const (
	stageFacial = "facial analysis"
	stageText   = "transcription"
)

// Transcriber is satisfied by *transcribe.Service.
type Transcriber interface {
	Transcribe(ctx context.Context, asset types.VideoAsset) (types.TranscriptionResult, error)
}

// TextEvaluator is satisfied by *text.Evaluator.
type TextEvaluator interface {
	Evaluate(transcript string) types.TextEvaluation
}

// Progress is satisfied by *progressbar.ProgressBar.
type Progress interface {
	ChangeMax(max int)
	Add(n int) error
}

// AnnotateFunc receives every sampled frame with its face boxes before the frame buffer is
// released. It is called from several goroutines at once.
type AnnotateFunc func(frame types.FrameSample, boxes []types.FaceBox) error

type Options struct {
	Step       int
	Workers    int
	Timeout    time.Duration
	Transcribe bool
	Precedence string
	ModelPath  string
	Progress   Progress
	Annotate   AnnotateFunc
}

// Deps are the collaborators of a Pipeline. Models is shared across jobs.
type Deps struct {
	Sampler     *sampler.Sampler
	Locator     face.Locator
	Models      *scorer.Cache
	Transcriber Transcriber
	Evaluator   TextEvaluator
	Log         logrus.FieldLogger
}

type Pipeline struct {
	deps Deps
}

func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// Run analyses the video at path. The only error it returns is an *types.InputError; every
// other failure is folded into the report as a warning.
func (p *Pipeline) Run(ctx context.Context, jobID, path string, opts Options) (types.EvaluationReport, error) {
	log := p.deps.Log.WithField("job_id", jobID)
	if opts.Step < 1 {
		return types.EvaluationReport{}, &types.InputError{Op: "validate", Err: types.ErrInvalidStep}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	asset, err := p.deps.Sampler.Open(ctx, path)
	if err != nil {
		return types.EvaluationReport{}, err
	}
	log.WithFields(logrus.Fields{
		"video":    asset.ID,
		"frames":   asset.FrameCount,
		"fps":      asset.FPS,
		"audio":    asset.HasAudio,
		"expected": sampler.Expected(asset.FrameCount, opts.Step),
	}).Info("job started")

	start := time.Now()
	var (
		jobCtx context.Context
		cancel context.CancelFunc
	)
	if opts.Timeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	} else {
		jobCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	// The capability probe happens once, before any face is scored.
	sc, scorerErr := scorer.Select(p.deps.Models, opts.ModelPath, log)

	facial := &facialRun{
		pipeline:  p,
		opts:      opts,
		scorer:    sc,
		scorerErr: scorerErr,
		log:       log,
	}
	facialCh := make(chan aggregate.FacialBranch, 1)
	textCh := make(chan aggregate.TextBranch, 1)

	go func() { facialCh <- facial.run(jobCtx, asset) }()
	go func() { textCh <- p.runText(jobCtx, asset, opts, log) }()

	var (
		facialOut        aggregate.FacialBranch
		textOut          aggregate.TextBranch
		facialOK, textOK bool
	)
	for !facialOK || !textOK {
		select {
		case facialOut = <-facialCh:
			facialOK = true
		case textOut = <-textCh:
			textOK = true
		case <-jobCtx.Done():
			elapsed := time.Since(start).Round(time.Millisecond)
			if !facialOK {
				facialOut = facial.partial()
				facialOut.Err = &types.TimeoutError{Stage: stageFacial, After: elapsed}
			}
			if !textOK {
				textOut = aggregate.TextBranch{Err: &types.TimeoutError{Stage: stageText, After: elapsed}}
			}
			facialOK, textOK = true, true
		}
	}

	report := aggregate.Aggregate(
		aggregate.Job{ID: jobID, VideoPath: path, Step: opts.Step},
		facialOut, textOut,
		aggregate.Options{Precedence: opts.Precedence},
	)
	for _, w := range report.Warnings {
		log.WithFields(logrus.Fields{"stage": "aggregate", "code": w.Code}).Warn(w.Message)
	}
	log.WithFields(logrus.Fields{
		"state":    report.Analysis.State(),
		"source":   report.Source,
		"warnings": len(report.Warnings),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("job finished")
	return report, nil
}

func (p *Pipeline) runText(ctx context.Context, asset types.VideoAsset, opts Options, log logrus.FieldLogger) aggregate.TextBranch {
	if !opts.Transcribe {
		return aggregate.TextBranch{Disabled: true}
	}
	if p.deps.Transcriber == nil {
		return aggregate.TextBranch{Err: &types.TranscriptionUnavailableError{Reason: "no transcriber configured"}}
	}

	res, err := p.deps.Transcriber.Transcribe(ctx, asset)
	if err != nil {
		return aggregate.TextBranch{Err: err}
	}
	log.WithFields(logrus.Fields{"stage": "transcribe", "language": res.Language, "segments": len(res.Segments)}).Debug("transcription finished")

	eval := p.deps.Evaluator.Evaluate(res.Text)
	return aggregate.TextBranch{Transcription: &res, Evaluation: &eval}
}

// facialRun is the state of one facial branch. Results are collected under mu so that a
// timed out job can still report the frames that finished.
type facialRun struct {
	pipeline  *Pipeline
	opts      Options
	scorer    scorer.Scorer
	scorerErr error
	log       logrus.FieldLogger

	mu     sync.Mutex
	frames []types.FrameResult
}

func (f *facialRun) branch() aggregate.FacialBranch {
	return aggregate.FacialBranch{
		Frames:    append([]types.FrameResult(nil), f.frames...),
		Scorer:    f.scorer.Name(),
		ScorerErr: f.scorerErr,
	}
}

func (f *facialRun) partial() aggregate.FacialBranch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.branch()
}

func (f *facialRun) record(r types.FrameResult) {
	f.mu.Lock()
	f.frames = append(f.frames, r)
	f.mu.Unlock()
	if f.opts.Progress != nil {
		_ = f.opts.Progress.Add(1)
	}
}

func (f *facialRun) run(ctx context.Context, asset types.VideoAsset) aggregate.FacialBranch {
	seq, err := f.pipeline.deps.Sampler.Sample(ctx, asset, f.opts.Step)
	if err != nil {
		out := f.partial()
		out.Err = err
		return out
	}
	defer seq.Close()
	if f.opts.Progress != nil && seq.Expected() > 0 {
		f.opts.Progress.ChangeMax(seq.Expected())
	}

	tasks := make(chan types.FrameSample, f.opts.Workers)
	var wg sync.WaitGroup
	for i := 0; i < f.opts.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for frame := range tasks {
				r := f.analyze(ctx, workerID, frame)
				sampler.Release(frame.Data)
				// A frame cut off by the deadline did not finish.
				if r.DetectorErr != nil && ctx.Err() != nil {
					continue
				}
				f.record(r)
			}
		}(i)
	}

	// Frames are handed out in sampling order; aggregation is order independent.
produce:
	for {
		frame, ok := seq.Next()
		if !ok {
			break
		}
		select {
		case tasks <- frame:
		case <-ctx.Done():
			sampler.Release(frame.Data)
			break produce
		}
	}
	close(tasks)
	wg.Wait()

	out := f.partial()
	sampleErr := seq.Err()
	var media *types.UnsupportedMediaError
	switch {
	case ctx.Err() != nil:
		out.Err = &types.TimeoutError{Stage: stageFacial, After: f.opts.Timeout}
	case sampleErr == nil:
	case errors.As(sampleErr, &media):
		out.Err = sampleErr
	default:
		out.SampleErr = sampleErr
	}
	f.log.WithFields(logrus.Fields{"stage": "facial", "sampled": seq.Sampled(), "expected": seq.Expected()}).Debug("facial branch finished")
	return out
}

// analyze locates and scores the faces of one frame. It never fails; problems are recorded
// on the FrameResult.
func (f *facialRun) analyze(ctx context.Context, workerID int, frame types.FrameSample) types.FrameResult {
	result := types.FrameResult{Index: frame.Index, Boxes: []types.FaceBox{}}
	fields := logrus.Fields{"stage": "facial", "frame": frame.Index, "worker": workerID}

	det := f.pipeline.deps.Locator.Locate(ctx, frame)
	if det.Failed() {
		result.DetectorErr = det.Err
		return result
	}
	result.Boxes = det.Boxes

	if f.opts.Annotate != nil {
		if err := f.opts.Annotate(frame, det.Boxes); err != nil {
			f.log.WithFields(fields).WithError(err).Warn("failed to write annotated frame")
		}
	}
	if len(det.Boxes) == 0 {
		return result
	}

	img, err := frame.Decode()
	if err != nil {
		f.log.WithFields(fields).WithError(err).Warn("failed to decode frame for scoring")
		result.ScoreErrs = len(det.Boxes)
		return result
	}
	for _, box := range det.Boxes {
		scores, err := f.scorer.Score(ctx, face.Crop(img, box))
		if err != nil {
			f.log.WithFields(fields).WithError(err).Debug("face scoring failed")
			result.ScoreErrs++
			continue
		}
		result.Faces = append(result.Faces, types.FaceResult{Box: box, Scores: scores})
	}
	return result
}
