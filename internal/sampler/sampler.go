// Package sampler yields every step-th frame of a video as JPEG encoded samples.
package sampler

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/andresmejia3/interviewlens/internal/types"
	"github.com/andresmejia3/interviewlens/internal/utils"
)

const megabyte = 1024 * 1024

// Buffer pool to reduce GC pressure during sampling
var frameBufferPool = sync.Pool{
	New: func() interface{} { return make([]byte, 0, megabyte) },
}

// Release returns a sample's buffer to the pool. The sample must not be used afterwards.
func Release(buf []byte) {
	if cap(buf) > 0 {
		frameBufferPool.Put(buf[:0])
	}
}

// Source probes and decodes video files.
type Source interface {
	Probe(ctx context.Context, path string) (types.VideoAsset, error)
	// Open starts decoding and returns a stream of concatenated JPEG frames.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// FFmpegSource decodes through ffprobe and ffmpeg.
type FFmpegSource struct{}

func (FFmpegSource) Probe(ctx context.Context, path string) (types.VideoAsset, error) {
	return utils.Probe(ctx, path)
}

func (FFmpegSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := utils.RequireBinary("ffmpeg"); err != nil {
		return nil, err
	}
	ffmpeg := utils.NewFFmpegCmd(ctx, path)
	out, err := ffmpeg.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create FFmpeg stdout pipe")
	}
	if err := ffmpeg.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start FFmpeg")
	}
	return &ffmpegStream{out: out, cmd: ffmpeg}, nil
}

type ffmpegStream struct {
	out io.ReadCloser
	cmd *utils.SafeCommand
}

func (s *ffmpegStream) Read(p []byte) (int, error) { return s.out.Read(p) }

// Close waits for ffmpeg and reports how it exited, with its logs attached.
func (s *ffmpegStream) Close() error {
	s.out.Close() // Ensure pipe is closed to prevent leaks/zombies
	if err := s.cmd.Wait(); err != nil {
		if logs := s.cmd.Logs(); logs != "" {
			return errors.Wrapf(err, "ffmpeg: %s", logs)
		}
		return errors.Wrap(err, "ffmpeg")
	}
	return nil
}

type Sampler struct {
	source Source
	log    logrus.FieldLogger
}

func New(source Source, log logrus.FieldLogger) *Sampler {
	return &Sampler{source: source, log: log}
}

// Open probes the asset. Anything the prober rejects is an InputError.
func (s *Sampler) Open(ctx context.Context, path string) (types.VideoAsset, error) {
	asset, err := s.source.Probe(ctx, path)
	if err != nil {
		var media *types.UnsupportedMediaError
		if !errors.As(err, &media) {
			err = &types.UnsupportedMediaError{Path: path, Err: err}
		}
		return types.VideoAsset{}, &types.InputError{Op: "open video", Err: err}
	}
	if id, err := utils.GenerateVideoID(path); err == nil {
		asset.ID = id
	}
	asset.Path = path
	return asset, nil
}

// Expected returns ceil(frames/step), or 0 when the frame count is unknown.
func Expected(frames, step int) int {
	if frames <= 0 || step < 1 {
		return 0
	}
	return (frames + step - 1) / step
}

// Sample starts a fresh pass over the asset. Each call decodes from disk again.
func (s *Sampler) Sample(ctx context.Context, asset types.VideoAsset, step int) (*Sequence, error) {
	if step < 1 {
		return nil, &types.InputError{Op: "sample", Err: types.ErrInvalidStep}
	}
	stream, err := s.source.Open(ctx, asset.Path)
	if err != nil {
		return nil, &types.InputError{Op: "sample", Err: &types.UnsupportedMediaError{Path: asset.Path, Err: err}}
	}

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, megabyte), 64*megabyte)
	scanner.Split(utils.SplitJpeg)

	s.log.WithFields(logrus.Fields{
		"stage":    "sampler",
		"step":     step,
		"frames":   asset.FrameCount,
		"expected": Expected(asset.FrameCount, step),
	}).Debug("sampling started")

	return &Sequence{
		ctx:      ctx,
		asset:    asset,
		step:     step,
		expected: Expected(asset.FrameCount, step),
		stream:   stream,
		scanner:  scanner,
		log:      s.log,
	}, nil
}

// Sequence is a lazy, finite pass over the sampled frames of one asset.
type Sequence struct {
	ctx      context.Context
	asset    types.VideoAsset
	step     int
	expected int
	stream   io.ReadCloser
	scanner  *bufio.Scanner
	log      logrus.FieldLogger

	decoded int
	sampled int
	done    bool
	err     error
}

// Next returns the next sampled frame. The returned Data comes from a pool; pass it to
// Release once the frame is no longer needed.
func (q *Sequence) Next() (types.FrameSample, bool) {
	if q.done {
		return types.FrameSample{}, false
	}
	for {
		if err := q.ctx.Err(); err != nil {
			q.finish(err)
			return types.FrameSample{}, false
		}
		if !q.scanner.Scan() {
			q.finish(q.scanner.Err())
			return types.FrameSample{}, false
		}
		index := q.decoded
		q.decoded++
		if index%q.step != 0 {
			continue
		}

		frame := q.scanner.Bytes()
		buf := frameBufferPool.Get().([]byte)
		if cap(buf) < len(frame) {
			buf = make([]byte, len(frame))
		}
		buf = buf[:len(frame)]
		copy(buf, frame)
		q.sampled++
		return types.FrameSample{Index: index, Data: buf}, true
	}
}

func (q *Sequence) finish(scanErr error) {
	q.done = true
	closeErr := q.stream.Close()

	fields := logrus.Fields{"stage": "sampler", "decoded": q.decoded, "sampled": q.sampled}
	switch {
	case scanErr != nil && errors.Is(scanErr, q.ctx.Err()):
		q.err = scanErr
	case q.decoded == 0 && (scanErr != nil || closeErr != nil):
		// Nothing came out of the decoder at all.
		cause := scanErr
		if cause == nil {
			cause = closeErr
		}
		q.err = &types.UnsupportedMediaError{Path: q.asset.Path, Err: cause}
	case scanErr != nil || closeErr != nil:
		cause := scanErr
		if cause == nil {
			cause = closeErr
		}
		q.err = &types.EarlyTerminationError{Expected: q.expected, Got: q.sampled, Err: cause}
	case q.expected > 0 && q.sampled < q.expected:
		q.err = &types.EarlyTerminationError{Expected: q.expected, Got: q.sampled}
	}
	if q.err != nil {
		q.log.WithFields(fields).WithError(q.err).Warn("sampling ended early")
		return
	}
	q.log.WithFields(fields).Debug("sampling finished")
}

// Err reports why the sequence ended: nil after a complete pass, an EarlyTerminationError
// when the decoder stopped short, UnsupportedMediaError when nothing could be decoded, or
// the context error.
func (q *Sequence) Err() error { return q.err }

// Expected is the number of samples a complete pass yields, 0 if unknown.
func (q *Sequence) Expected() int { return q.expected }

// Sampled is the number of samples yielded so far.
func (q *Sequence) Sampled() int { return q.sampled }

// Close stops decoding early. It is safe to call after the sequence is exhausted.
func (q *Sequence) Close() error {
	if q.done {
		return nil
	}
	q.done = true
	q.stream.Close()
	return nil
}
