package transcribe

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/andresmejia3/interviewlens/internal/types"
)

type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	// MaxRetry bounds the total time spent retrying rate limits and server errors.
	MaxRetry time.Duration
}

// OpenAI transcribes through the OpenAI audio API.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
	log    logrus.FieldLogger

	initialInterval time.Duration
	maxInterval     time.Duration
}

func NewOpenAI(opts OpenAIOptions, log logrus.FieldLogger) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = openai.Whisper1
	}
	if opts.MaxRetry <= 0 {
		opts.MaxRetry = 30 * time.Second
	}
	return &OpenAI{
		client:          openai.NewClientWithConfig(cfg),
		opts:            opts,
		log:             log,
		initialInterval: 2 * time.Second,
		maxInterval:     10 * time.Second,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Available() error {
	if o.opts.APIKey == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}
	return nil
}

func (o *OpenAI) Transcribe(ctx context.Context, wavPath, language string) (types.TranscriptionResult, error) {
	req := openai.AudioRequest{
		Model:    o.opts.Model,
		FilePath: wavPath,
		Language: language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	var resp openai.AudioResponse
	attempt := 0
	call := func() error {
		attempt++
		var err error
		resp, err = o.client.CreateTranscription(ctx, req)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		o.log.WithFields(logrus.Fields{"stage": "transcribe", "attempt": attempt}).WithError(err).Warn("openai transcription failed, retrying")
		return err
	}

	// Retry logic with exponential backoff
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.initialInterval
	bo.MaxElapsedTime = o.opts.MaxRetry
	bo.MaxInterval = o.maxInterval

	if err := backoff.Retry(call, backoff.WithContext(bo, ctx)); err != nil {
		return types.TranscriptionResult{}, err
	}

	res := types.TranscriptionResult{Text: resp.Text, Language: resp.Language}
	for _, s := range resp.Segments {
		res.Segments = append(res.Segments, types.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return res, nil
}

// retryable is true for rate limits, server errors and transport failures.
func retryable(err error) bool {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &pathErr):
		return false
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
