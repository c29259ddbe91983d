package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/andresmejia3/interviewlens/internal/config"
	"github.com/andresmejia3/interviewlens/internal/face"
	"github.com/andresmejia3/interviewlens/internal/pipeline"
	"github.com/andresmejia3/interviewlens/internal/report"
	"github.com/andresmejia3/interviewlens/internal/sampler"
	"github.com/andresmejia3/interviewlens/internal/scorer"
	"github.com/andresmejia3/interviewlens/internal/text"
	"github.com/andresmejia3/interviewlens/internal/transcribe"
	"github.com/andresmejia3/interviewlens/internal/types"
	"github.com/andresmejia3/interviewlens/internal/utils"
)

// AnalyzeOptions are the per-invocation overrides of the analyze command.
type AnalyzeOptions struct {
	InputPath    string
	Step         int
	Workers      int
	NoTranscribe bool
	Timeout      time.Duration
	OutputDir    string
	Annotate     bool
	ModelPath    string
	Precedence   string
}

var analyzeOpts AnalyzeOptions

var analyzeCmd = &cobra.Command{
	Use:         "analyze",
	Short:       "Evaluate an interview video",
	Annotations: map[string]string{dbAnnotation: dbOptional},
	Run: func(cmd *cobra.Command, args []string) {
		applyAnalyzeFlags(cmd, Cfg, &analyzeOpts)
		if err := validateAnalyzeFlags(&analyzeOpts); err != nil {
			utils.Die("Invalid arguments", err, nil)
		}
		if err := runAnalyze(cmd.Context(), analyzeOpts, os.Stdout); err != nil {
			utils.Die("Analysis failed", err, nil)
		}
	},
}

func init() {
	bindAnalyzeFlags(analyzeCmd, &analyzeOpts)
	analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}

func bindAnalyzeFlags(cmd *cobra.Command, opts *AnalyzeOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.InputPath, "input", "i", "", "Path to video")
	f.IntVarP(&opts.Step, "step", "n", 30, "Sample every n-th frame")
	f.IntVarP(&opts.Workers, "workers", "w", 4, "Number of frames analysed in parallel")
	f.BoolVar(&opts.NoTranscribe, "no-transcribe", false, "Skip transcription and text evaluation")
	f.DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "Job deadline; unfinished stages are reported as timed out (0 disables)")
	f.StringVarP(&opts.OutputDir, "output", "o", "results", "Directory for results.json and annotated frames")
	f.BoolVar(&opts.Annotate, "annotate", false, "Save sampled frames with face boxes drawn")
	f.StringVar(&opts.ModelPath, "model", "", "Facial expression model (.json, .pt or .pth); fallback heuristics when absent")
	f.StringVar(&opts.Precedence, "precedence", "facial", "Summary shown first when both exist: facial or text")
}

// applyAnalyzeFlags fills options the user did not set on the command line from cfg.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config, opts *AnalyzeOptions) {
	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	if !changed("step") {
		opts.Step = cfg.Step
	}
	if !changed("workers") {
		opts.Workers = cfg.Workers
	}
	if !changed("no-transcribe") {
		opts.NoTranscribe = !cfg.Transcribe
	}
	if !changed("timeout") {
		opts.Timeout = cfg.Timeout
	}
	if !changed("output") {
		opts.OutputDir = cfg.OutputDir
	}
	if !changed("annotate") {
		opts.Annotate = cfg.Annotate
	}
	if !changed("model") {
		opts.ModelPath = cfg.Model.Path
	}
	if !changed("precedence") {
		opts.Precedence = cfg.Precedence
	}
}

// validateAnalyzeFlags ensures all CLI arguments are valid before starting heavy processes.
func validateAnalyzeFlags(opts *AnalyzeOptions) error {
	info, err := os.Stat(opts.InputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %w", err)
		}
		return fmt.Errorf("unable to access input file: %w", err)
	}
	if info.IsDir() {
		return errors.New("input path is a directory, expected a video file")
	}
	if opts.Step < 1 {
		return fmt.Errorf("invalid step: %w (got %d)", types.ErrInvalidStep, opts.Step)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Timeout < 0 {
		return fmt.Errorf("invalid timeout: must not be negative, got %s", opts.Timeout)
	}
	if opts.Precedence != types.SourceFacial && opts.Precedence != types.SourceText {
		return fmt.Errorf("invalid precedence %q: use facial or text", opts.Precedence)
	}
	return nil
}

// runAnalyze wires the collaborators, runs one job and writes its artifacts. The report JSON
// goes to stdout; everything else goes to stderr.
func runAnalyze(ctx context.Context, opts AnalyzeOptions, stdout io.Writer) error {
	jobID := uuid.NewString()
	log := Log.WithField("job_id", jobID)

	fmt.Fprintf(os.Stderr, "📼 Job %s: %s\n", jobID, opts.InputPath)
	fmt.Fprintf(os.Stderr, "⚙️  Spawning %d detection engines...\n", Cfg.Engine.Workers)

	var detector face.Detector
	engine, err := face.StartEngine(face.EngineOptions{
		Python:  Cfg.Engine.Python,
		Script:  Cfg.Engine.Script,
		Workers: Cfg.Engine.Workers,
	}, log)
	if err != nil {
		log.WithError(err).Warn("face detection engine unavailable")
		detector = face.Unavailable{Err: err}
	} else {
		defer engine.Close()
		detector = engine
	}

	models := scorer.NewCache(scorer.Loader{
		Python:  Cfg.Engine.Python,
		Script:  Cfg.Engine.Script,
		Workers: Cfg.Engine.Workers,
		Log:     log,
	}.Load)
	defer models.Close()

	p := pipeline.New(pipeline.Deps{
		Sampler:     sampler.New(sampler.FFmpegSource{}, Log),
		Locator:     face.NewLocator(detector, Log),
		Models:      models,
		Transcriber: newTranscriber(Cfg.Transcriber, Log),
		Evaluator:   text.NewEvaluator(Cfg.TextWeights),
		Log:         Log,
	})

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("🔍 Analyzing frames"),
		progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
		progressbar.OptionShowCount(),
	)
	runOpts := pipeline.Options{
		Step:       opts.Step,
		Workers:    opts.Workers,
		Timeout:    opts.Timeout,
		Transcribe: !opts.NoTranscribe,
		Precedence: opts.Precedence,
		ModelPath:  opts.ModelPath,
		Progress:   bar,
	}
	if opts.Annotate {
		annotator, err := report.NewAnnotator(opts.OutputDir, jobID)
		if err != nil {
			return err
		}
		runOpts.Annotate = annotator.Annotate
	}

	rep, err := p.Run(ctx, jobID, opts.InputPath, runOpts)
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	doc := report.Render(rep)
	path, err := report.Write(opts.OutputDir, doc)
	if err != nil {
		return err
	}
	if DB != nil {
		videoID, _ := utils.GenerateVideoID(opts.InputPath)
		if err := DB.SaveReport(context.Background(), videoID, doc); err != nil {
			log.WithError(err).Warn("failed to save report to database")
		}
	}

	data, err := report.Marshal(doc)
	if err != nil {
		return err
	}
	if _, err := stdout.Write(data); err != nil {
		return err
	}

	printSummary(doc, path)
	return nil
}

func newTranscriber(cfg config.TranscriberConfig, log logrus.FieldLogger) *transcribe.Service {
	var engine transcribe.Engine
	switch cfg.Engine {
	case "openai":
		engine = transcribe.NewOpenAI(transcribe.OpenAIOptions{
			APIKey:   cfg.OpenAIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Model:    cfg.OpenAIModel,
			MaxRetry: cfg.MaxRetry,
		}, log)
	default:
		engine = transcribe.WhisperCLI{Binary: cfg.WhisperBinary, Model: cfg.WhisperModel}
	}
	return transcribe.NewService(engine, transcribe.FFmpegExtractor{}, cfg.Language, log)
}

func printSummary(doc report.Document, path string) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "📊 EVALUATION SUMMARY (%s, shown first: %s)\n", doc.State, doc.Source)
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
	if f := doc.FacialExpressionAnalysis; f != nil {
		fmt.Fprintf(os.Stderr, "🙂 Facial (%s): overall %.3f over %d faces in %d/%d frames\n",
			f.Scorer, f.OverallScore, f.FaceCount, f.FrameCount, f.FramesAnalyzed)
	}
	if t := doc.Evaluation; t != nil {
		fmt.Fprintf(os.Stderr, "🗣️  Text: overall %.2f, sentiment %s (%.2f), %d words\n",
			t.OverallScore, t.OverallSentiment.Label, t.OverallSentiment.Confidence, t.WordCount)
	}
	for _, w := range doc.Warnings {
		fmt.Fprintf(os.Stderr, "⚠️  %s\n", w)
	}
	fmt.Fprintf(os.Stderr, "💾 Results written to %s\n", path)
}
