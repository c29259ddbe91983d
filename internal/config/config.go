package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/andresmejia3/interviewlens/internal/text"
)

// Config holds everything a job needs besides its input video.
type Config struct {
	LogLevel   string        `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFile    string        `yaml:"log_file"`
	Step       int           `yaml:"step" validate:"min=1"`
	Workers    int           `yaml:"workers" validate:"min=1,max=64"`
	Timeout    time.Duration `yaml:"timeout"`
	Transcribe bool          `yaml:"transcribe"`
	OutputDir  string        `yaml:"output_dir" validate:"required"`
	Annotate   bool          `yaml:"annotate"`
	// Precedence names the summary shown first when both exist. It never blends scores.
	Precedence string `yaml:"precedence" validate:"oneof=facial text"`

	Engine      EngineConfig      `yaml:"engine"`
	Model       ModelConfig       `yaml:"model"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	TextWeights text.Weights      `yaml:"text_weights"`
	Database    DatabaseConfig    `yaml:"database"`
}

// EngineConfig locates the external python engine that serves face detection and torch models.
type EngineConfig struct {
	Python  string `yaml:"python" validate:"required"`
	Script  string `yaml:"script" validate:"required"`
	Workers int    `yaml:"workers" validate:"min=1,max=32"`
}

type ModelConfig struct {
	Path string `yaml:"path"`
}

type TranscriberConfig struct {
	Engine        string        `yaml:"engine" validate:"oneof=whisper openai"`
	WhisperBinary string        `yaml:"whisper_binary"`
	WhisperModel  string        `yaml:"whisper_model"`
	Language      string        `yaml:"language"`
	OpenAIKey     string        `yaml:"openai_api_key"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	OpenAIModel   string        `yaml:"openai_model"`
	MaxRetry      time.Duration `yaml:"max_retry"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

func Default() *Config {
	return &Config{
		LogLevel:   "info",
		Step:       30,
		Workers:    4,
		Timeout:    10 * time.Minute,
		Transcribe: true,
		OutputDir:  "results",
		Precedence: "facial",
		Engine: EngineConfig{
			Python:  "python3",
			Script:  filepath.Join("python", "engine.py"),
			Workers: 2,
		},
		Transcriber: TranscriberConfig{
			Engine:        "whisper",
			WhisperBinary: "whisper",
			WhisperModel:  "base",
			OpenAIModel:   "whisper-1",
			MaxRetry:      30 * time.Second,
		},
		TextWeights: text.DefaultWeights(),
	}
}

// Load resolves configuration in order: defaults, .env, YAML file, environment.
// An empty path searches the usual locations; a missing file there is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("ignoring unreadable .env file: %v", err)
	}

	cfg := Default()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		for _, p := range searchPaths() {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := decodeFile(p, cfg); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func searchPaths() []string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return []string{
		filepath.Join("config", env, "config.yaml"),
		"interviewlens.yaml",
	}
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open config")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return errors.Wrapf(err, "decode config %s", path)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("INTERVIEWLENS_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("INTERVIEWLENS_LOG_FILE", c.LogFile)
	c.Step = getEnvAsInt("INTERVIEWLENS_STEP", c.Step)
	c.Workers = getEnvAsInt("INTERVIEWLENS_WORKERS", c.Workers)
	c.Timeout = getEnvAsDuration("INTERVIEWLENS_TIMEOUT", c.Timeout)
	c.Transcribe = getEnvAsBool("INTERVIEWLENS_TRANSCRIBE", c.Transcribe)
	c.OutputDir = getEnv("INTERVIEWLENS_OUTPUT_DIR", c.OutputDir)
	c.Precedence = getEnv("INTERVIEWLENS_PRECEDENCE", c.Precedence)
	c.Engine.Python = getEnv("INTERVIEWLENS_PYTHON", c.Engine.Python)
	c.Engine.Script = getEnv("INTERVIEWLENS_ENGINE_SCRIPT", c.Engine.Script)
	c.Model.Path = getEnv("INTERVIEWLENS_MODEL_PATH", c.Model.Path)
	c.Transcriber.Engine = getEnv("INTERVIEWLENS_TRANSCRIBER", c.Transcriber.Engine)
	c.Transcriber.WhisperModel = getEnv("INTERVIEWLENS_WHISPER_MODEL", c.Transcriber.WhisperModel)
	c.Transcriber.Language = getEnv("INTERVIEWLENS_LANGUAGE", c.Transcriber.Language)
	c.Transcriber.OpenAIKey = getEnv("OPENAI_API_KEY", c.Transcriber.OpenAIKey)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)

	if c.Database.URL == "" {
		c.Database.URL = postgresURLFromEnv()
	}
}

// postgresURLFromEnv builds a connection string from the POSTGRES_* variables, or returns "".
func postgresURLFromEnv() string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	port := getEnv("POSTGRES_PORT", "5432")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD"), host, port, os.Getenv("POSTGRES_DB"))
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if c.Timeout < 0 {
		return errors.New("invalid config: timeout must not be negative")
	}
	if err := c.TextWeights.Validate(); err != nil {
		return errors.Wrap(err, "invalid config: text_weights")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid integer %q, using default %d", valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid boolean %q, using default %t", valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid duration %q, using default %s", valueStr, defaultValue)
		return defaultValue
	}
	return value
}
