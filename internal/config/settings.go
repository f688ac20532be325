// Package config declares the dga settings, their defaults and the DGA_
// environment overrides, and resolves them through viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. DGA_MODEL_PATH.
const EnvPrefix = "DGA"

// Configuration keys.
const (
	KeyModelPath = "model.path"

	KeyDatasetPath          = "dataset.path"
	KeyDatasetLabelColumn   = "dataset.label_column"
	KeyDatasetDomainColumn  = "dataset.domain_column"
	KeyDatasetPositiveClass = "dataset.positive_class"

	KeyTrainMaxRuntime         = "train.max_runtime"
	KeyTrainSeed               = "train.seed"
	KeyTrainIncludeAlgos       = "train.include_algos"
	KeyTrainParallelism        = "train.parallelism"
	KeyTrainValidationFraction = "train.validation_fraction"

	KeyPlaybookEnabled     = "playbook.enabled"
	KeyPlaybookProvider    = "playbook.provider"
	KeyPlaybookModel       = "playbook.model"
	KeyPlaybookTemperature = "playbook.temperature"
	KeyPlaybookMaxTokens   = "playbook.max_tokens"
	KeyPlaybookMaxRetries  = "playbook.max_retries"
	KeyPlaybookRetryDelay  = "playbook.retry_delay"
	KeyPlaybookRateLimit   = "playbook.rate_limit"

	KeyHistoryEnabled = "history.enabled"
	KeyHistoryPath    = "history.path"

	KeyLoggingLevel  = "logging.level"
	KeyLoggingFormat = "logging.format"
)

var defaults = map[string]any{
	KeyModelPath: "model/DGA_Leader.zip",

	KeyDatasetPath:          "dga_dataset_train.csv",
	KeyDatasetLabelColumn:   "class",
	KeyDatasetDomainColumn:  "domain",
	KeyDatasetPositiveClass: "dga",

	KeyTrainMaxRuntime:         120 * time.Second,
	KeyTrainSeed:               1,
	KeyTrainIncludeAlgos:       []string{"GBM", "DRF", "GLM"},
	KeyTrainParallelism:        0,
	KeyTrainValidationFraction: 0.2,

	KeyPlaybookEnabled:     true,
	KeyPlaybookProvider:    "gemini",
	KeyPlaybookModel:       "",
	KeyPlaybookTemperature: 0.3,
	KeyPlaybookMaxTokens:   2048,
	KeyPlaybookMaxRetries:  3,
	KeyPlaybookRetryDelay:  2 * time.Second,
	KeyPlaybookRateLimit:   60,

	KeyHistoryEnabled: true,
	KeyHistoryPath:    "data/history.db",

	KeyLoggingLevel:  "info",
	KeyLoggingFormat: "console",
}

// Init registers defaults and environment overrides on v.
func Init(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Settings is the resolved configuration.
type Settings struct {
	Model    ModelSettings    `mapstructure:"model"`
	Dataset  DatasetSettings  `mapstructure:"dataset"`
	History  HistorySettings  `mapstructure:"history"`
	Logging  LoggingSettings  `mapstructure:"logging"`
	Playbook PlaybookSettings `mapstructure:"playbook"`
	Train    TrainSettings    `mapstructure:"train"`
}

// ModelSettings locates the model artifact shared by train and analyze.
type ModelSettings struct {
	Path string `mapstructure:"path"`
}

// DatasetSettings describes the training CSV.
type DatasetSettings struct {
	Path          string `mapstructure:"path"`
	LabelColumn   string `mapstructure:"label_column"`
	DomainColumn  string `mapstructure:"domain_column"`
	PositiveClass string `mapstructure:"positive_class"`
}

// TrainSettings bounds the model search.
type TrainSettings struct {
	IncludeAlgos       []string      `mapstructure:"include_algos"`
	MaxRuntime         time.Duration `mapstructure:"max_runtime"`
	Seed               int64         `mapstructure:"seed"`
	Parallelism        int           `mapstructure:"parallelism"`
	ValidationFraction float64       `mapstructure:"validation_fraction"`
}

// PlaybookSettings selects and tunes the playbook provider.
type PlaybookSettings struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	MaxRetries  int           `mapstructure:"max_retries"` // after the first request; 0 disables retries
	RateLimit   int           `mapstructure:"rate_limit"`
	Enabled     bool          `mapstructure:"enabled"`
}

// HistorySettings configures the analysis history database.
type HistorySettings struct {
	Path    string `mapstructure:"path"`
	Enabled bool   `mapstructure:"enabled"`
}

// LoggingSettings configures slog.
type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	for _, p := range []*string{&s.Model.Path, &s.Dataset.Path, &s.History.Path} {
		*p = ExpandPath(*p)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports the first invalid setting.
func (s *Settings) Validate() error {
	switch {
	case strings.TrimSpace(s.Model.Path) == "":
		return invalid(KeyModelPath, "must not be empty")
	case s.Dataset.LabelColumn == "":
		return invalid(KeyDatasetLabelColumn, "must not be empty")
	case s.Dataset.PositiveClass == "":
		return invalid(KeyDatasetPositiveClass, "must not be empty")
	case s.Train.MaxRuntime <= 0:
		return invalid(KeyTrainMaxRuntime, "must be positive")
	case s.Train.Parallelism < 0:
		return invalid(KeyTrainParallelism, "must not be negative")
	case s.Train.ValidationFraction <= 0 || s.Train.ValidationFraction >= 1:
		return invalid(KeyTrainValidationFraction, "must be between 0 and 1")
	case s.Playbook.MaxRetries < 0:
		return invalid(KeyPlaybookMaxRetries, "must not be negative")
	case s.History.Enabled && strings.TrimSpace(s.History.Path) == "":
		return invalid(KeyHistoryPath, "must not be empty when history is enabled")
	}

	switch strings.ToLower(s.Playbook.Provider) {
	case "gemini", "openai", "anthropic":
	default:
		return invalid(KeyPlaybookProvider, fmt.Sprintf("unsupported provider %q", s.Playbook.Provider))
	}

	switch s.Logging.Format {
	case "console", "json":
	default:
		return invalid(KeyLoggingFormat, fmt.Sprintf("unsupported format %q", s.Logging.Format))
	}

	return nil
}

// ExpandPath resolves a leading ~ to the home directory, then $VAR
// references. A ~ is left alone when the home directory is unknown.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return os.ExpandEnv(path)
}

func invalid(key, reason string) error {
	return fmt.Errorf("%w: %s %s", common.ErrInvalidConfig, key, reason)
}
