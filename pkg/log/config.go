package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Config defines logging configuration.
type Config struct {
	// Level sets the minimum log level
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format sets the output format (json, text)
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Output is "stderr", "stdout" or a file path
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// EnableCaller enables adding caller information to logs
	EnableCaller bool `json:"enable_caller" yaml:"enable_caller" mapstructure:"enable_caller"`

	// RedactedFields lists fields whose values are never written
	RedactedFields []string `json:"redacted_fields" yaml:"redacted_fields" mapstructure:"redacted_fields"`

	// Sampling defines sampling behavior for high-volume logs
	Sampling *SamplingConfig `json:"sampling" yaml:"sampling" mapstructure:"sampling"`
}

// SamplingConfig defines sampling behavior for high-volume logs.
type SamplingConfig struct {
	// Initial is the number of identical entries per second logged unsampled
	Initial int `json:"initial" yaml:"initial" mapstructure:"initial"`

	// Thereafter is how often to log after the initial entries
	Thereafter int `json:"thereafter" yaml:"thereafter" mapstructure:"thereafter"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "text",
		Output: "stderr",
	}
}

// ApplyConfig creates a logger from a configuration.
func ApplyConfig(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(config.Format)
	switch format {
	case "json", "text":
	case "":
		format = "text"
	default:
		return nil, fmt.Errorf("invalid log format: %s", config.Format)
	}

	w, err := openOutput(config.Output)
	if err != nil {
		return nil, err
	}

	options := []LoggerOption{
		WithLevel(level),
		WithFormat(format),
		WithWriter(w),
		WithCaller(config.EnableCaller),
	}
	if len(config.RedactedFields) > 0 {
		options = append(options, WithRedactedFields(config.RedactedFields...))
	}
	if config.Sampling != nil && config.Sampling.Thereafter > 0 {
		options = append(options, WithSampling(config.Sampling.Initial, config.Sampling.Thereafter))
	}

	return NewLogger(options...), nil
}

func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	filename := os.ExpandEnv(output)
	if !filepath.IsAbs(filename) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		filename = filepath.Join(wd, filename)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// ParseLevel parses a level string into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}
