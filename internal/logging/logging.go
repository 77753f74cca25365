// Package logging builds the zerolog loggers used by the streamvis binary.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config contains logging configuration.
type Config struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Output      string `yaml:"output"`
	NoColor     bool   `yaml:"no_color"`
	NoTimestamp bool   `yaml:"no_timestamp"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil || c.Level == "" {
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error (got: %q)", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case FormatJSON, FormatConsole:
	default:
		return fmt.Errorf("logging.format must be json or console (got: %q)", c.Format)
	}
	return nil
}

// New creates a logger from cfg. A non-nil w overrides cfg.Output. The
// returned Closer releases the log file when Output names one; it is a
// no-op otherwise.
func New(cfg Config, w io.Writer) (zerolog.Logger, io.Closer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	level, _ := zerolog.ParseLevel(strings.ToLower(cfg.Level))

	var closer io.Closer = nopCloser{}
	if w == nil {
		out, c, err := outputWriter(cfg.Output)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, err
		}
		w, closer = out, c
	}
	if strings.ToLower(cfg.Format) == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, NoColor: cfg.NoColor, TimeFormat: time.TimeOnly}
	}

	zc := zerolog.New(w).Level(level).With()
	if !cfg.NoTimestamp {
		zc = zc.Timestamp()
	}
	return zc.Logger(), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func outputWriter(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nopCloser{}, nil
	case "stderr":
		return os.Stderr, nopCloser{}, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log output: %w", err)
		}
		return f, f, nil
	}
}
