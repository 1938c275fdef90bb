// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New(ctx) returns a Config filled with defaults.
//   - Load layers a YAML file and PILLOW_* environment variables on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/pillowbout/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RoundSeconds is the length of each regulation round.
	RoundSeconds int `koanf:"round_seconds"`

	// TiebreakerSeconds is the length of the tiebreaker round.
	TiebreakerSeconds int `koanf:"tiebreaker_seconds"`

	// TickIntervalMS is the wall time between clock ticks. One tick removes
	// one second from the round clock.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// QueueSize bounds the session action queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the idempotency key cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ScoresDir is where saved bouts are written.
	ScoresDir string `koanf:"scores_dir"`

	// TimeZone renders event and save times, e.g. "Local", "UTC",
	// "Europe/Berlin".
	TimeZone string `koanf:"time_zone"`

	// Points maps scoring kind labels to their point values.
	Points map[string]int `koanf:"points"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	points := make(map[string]int, len(model.Kinds))
	for k, v := range model.DefaultPointTable() {
		points[string(k)] = v
	}
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		RoundSeconds:      90,
		TiebreakerSeconds: 30,
		TickIntervalMS:    1000,
		QueueSize:         256,
		DedupeSize:        4096,
		ScoresDir:         "scores",
		TimeZone:          "Local",
		Points:            points,
	}
}

// TickInterval returns TickIntervalMS as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// PointTable converts Points into the domain table.
func (c *Config) PointTable() model.PointTable {
	table := make(model.PointTable, len(c.Points))
	for label, points := range c.Points {
		table[model.Kind(label)] = points
	}
	return table
}

// Location resolves TimeZone.
func (c *Config) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.TimeZone) {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: time_zone %q: %v", ErrInvalidConfig, c.TimeZone, err)
	}
	return loc, nil
}

// Validate checks the values Load cannot check by type alone.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.RoundSeconds <= 0 || c.TiebreakerSeconds <= 0 {
		return fmt.Errorf("%w: round_seconds and tiebreaker_seconds must be positive", ErrInvalidConfig)
	}
	if c.TickIntervalMS <= 0 {
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.DedupeSize < 0 {
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.ScoresDir) == "" {
		return fmt.Errorf("%w: scores_dir must not be empty", ErrInvalidConfig)
	}
	if err := c.PointTable().Validate(); err != nil {
		return fmt.Errorf("%w: points: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
