package simulator

import (
	"errors"
	"fmt"
	"time"
)

// Config holds configuration for a simulated bout.
type Config struct {
	BaseURL         string        // Base URL of the service
	TapsPerRound    int           // Scoring taps generated per round
	Workers         int           // Concurrent tap submitters
	DuplicateRatio  float64       // Share of taps that replay an earlier idempotency key
	UndosPerRound   int           // Undo requests issued after each round's taps
	ForceTiebreaker bool          // Level the regulation totals and play the tiebreaker
	Timeout         time.Duration // HTTP request timeout
	Seed            int64         // Faker seed; zero picks one from the clock
	OutputFile      string        // Where to write the final bout record, if set
}

// DefaultConfig returns the settings used by the simulate command.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:9080",
		TapsPerRound:   40,
		Workers:        4,
		DuplicateRatio: 0.1,
		UndosPerRound:  2,
		Timeout:        10 * time.Second,
	}
}

func (c Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base url is required")
	case c.TapsPerRound < 0:
		return fmt.Errorf("taps per round must be >= 0, got %d", c.TapsPerRound)
	case c.Workers <= 0:
		return fmt.Errorf("workers must be > 0, got %d", c.Workers)
	case c.DuplicateRatio < 0 || c.DuplicateRatio > 1:
		return fmt.Errorf("duplicate ratio must be within [0,1], got %g", c.DuplicateRatio)
	case c.UndosPerRound < 0:
		return fmt.Errorf("undos per round must be >= 0, got %d", c.UndosPerRound)
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be > 0, got %s", c.Timeout)
	}
	return nil
}

// Stats holds simulation statistics.
type Stats struct {
	Seed           int64
	TapsGenerated  int
	TapsSubmitted  int
	Recorded       int
	Duplicates     int
	Failed         int
	Undone         int
	EmptyUndos     int
	Rounds         int
	TiebreakerUsed bool
	TotalA         int
	TotalB         int
	Winner         string
	SavedAs        string
	SheetBytes     int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
