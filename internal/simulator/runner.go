// Package simulator plays scripted bouts against a running judging service
// and checks that its score table matches every acknowledged request.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pillowbout/internal/domain/bout"
	"github.com/okian/pillowbout/internal/domain/model"
	"github.com/okian/pillowbout/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// maxFillerTaps bounds the presses spent levelling the regulation totals.
const maxFillerTaps = 200

// Run plays one complete bout and verifies the result.
func Run(ctx context.Context, cfg Config, log logger.Logger) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	gen := NewGenerator(cfg.Seed)
	stats := &Stats{Seed: gen.Seed(), StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)
	book := &ledger{}

	log.Info(ctx, "starting bout simulation",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("taps_per_round", cfg.TapsPerRound),
		logger.Int("workers", cfg.Workers),
		logger.Float64("duplicate_ratio", cfg.DuplicateRatio),
		logger.Bool("force_tiebreaker", cfg.ForceTiebreaker),
		logger.Any("seed", stats.Seed),
	)

	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}
	if err := client.NewBout(ctx); err != nil {
		return nil, fmt.Errorf("new bout: %w", err)
	}
	meta := gen.Metadata()
	if err := client.SetMetadata(ctx, meta); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	log.Info(ctx, "bout opened",
		logger.String("fighter_a", meta.FighterA),
		logger.String("fighter_b", meta.FighterB),
		logger.String("judge", meta.Judge),
	)

	for r := model.Round1; r <= model.Round3; r++ {
		if err := playRound(ctx, cfg, client, gen, r, book, stats, log); err != nil {
			return nil, err
		}
		if r == model.Round3 {
			break
		}
		step, err := client.NextRound(ctx)
		if err != nil {
			return nil, fmt.Errorf("advance from %s: %w", r, err)
		}
		if step != "moved" {
			return nil, fmt.Errorf("advance from %s: unexpected step %q", r, step)
		}
	}

	if cfg.ForceTiebreaker {
		if err := levelTotals(ctx, client, gen, book, stats); err != nil {
			return nil, err
		}
	}

	v, err := client.View(ctx)
	if err != nil {
		return nil, err
	}
	if v.TiebreakerEnabled {
		if err := client.EnterTiebreaker(ctx); err != nil {
			return nil, fmt.Errorf("enter tiebreaker: %w", err)
		}
		stats.TiebreakerUsed = true
		if err := playRound(ctx, cfg, client, gen, model.Tiebreaker, book, stats, log); err != nil {
			return nil, err
		}
	}

	v, err = client.View(ctx)
	if err != nil {
		return nil, err
	}
	if err := verifyResults(book, v); err != nil {
		return nil, fmt.Errorf("result verification failed: %w", err)
	}
	stats.TotalA, stats.TotalB = v.TotalA, v.TotalB
	stats.Winner = winner(v.FighterA, v.FighterB, v.TotalA, v.TotalB)

	if stats.SavedAs, err = client.Save(ctx); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	sheet, err := client.Sheet(ctx)
	if err != nil {
		return nil, fmt.Errorf("score sheet: %w", err)
	}
	stats.SheetBytes = len(sheet)

	if cfg.OutputFile != "" {
		if err := saveRecord(ctx, client, cfg.OutputFile); err != nil {
			log.Warn(ctx, "failed to save bout record", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

// playRound runs the clock, fires the round's taps concurrently, then
// issues the configured undos one at a time.
func playRound(ctx context.Context, cfg Config, client *Client, gen *Generator, r model.Round, book *ledger, stats *Stats, log logger.Logger) error {
	if err := client.StartClock(ctx); err != nil {
		return fmt.Errorf("%s: start clock: %w", r, err)
	}

	taps := gen.Taps(r, cfg.TapsPerRound, cfg.DuplicateRatio)
	stats.TapsGenerated += len(taps)
	submitTaps(ctx, cfg.Workers, client, taps, book, stats, log)

	for i := 0; i < cfg.UndosPerRound; i++ {
		res, err := client.Undo(ctx)
		if err != nil {
			return fmt.Errorf("%s: undo: %w", r, err)
		}
		if !res.Removed || res.Event == nil {
			stats.EmptyUndos++
			continue
		}
		book.remove(*res.Event)
		stats.Undone++
	}

	if err := client.PauseClock(ctx); err != nil {
		return fmt.Errorf("%s: pause clock: %w", r, err)
	}
	stats.Rounds++
	log.Info(ctx, "round played",
		logger.String("round", r.Short()),
		logger.Int("score_a", book.round(model.CompetitorA, r)),
		logger.Int("score_b", book.round(model.CompetitorB, r)),
	)
	return ctx.Err()
}

// submitTaps submits taps concurrently using a worker pool.
func submitTaps(ctx context.Context, workers int, client *Client, taps []Tap, book *ledger, stats *Stats, log logger.Logger) {
	var submitted, recorded, duplicate, failed int64

	tapChan := make(chan Tap, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tapChan {
				atomic.AddInt64(&submitted, 1)
				res, err := client.Score(ctx, t)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
					log.Debug(ctx, "tap failed", logger.String("key", t.Key), logger.Error(err))
				case res.Duplicate:
					atomic.AddInt64(&duplicate, 1)
				case res.Event != nil:
					book.add(*res.Event)
					atomic.AddInt64(&recorded, 1)
				}
			}
		}()
	}

	go func() {
		defer close(tapChan)
		for _, t := range taps {
			select {
			case <-ctx.Done():
				return
			case tapChan <- t:
			}
		}
	}()
	wg.Wait()

	stats.TapsSubmitted += int(submitted)
	stats.Recorded += int(recorded)
	stats.Duplicates += int(duplicate)
	stats.Failed += int(failed)
}

// levelTotals presses for the trailing fighter until the regulation totals
// are equal and above zero.
func levelTotals(ctx context.Context, client *Client, gen *Generator, book *ledger, stats *Stats) error {
	for i := 0; i < maxFillerTaps; i++ {
		a, b := book.regulation(model.CompetitorA), book.regulation(model.CompetitorB)
		if a == b && a > 0 {
			return nil
		}
		trailing := model.CompetitorA
		if b < a {
			trailing = model.CompetitorB
		}
		res, err := client.Score(ctx, gen.Filler(trailing))
		stats.TapsGenerated++
		stats.TapsSubmitted++
		if err != nil {
			stats.Failed++
			return fmt.Errorf("level totals: %w", err)
		}
		if res.Event != nil {
			book.add(*res.Event)
			stats.Recorded++
		}
	}
	return errors.New("level totals: regulation totals did not converge")
}

// saveRecord writes the exported bout record to filename.
func saveRecord(ctx context.Context, client *Client, filename string) error {
	data, err := client.Export(ctx)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return os.WriteFile(filename, data, filePermission)
}

func winner(a, b string, totalA, totalB int) string {
	switch {
	case totalA > totalB:
		return a
	case totalB > totalA:
		return b
	default:
		return bout.DrawLabel
	}
}

// displayFinalStats logs the final simulation statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var tapsPerSecond float64
	if stats.Duration > 0 {
		tapsPerSecond = float64(stats.TapsSubmitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("taps_generated", stats.TapsGenerated),
		logger.Int("taps_submitted", stats.TapsSubmitted),
		logger.Int("recorded", stats.Recorded),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Int("undone", stats.Undone),
		logger.Int("rounds", stats.Rounds),
		logger.Bool("tiebreaker_used", stats.TiebreakerUsed),
		logger.String("winner", stats.Winner),
		logger.String("saved_as", stats.SavedAs),
		logger.Duration("duration", stats.Duration),
		logger.Float64("taps_per_second", tapsPerSecond),
	)
}
