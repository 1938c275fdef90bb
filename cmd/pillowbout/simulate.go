package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/okian/pillowbout/internal/simulator"
	"github.com/okian/pillowbout/pkg/logger"
)

func newSimulateCommand() *cli.Command {
	def := simulator.DefaultConfig()
	return &cli.Command{
		Name:  "simulate",
		Usage: "play a scripted bout against a running service and verify the totals",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "base URL of the service", Value: def.BaseURL},
			&cli.IntFlag{Name: "taps", Usage: "scoring taps per round", Value: def.TapsPerRound},
			&cli.IntFlag{Name: "workers", Usage: "concurrent tap submitters", Value: def.Workers},
			&cli.Float64Flag{Name: "duplicates", Usage: "share of taps that repeat an idempotency key", Value: def.DuplicateRatio},
			&cli.IntFlag{Name: "undos", Usage: "undos per round", Value: def.UndosPerRound},
			&cli.BoolFlag{Name: "tiebreaker", Usage: "level regulation totals and play the tiebreaker"},
			&cli.DurationFlag{Name: "timeout", Usage: "HTTP request timeout", Value: def.Timeout},
			&cli.Int64Flag{Name: "seed", Usage: "faker seed, 0 for random"},
			&cli.StringFlag{Name: "output", Usage: "write the final bout record to this file"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Value: "info"},
		},
		Action: func(c *cli.Context) error {
			if err := logger.InitWithWriter(c.App.ErrWriter); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			if err := logger.SetLevelString(c.String("log-level")); err != nil {
				return err
			}
			stats, err := simulator.Run(c.Context, simulator.Config{
				BaseURL:         c.String("url"),
				TapsPerRound:    c.Int("taps"),
				Workers:         c.Int("workers"),
				DuplicateRatio:  c.Float64("duplicates"),
				UndosPerRound:   c.Int("undos"),
				ForceTiebreaker: c.Bool("tiebreaker"),
				Timeout:         c.Duration("timeout"),
				Seed:            c.Int64("seed"),
				OutputFile:      c.String("output"),
			}, logger.Named("simulate"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.App.Writer, "simulated bout (seed %d): %d-%d, winner %s, saved as %s\n",
				stats.Seed, stats.TotalA, stats.TotalB, stats.Winner, stats.SavedAs)
			return err
		},
	}
}
