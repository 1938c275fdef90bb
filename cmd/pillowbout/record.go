package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/pillowbout/internal/adapters/export"
	"github.com/okian/pillowbout/internal/domain/bout"
)

var tzFlag = &cli.StringFlag{ //nolint:gochecknoglobals // shared flag definition
	Name:  "tz",
	Usage: "time zone for event times",
	Value: "Local",
}

func newSheetCommand() *cli.Command {
	return &cli.Command{
		Name:      "sheet",
		Usage:     "render a saved bout as an XLSX score sheet",
		ArgsUsage: "<in.json> <out.xlsx>",
		Flags:     []cli.Flag{tzFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return errUsage(c)
			}
			state, report, err := loadRecord(c.Args().Get(0), c.String("tz"))
			if err != nil {
				return err
			}
			if err := writeSheet(c.Args().Get(1), state.ScoreSheet()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.App.Writer, "wrote %s (%d events, %d dropped)\n",
				c.Args().Get(1), report.Loaded, report.Dropped)
			return err
		},
	}
}

func newInspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "print totals, winner and tiebreaker state of a saved bout",
		ArgsUsage: "<in.json>",
		Flags: []cli.Flag{
			tzFlag,
			&cli.BoolFlag{Name: "json", Usage: "print the score sheet as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errUsage(c)
			}
			state, report, err := loadRecord(c.Args().First(), c.String("tz"))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(state.ScoreSheet())
			}
			return printSummary(c.App.Writer, state, report)
		},
	}
}

// loadRecord restores a saved bout from path.
func loadRecord(path, tz string) (*bout.State, bout.RestoreReport, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, bout.RestoreReport{}, fmt.Errorf("time zone %q: %w", tz, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, bout.RestoreReport{}, err
	}
	state := bout.New(bout.WithLocation(loc))
	report, err := state.Restore(data)
	if err != nil {
		return nil, bout.RestoreReport{}, fmt.Errorf("%s: %w", path, err)
	}
	return state, report, nil
}

// writeSheet writes the workbook next to its final name and renames it in
// place so a failed render leaves no partial file.
func writeSheet(path string, sheet bout.ScoreSheet) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sheet-*.xlsx")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := export.WriteXLSX(tmp, sheet); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func printSummary(w io.Writer, state *bout.State, report bout.RestoreReport) error {
	v := state.View()
	sheet := state.ScoreSheet()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Bout:\t%s\n", sheet.BoutID)
	fmt.Fprintf(tw, "Judge:\t%s\n", sheet.Judge)
	fmt.Fprintf(tw, "Fighters:\t%s vs %s\n\n", sheet.FighterA, sheet.FighterB)
	fmt.Fprintf(tw, "Round\t%s\t%s\tSum\n", sheet.FighterA, sheet.FighterB)
	for _, r := range sheet.Rounds {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", r.Round, r.A, r.B, r.Sum)
	}
	fmt.Fprintf(tw, "Total\t%d\t%d\t\n\n", sheet.TotalA, sheet.TotalB)
	fmt.Fprintf(tw, "Winner:\t%s\n", sheet.Winner)
	fmt.Fprintf(tw, "Tiebreaker used:\t%s\n", yesNo(v.TiebreakerUsed))
	fmt.Fprintf(tw, "Tiebreaker eligible:\t%s\n", yesNo(v.TiebreakerEnabled))
	fmt.Fprintf(tw, "Events:\t%d (%d dropped)\n", report.Loaded, report.Dropped)
	return tw.Flush()
}

func errUsage(c *cli.Context) error {
	return fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
