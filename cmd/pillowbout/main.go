// Command pillowbout runs the judging console API and works with saved
// bout records from the command line.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pillowbout:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "pillowbout",
		Usage:     "score pillow-fight bouts",
		Writer:    out,
		ErrWriter: os.Stderr,
		Commands: []*cli.Command{
			newServeCommand(),
			newSheetCommand(),
			newInspectCommand(),
			newSimulateCommand(),
		},
	}
}
