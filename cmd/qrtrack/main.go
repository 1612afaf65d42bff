package main

import (
	"flag"
	"os"

	"github.com/ekarabulut/qrtrack/internal/cli"
)

func main() {
	// Root flags (apply to every subcommand)
	yes := flag.Bool("yes", false, "answer yes to confirmation prompts")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	// Hand the remaining args to the CLI runner. No subcommand means the
	// interactive client.
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"tui"}
	}

	os.Exit(cli.Run(args, cli.Options{
		Yes:     *yes,
		NoColor: *noColor,
	}))
}
