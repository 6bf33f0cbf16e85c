package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"monumentfinder/logging"
	"monumentfinder/scanner"
	"monumentfinder/signalhandler"

	cli "github.com/spf13/cobra"
)

var (
	findCmd = &cli.Command{
		Use:   "find <image>...",
		Short: "Recognize the given images",
		Args:  cli.MinimumNArgs(1),
		Run:   handleFindCommand,
	}
)

func init() {
	rootCmd.AddCommand(findCmd)
}

func handleFindCommand(cmd *cli.Command, args []string) {
	a := setupApp(cmd)
	defer a.close()

	ctx, stop := signalhandler.WithInterrupt(context.Background())
	defer stop()

	if failed := findAll(ctx, a.engine, args, os.Stdout); failed == len(args) {
		a.close()
		os.Exit(1)
	}
}

// findAll recognizes each path in turn until ctx is done and returns how many
// could not be processed. Paths left after an interrupt count as failed.
func findAll(ctx context.Context, r scanner.Recognizer, paths []string, out io.Writer) int {
	failed := 0
	for i, path := range paths {
		if ctx.Err() != nil {
			logging.LogInfo("Interrupted before %s", path)
			return failed + len(paths) - i
		}
		rec, err := r.Recognize(path)
		if err != nil {
			logging.LogWarning("Skipping %s: %v", path, err)
			failed++
			continue
		}
		fmt.Fprintln(out, rec.String())
	}
	return failed
}
