package main

import (
	"context"
	"os"

	"monumentfinder/scanner"
	"monumentfinder/signalhandler"

	cli "github.com/spf13/cobra"
)

var (
	watchCmd = &cli.Command{
		Use:   "watch <directory>",
		Short: "Recognize images as they are added to a directory",
		Args:  cli.ExactArgs(1),
		Run:   handleWatchCommand,
	}
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

// handleWatchCommand runs until interrupted, then releases the catalog normally
func handleWatchCommand(cmd *cli.Command, args []string) {
	dir := args[0]

	a := setupApp(cmd)
	defer a.close()

	ctx, stop := signalhandler.WithInterrupt(context.Background())
	defer stop()

	if err := scanner.Watch(ctx, dir, a.engine, os.Stdout); err != nil {
		a.close()
		exitDirectoryError(dir, err)
	}
}
