package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"monumentfinder/logging"
	"monumentfinder/scanner"
	"monumentfinder/signalhandler"

	cli "github.com/spf13/cobra"
)

var (
	testCmd = &cli.Command{
		Use:   "test <directory>",
		Short: "Recognize every file in a directory",
		Args:  cli.ExactArgs(1),
		Run:   handleTestCommand,
	}
)

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().Bool("list", false, "Only print the file names that would be tested")
}

func handleTestCommand(cmd *cli.Command, args []string) {
	dir := args[0]

	if list, _ := cmd.Flags().GetBool("list"); list {
		defer logging.CloseLogger()
		if err := scanner.PrintFileNames(dir, os.Stdout); err != nil {
			logging.CloseLogger()
			exitDirectoryError(dir, err)
		}
		return
	}

	a := setupApp(cmd)
	defer a.close()

	ctx, stop := signalhandler.WithInterrupt(context.Background())
	defer stop()

	stats, err := scanner.TestDirectory(ctx, dir, a.engine, os.Stdout)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "Interrupted.")
	case err != nil:
		a.close()
		exitDirectoryError(dir, err)
	}
	scanner.PrintCompletionStats(stats, os.Stderr)
}

// exitDirectoryError terminates the process when a directory cannot be listed
func exitDirectoryError(dir string, err error) {
	if errors.Is(err, scanner.ErrDirectoryAccess) {
		fmt.Fprintf(os.Stderr, "Unable to access directory %s\n", dir)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
