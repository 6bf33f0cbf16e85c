package scanner

import (
	"fmt"
	"io"
	"time"

	"monumentfinder/logging"
)

// PrintFileNames writes the files a directory run would visit, one per line
func PrintFileNames(dir string, out io.Writer) error {
	names, err := ListFiles(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

// PrintCompletionStats displays statistics after a directory run
func PrintCompletionStats(stats BatchStats, out io.Writer) {
	logging.DebugLog("Batch completed in %v. Processed: %d, Found: %d, Not found: %d, Errors: %d",
		stats.Elapsed, stats.Processed, stats.Found, stats.NotFound, stats.Errors)

	fmt.Fprintf(out, "Processed %d images in %v.\n", stats.Processed, stats.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "Found monuments in %d, none in %d.\n", stats.Found, stats.NotFound)

	if stats.Errors > 0 {
		fmt.Fprintf(out, "Skipped %d files that could not be processed.\n", stats.Errors)
		if logging.IsEnabled() {
			fmt.Fprintln(out, "Check the log file for details.")
		}
	}
}
