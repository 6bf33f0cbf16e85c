package scanner

import (
	"time"

	"monumentfinder/types"
)

// Recognizer looks up a single query image
type Recognizer interface {
	Recognize(path string) (types.Recognition, error)
}

// ProcessImageResult holds the result of recognizing one file
type ProcessImageResult struct {
	Path        string
	Recognition types.Recognition
	Error       error
}

// BatchStats summarizes a directory run
type BatchStats struct {
	Processed int
	Found     int
	NotFound  int
	Errors    int
	Elapsed   time.Duration
}
