package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLoggerWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "monumentfinder.log")
	if err := SetupLogger(logPath); err != nil {
		t.Fatalf("setup logger: %v", err)
	}
	if !IsEnabled() {
		t.Fatalf("logger should be enabled after setup")
	}

	DebugLog("catalog has %d entries", 2)
	LogWarning("cannot decode %s", "c.txt")
	LogRecognition("query1.jpg", "Eiffel", 21, true)
	LogRecognition("query2.jpg", "", 5, false)
	CloseLogger()

	if IsEnabled() {
		t.Fatalf("logger should be disabled after close")
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"catalog has 2 entries",
		"WARNING: cannot decode c.txt",
		"RECOGNIZED: query1.jpg -> Eiffel (21 matches)",
		"UNRECOGNIZED: query2.jpg",
		"Debug Log Closed",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("log missing %q:\n%s", want, content)
		}
	}
}

func TestDebugLogWithoutSetupIsSilent(t *testing.T) {
	// Must not panic when no file logger is configured.
	DebugLog("nothing to see %d", 1)
	LogRecognition("q.jpg", "", 0, false)
}
