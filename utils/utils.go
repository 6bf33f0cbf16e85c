package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MonumentArg is a NAME=PATH pair given on the command line
type MonumentArg struct {
	Name string
	Path string
}

// ParseMonumentArg splits a NAME=PATH argument. The name is everything before
// the first '=', so paths may contain '='.
func ParseMonumentArg(arg string) (MonumentArg, error) {
	parts := strings.SplitN(arg, "=", 2)
	if len(parts) != 2 {
		return MonumentArg{}, fmt.Errorf("invalid monument %q, expected NAME=PATH", arg)
	}
	name := strings.TrimSpace(parts[0])
	path := strings.TrimSpace(parts[1])
	if name == "" || path == "" {
		return MonumentArg{}, fmt.Errorf("invalid monument %q, name and path are required", arg)
	}
	return MonumentArg{Name: name, Path: path}, nil
}

// GetDefaultDatabasePath returns the default path for the catalog database
func GetDefaultDatabasePath() string {
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return "monuments.db"
	}

	return filepath.Join(filepath.Dir(exePath), "monuments.db")
}

// ParseCoordinate parses a decimal degree value within limit
func ParseCoordinate(value string, limit float64) (float64, error) {
	if value == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v < -limit || v > limit {
		return 0, fmt.Errorf("invalid coordinate '%s', must be within ±%v", value, limit)
	}
	return v, nil
}
