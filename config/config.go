// Package config loads the recognition settings from the environment.
package config

import (
	"fmt"
	"strings"

	"monumentfinder/recognizer"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Config is compatible with "github.com/caarlos0/env"
type Config struct {
	Detector       string  `env:"MONUMENTS_DETECTOR" envDefault:"orb"`
	Descriptor     string  `env:"MONUMENTS_DESCRIPTOR" envDefault:"orb"`
	Matcher        string  `env:"MONUMENTS_MATCHER" envDefault:"bruteforce-hamming"`
	Ratio          float64 `env:"MONUMENTS_RATIO"`
	MatchThreshold int     `env:"MONUMENTS_MATCH_THRESHOLD"`
	ShowMatches    bool    `env:"MONUMENTS_SHOW_MATCHES" envDefault:"false"`
	Policy         string  `env:"MONUMENTS_POLICY" envDefault:"first"`
	DatabasePath   string  `env:"MONUMENTS_DB"`
	AutoOrient     bool    `env:"MONUMENTS_AUTO_ORIENT" envDefault:"false"`
	MaxDimension   int     `env:"MONUMENTS_MAX_DIMENSION" envDefault:"0"`
	GeoTag         bool    `env:"MONUMENTS_GEOTAG" envDefault:"false"`
}

// Load reads an optional .env file and then the process environment
func Load() (*Config, error) {
	_ = godotenv.Load()
	// Unset variables keep the recognizer defaults
	cfg := &Config{
		Ratio:          recognizer.DefaultRatio,
		MatchThreshold: recognizer.DefaultMatchThreshold,
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("cannot parse environment into config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges and policy names. Algorithm names are checked
// when the feature handler is built.
func (c *Config) Validate() error {
	if c.Ratio <= 0 || c.Ratio > 1 {
		return fmt.Errorf("invalid ratio %v: must be in (0, 1]", c.Ratio)
	}
	if c.MatchThreshold < 1 {
		return fmt.Errorf("invalid match threshold %d: must be at least 1", c.MatchThreshold)
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("invalid max dimension %d", c.MaxDimension)
	}
	switch strings.ToLower(c.Policy) {
	case "first", "best":
	default:
		return fmt.Errorf("unknown match policy %q (want first or best)", c.Policy)
	}
	return nil
}
