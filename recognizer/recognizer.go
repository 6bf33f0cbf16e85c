// Package recognizer decides which catalog monument, if any, a query image shows.
package recognizer

import (
	"fmt"
	"strings"

	"monumentfinder/catalog"
	"monumentfinder/logging"
	"monumentfinder/types"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultRatio          = 0.85
	DefaultMatchThreshold = 18
)

// Policy selects which catalog entry wins when several clear the threshold
type Policy string

const (
	// PolicyFirst stops at the first entry, in insertion order, that clears the threshold
	PolicyFirst Policy = "first"
	// PolicyBest compares every entry and keeps the highest count; the earliest entry wins ties
	PolicyBest Policy = "best"
)

// ParsePolicy converts a case-insensitive name into a Policy
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(name))); p {
	case PolicyFirst, PolicyBest:
		return p, nil
	case "":
		return PolicyFirst, nil
	}
	return "", fmt.Errorf("unknown match policy %q", name)
}

// FeatureService extracts features from images and finds good matches between them
type FeatureService interface {
	catalog.Processor
	FindGoodMatches(query, reference types.Features, ratio float64) ([]types.Correspondence, error)
}

// Visualizer displays the correspondences of a successful recognition.
// Implementations may block, e.g. waiting for a key press.
type Visualizer interface {
	ShowMatches(query, reference types.Features, matches []types.Correspondence) error
}

// Options configures an Engine
type Options struct {
	Ratio          float64
	MatchThreshold int
	Policy         Policy
	ShowMatches    bool
	// Visualizer is only called when ShowMatches is set
	Visualizer Visualizer
}

// DefaultOptions returns the standard ratio, threshold and first-match policy
func DefaultOptions() Options {
	return Options{
		Ratio:          DefaultRatio,
		MatchThreshold: DefaultMatchThreshold,
		Policy:         PolicyFirst,
	}
}

// Engine matches query images against a catalog
type Engine struct {
	features FeatureService
	catalog  *catalog.Registry
	opts     Options
}

// New creates an engine over cat. Zero option values take the defaults.
func New(features FeatureService, cat *catalog.Registry, opts Options) *Engine {
	if opts.Ratio == 0 {
		opts.Ratio = DefaultRatio
	}
	if opts.MatchThreshold == 0 {
		opts.MatchThreshold = DefaultMatchThreshold
	}
	if opts.Policy == "" {
		opts.Policy = PolicyFirst
	}
	return &Engine{features: features, catalog: cat, opts: opts}
}

// Options returns the effective configuration
func (e *Engine) Options() Options {
	return e.opts
}

// Recognize processes the query image and looks it up in the catalog. Not
// finding a monument is reported through Recognition.Found, not as an error.
func (e *Engine) Recognize(queryPath string) (types.Recognition, error) {
	rec := types.Recognition{QueryPath: queryPath}

	query, err := e.features.Process(queryPath)
	if err != nil {
		return rec, fmt.Errorf("cannot process query image: %w", err)
	}
	defer query.Close()

	entry, result, found, err := e.scan(query)
	if err != nil {
		return rec, err
	}

	if found {
		rec.Found = true
		rec.Name = entry.Name
		rec.Matches = result.Count
		rec.Location = entry.Location

		if !entry.Location.IsZero() {
			logging.DebugLog("%s is at %.6f, %.6f", entry.Name, entry.Location.Latitude, entry.Location.Longitude)
		}

		if e.opts.ShowMatches && e.opts.Visualizer != nil {
			if err := e.opts.Visualizer.ShowMatches(query, entry.Image, result.Matches); err != nil {
				logging.LogWarning("Cannot show matches for %s: %v", queryPath, err)
			}
		}
	}

	logging.LogRecognition(queryPath, rec.Name, rec.Matches, rec.Found)
	return rec, nil
}

// scan walks the catalog in insertion order according to the policy
func (e *Engine) scan(query types.Features) (catalog.Entry, types.MatchResult, bool, error) {
	var (
		bestEntry  catalog.Entry
		bestResult types.MatchResult
		found      bool
	)

	for _, entry := range e.catalog.Entries() {
		result, err := e.Compare(query, entry)
		if err != nil {
			return catalog.Entry{}, types.MatchResult{}, false, err
		}

		logging.DebugLog("%s vs %s: %d good matches (mean distance %.2f, sd %.2f)",
			query.Path(), entry.Name, result.Count, result.MeanDistance, result.StdDistance)

		if result.Count < e.opts.MatchThreshold {
			continue
		}
		if e.opts.Policy == PolicyFirst {
			return entry, result, true, nil
		}
		if !found || result.Count > bestResult.Count {
			bestEntry, bestResult, found = entry, result, true
		}
	}

	return bestEntry, bestResult, found, nil
}

// Compare finds the good matches between the query and one catalog entry
func (e *Engine) Compare(query types.Features, entry catalog.Entry) (types.MatchResult, error) {
	matches, err := e.features.FindGoodMatches(query, entry.Image, e.opts.Ratio)
	if err != nil {
		return types.MatchResult{}, fmt.Errorf("cannot match %s against %s: %w", query.Path(), entry.Name, err)
	}
	return summarize(entry.Name, matches), nil
}

func summarize(name string, matches []types.Correspondence) types.MatchResult {
	res := types.MatchResult{Name: name, Matches: matches, Count: len(matches)}
	if len(matches) == 0 {
		return res
	}

	distances := make([]float64, len(matches))
	for i, m := range matches {
		distances[i] = m.Distance
	}
	res.MeanDistance = stat.Mean(distances, nil)
	if len(distances) > 1 {
		res.StdDistance = stat.StdDev(distances, nil)
	}
	return res
}
