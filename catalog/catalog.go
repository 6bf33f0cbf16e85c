// Package catalog holds the ordered list of reference monuments.
package catalog

import (
	"errors"
	"fmt"

	"monumentfinder/logging"
	"monumentfinder/types"
)

// ErrEmptyName is returned when registering a monument without a name
var ErrEmptyName = errors.New("monument name is empty")

// Processor turns an image file into its computed features
type Processor interface {
	Process(path string) (types.Features, error)
}

// Entry is a registered monument and its reference image
type Entry struct {
	Name     string
	Image    types.Features
	Location types.Location
}

// Registry is an append-only, ordered catalog. Insertion order is the scan
// order used during recognition. Duplicate names are kept as separate entries.
type Registry struct {
	processor Processor
	entries   []Entry
}

// NewRegistry creates an empty catalog that processes images with p
func NewRegistry(p Processor) *Registry {
	return &Registry{processor: p}
}

// Register loads the reference image, computes its features once and appends it
func (r *Registry) Register(name, imagePath string) error {
	return r.RegisterAt(name, imagePath, types.Location{})
}

// RegisterAt is Register with explicit coordinates. A zero location falls
// back to whatever the image itself carries.
func (r *Registry) RegisterAt(name, imagePath string, loc types.Location) error {
	if name == "" {
		return fmt.Errorf("%w: %s", ErrEmptyName, imagePath)
	}

	img, err := r.processor.Process(imagePath)
	if err != nil {
		return fmt.Errorf("cannot register monument %s: %w", name, err)
	}

	if loc.IsZero() {
		loc = img.Location()
	}

	r.entries = append(r.entries, Entry{Name: name, Image: img, Location: loc})
	logging.DebugLog("Registered monument %s from %s (%d keypoints)", name, imagePath, img.KeypointCount())
	return nil
}

// Entries returns the catalog in insertion order. The slice is a copy; the
// images are shared with the registry and must not be closed by the caller.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered entries
func (r *Registry) Len() int {
	return len(r.entries)
}

// Close releases every reference image and empties the catalog
func (r *Registry) Close() error {
	var errs []error
	for _, e := range r.entries {
		if err := e.Image.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", e.Name, err))
		}
	}
	r.entries = nil
	return errors.Join(errs...)
}
