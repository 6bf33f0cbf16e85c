package catalog

import (
	"errors"
	"testing"

	"monumentfinder/types"
)

type fakeImage struct {
	path   string
	loc    types.Location
	closed bool
}

func (f *fakeImage) Path() string             { return f.path }
func (f *fakeImage) KeypointCount() int       { return 100 }
func (f *fakeImage) Location() types.Location { return f.loc }
func (f *fakeImage) Close() error {
	f.closed = true
	return nil
}

type fakeProcessor struct {
	calls     map[string]int
	failures  map[string]error
	locations map[string]types.Location
	images    []*fakeImage
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		calls:     map[string]int{},
		failures:  map[string]error{},
		locations: map[string]types.Location{},
	}
}

func (p *fakeProcessor) Process(path string) (types.Features, error) {
	p.calls[path]++
	if err := p.failures[path]; err != nil {
		return nil, err
	}
	img := &fakeImage{path: path, loc: p.locations[path]}
	p.images = append(p.images, img)
	return img, nil
}

func TestRegisterKeepsInsertionOrderAndDuplicates(t *testing.T) {
	p := newFakeProcessor()
	reg := NewRegistry(p)

	for _, e := range []struct{ name, path string }{
		{"Eiffel", "eiffel.jpg"},
		{"Colosseum", "colosseum.jpg"},
		{"Eiffel", "eiffel.jpg"},
		{"Tour Eiffel", "eiffel.jpg"},
	} {
		if err := reg.Register(e.name, e.path); err != nil {
			t.Fatalf("register %s: %v", e.name, err)
		}
	}

	if reg.Len() != 4 {
		t.Fatalf("expected 4 entries got %d", reg.Len())
	}
	names := []string{"Eiffel", "Colosseum", "Eiffel", "Tour Eiffel"}
	for i, e := range reg.Entries() {
		if e.Name != names[i] {
			t.Fatalf("entry %d: expected %s got %s", i, names[i], e.Name)
		}
	}
	// Each registration processes its image exactly once.
	if p.calls["eiffel.jpg"] != 3 || p.calls["colosseum.jpg"] != 1 {
		t.Fatalf("unexpected processing calls: %v", p.calls)
	}
}

func TestRegisterSurfacesLoadFailure(t *testing.T) {
	p := newFakeProcessor()
	loadErr := errors.New("cannot decode")
	p.failures["broken.jpg"] = loadErr
	reg := NewRegistry(p)

	err := reg.Register("Broken", "broken.jpg")
	if !errors.Is(err, loadErr) {
		t.Fatalf("expected wrapped load error got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("failed registration must not add an entry")
	}
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	reg := NewRegistry(newFakeProcessor())
	if err := reg.Register("", "eiffel.jpg"); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName got %v", err)
	}
}

func TestRegisterLocation(t *testing.T) {
	p := newFakeProcessor()
	tagged := types.Location{Latitude: 41.8902, Longitude: 12.4922}
	p.locations["colosseum.jpg"] = tagged
	reg := NewRegistry(p)

	explicit := types.Location{Latitude: 48.8584, Longitude: 2.2945}
	if err := reg.RegisterAt("Eiffel", "eiffel.jpg", explicit); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("Colosseum", "colosseum.jpg"); err != nil {
		t.Fatalf("register: %v", err)
	}

	entries := reg.Entries()
	if entries[0].Location != explicit {
		t.Fatalf("explicit location lost: %+v", entries[0].Location)
	}
	if entries[1].Location != tagged {
		t.Fatalf("image location not used: %+v", entries[1].Location)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	reg := NewRegistry(newFakeProcessor())
	if err := reg.Register("Eiffel", "eiffel.jpg"); err != nil {
		t.Fatalf("register: %v", err)
	}
	entries := reg.Entries()
	entries[0].Name = "changed"
	if reg.Entries()[0].Name != "Eiffel" {
		t.Fatalf("registry entries were mutated through the returned slice")
	}
}

func TestCloseReleasesImages(t *testing.T) {
	p := newFakeProcessor()
	reg := NewRegistry(p)
	_ = reg.Register("Eiffel", "eiffel.jpg")
	_ = reg.Register("Colosseum", "colosseum.jpg")

	if err := reg.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, img := range p.images {
		if !img.closed {
			t.Fatalf("image %s not closed", img.path)
		}
	}
	if reg.Len() != 0 {
		t.Fatalf("catalog should be empty after close")
	}
}
