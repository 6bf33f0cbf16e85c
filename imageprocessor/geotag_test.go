package imageprocessor

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"monumentfinder/types"
)

func TestLocateWithoutGPSTags(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	path := filepath.Join(t.TempDir(), "untagged.jpg")
	writeTexturedImage(t, path, 5, 64, 64)

	g, err := NewGeoTagger()
	if err != nil {
		t.Fatalf("new geotagger: %v", err)
	}
	defer g.Close()

	loc, err := g.Locate(path)
	if err == nil || !strings.Contains(err.Error(), "GPSLatitude") {
		t.Fatalf("expected missing GPSLatitude error got %v", err)
	}
	if loc != (types.Location{}) {
		t.Fatalf("expected zero location got %+v", loc)
	}
}
