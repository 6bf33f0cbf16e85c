package imageprocessor

import (
	"errors"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// writeTexturedImage saves a deterministic pattern of overlapping rectangles,
// which gives corner detectors plenty to find.
func writeTexturedImage(t *testing.T, path string, seed int64, w, h int) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := imaging.New(w, h, color.NRGBA{128, 128, 128, 255})
	for i := 0; i < 120; i++ {
		x0, y0 := rng.Intn(w), rng.Intn(h)
		rw, rh := 8+rng.Intn(w/6), 8+rng.Intn(h/6)
		c := uint8(rng.Intn(256))
		fill := color.NRGBA{c, c, c, 255}
		for y := y0; y < y0+rh && y < h; y++ {
			for x := x0; x < x0+rw && x < w; x++ {
				img.SetNRGBA(x, y, fill)
			}
		}
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save fixture %s: %v", path, err)
	}
}

func newTestHandler(t *testing.T) *FeatureHandler {
	t.Helper()
	h, err := NewFeatureHandler(FeatureHandlerOptions{
		Detector:   DetectorORB,
		Descriptor: DescriptorORB,
		Matcher:    MatcherBruteForceHamming,
	})
	if err != nil {
		t.Fatalf("new feature handler: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestParseAlgorithms(t *testing.T) {
	if d, err := ParseDetector(" AKAZE "); err != nil || d != DetectorAKAZE {
		t.Fatalf("ParseDetector: got %q, %v", d, err)
	}
	if d, err := ParseDescriptorExtractor("sift"); err != nil || d != DescriptorSIFT {
		t.Fatalf("ParseDescriptorExtractor: got %q, %v", d, err)
	}
	if m, err := ParseDescriptorMatcher("FLANN"); err != nil || m != MatcherFlann {
		t.Fatalf("ParseDescriptorMatcher: got %q, %v", m, err)
	}

	if _, err := ParseDetector("surf"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm got %v", err)
	}
	if _, err := ParseDescriptorExtractor("fast"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("fast is a detector only, expected ErrUnknownAlgorithm got %v", err)
	}
	if _, err := ParseDescriptorMatcher("annoy"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm got %v", err)
	}
}

func TestCheckCompatible(t *testing.T) {
	tests := []struct {
		desc    DescriptorExtractor
		matcher DescriptorMatcher
		wantErr bool
	}{
		{DescriptorORB, MatcherBruteForceHamming, false},
		{DescriptorBRISK, MatcherBruteForceHamming2, false},
		{DescriptorSIFT, MatcherBruteForce, false},
		{DescriptorKAZE, MatcherFlann, false},
		{DescriptorORB, MatcherFlann, false},
		{DescriptorSIFT, MatcherBruteForceHamming, true},
		{DescriptorKAZE, MatcherBruteForceHamming2, true},
	}
	for _, tt := range tests {
		err := CheckCompatible(tt.desc, tt.matcher)
		if (err != nil) != tt.wantErr {
			t.Fatalf("CheckCompatible(%s, %s) error = %v, wantErr %v", tt.desc, tt.matcher, err, tt.wantErr)
		}
	}

	if _, err := NewFeatureHandler(FeatureHandlerOptions{
		Detector:   DetectorSIFT,
		Descriptor: DescriptorSIFT,
		Matcher:    MatcherBruteForceHamming,
	}); err == nil {
		t.Fatalf("expected incompatible combination to be rejected")
	}
}

func TestRatioTest(t *testing.T) {
	// Rows: distinct, ambiguous, above the ratio, single neighbour, just under the ratio.
	knn := [][]gocv.DMatch{
		{{QueryIdx: 0, TrainIdx: 4, Distance: 10}, {QueryIdx: 0, TrainIdx: 7, Distance: 40}},
		{{QueryIdx: 1, TrainIdx: 2, Distance: 30}, {QueryIdx: 1, TrainIdx: 3, Distance: 32}},
		{{QueryIdx: 2, TrainIdx: 9, Distance: 18}, {QueryIdx: 2, TrainIdx: 1, Distance: 20}},
		{{QueryIdx: 3, TrainIdx: 5, Distance: 5}},
		{{QueryIdx: 4, TrainIdx: 6, Distance: 16.9}, {QueryIdx: 4, TrainIdx: 8, Distance: 20}},
	}

	good := ratioTest(knn, 0.85)
	if len(good) != 2 {
		t.Fatalf("expected 2 good matches got %d: %+v", len(good), good)
	}
	if good[0].QueryIdx != 0 || good[0].TrainIdx != 4 || good[0].Distance != 10 {
		t.Fatalf("unexpected first match %+v", good[0])
	}
	if good[1].QueryIdx != 4 {
		t.Fatalf("unexpected second match %+v", good[1])
	}
}

func TestSelfMatchProducesManyGoodMatches(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "eiffel.png")
	other := filepath.Join(dir, "colosseum.png")
	writeTexturedImage(t, ref, 1, 480, 360)
	writeTexturedImage(t, other, 99, 480, 360)

	h := newTestHandler(t)

	refImg, err := h.ProcessImage(ref)
	if err != nil {
		t.Fatalf("process reference: %v", err)
	}
	defer refImg.Close()
	queryImg, err := h.ProcessImage(ref)
	if err != nil {
		t.Fatalf("process query: %v", err)
	}
	defer queryImg.Close()
	otherImg, err := h.ProcessImage(other)
	if err != nil {
		t.Fatalf("process other: %v", err)
	}
	defer otherImg.Close()

	if refImg.KeypointCount() == 0 {
		t.Fatalf("expected keypoints on textured image")
	}
	if refImg.Descriptors().Rows() != refImg.KeypointCount() {
		t.Fatalf("descriptor rows %d != keypoints %d", refImg.Descriptors().Rows(), refImg.KeypointCount())
	}

	same, err := h.FindGoodMatches(queryImg, refImg, 0.85)
	if err != nil {
		t.Fatalf("match same: %v", err)
	}
	if len(same) < 18 {
		t.Fatalf("expected at least 18 good matches for identical images got %d", len(same))
	}

	different, err := h.FindGoodMatches(queryImg, otherImg, 0.85)
	if err != nil {
		t.Fatalf("match different: %v", err)
	}
	if len(different) >= len(same) {
		t.Fatalf("unrelated image matched as well as identical one: %d >= %d", len(different), len(same))
	}
}

func TestProcessImageRejectsUndecodableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.txt")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	h := newTestHandler(t)
	if _, err := h.Process(path); !errors.Is(err, ErrImageLoad) {
		t.Fatalf("expected ErrImageLoad got %v", err)
	}
	if _, err := h.Process(filepath.Join(t.TempDir(), "missing.jpg")); !errors.Is(err, ErrImageLoad) {
		t.Fatalf("expected ErrImageLoad for missing file got %v", err)
	}
}

func TestBlankImageHasNoMatches(t *testing.T) {
	dir := t.TempDir()
	blank := filepath.Join(dir, "blank.png")
	if err := imaging.Save(imaging.New(200, 200, color.NRGBA{255, 255, 255, 255}), blank); err != nil {
		t.Fatalf("save: %v", err)
	}
	textured := filepath.Join(dir, "textured.png")
	writeTexturedImage(t, textured, 3, 320, 240)

	h := newTestHandler(t)
	b, err := h.ProcessImage(blank)
	if err != nil {
		t.Fatalf("process blank: %v", err)
	}
	defer b.Close()
	tx, err := h.ProcessImage(textured)
	if err != nil {
		t.Fatalf("process textured: %v", err)
	}
	defer tx.Close()

	matches, err := h.FindGoodMatches(b, tx, 0.85)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches for blank image got %d", len(matches))
	}
}

func TestOrientedLoaderDownscales(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.jpg")
	writeTexturedImage(t, path, 7, 800, 400)

	loader := NewOrientedImageLoader(200)
	if !loader.CanLoad(path) {
		t.Fatalf("oriented loader should accept jpeg")
	}
	mat, err := loader.LoadImage(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer mat.Close()

	if mat.Cols() != 200 || mat.Rows() != 100 {
		t.Fatalf("expected 200x100 got %dx%d", mat.Cols(), mat.Rows())
	}
	if mat.Channels() != 1 {
		t.Fatalf("expected grayscale, got %d channels", mat.Channels())
	}
}

func TestRegistryRoutesByOptions(t *testing.T) {
	plain := NewImageLoaderRegistry(LoaderOptions{})
	if _, ok := plain.GetLoader("a.jpg").(*StandardImageLoader); !ok {
		t.Fatalf("expected standard loader for jpeg by default")
	}
	if _, ok := plain.GetLoader("a.webp").(*OrientedImageLoader); !ok {
		t.Fatalf("expected oriented loader for webp")
	}
	if _, ok := plain.GetLoader("a.tif").(*TiffImageLoader); !ok {
		t.Fatalf("expected tiff loader for tif")
	}

	oriented := NewImageLoaderRegistry(LoaderOptions{AutoOrient: true})
	if _, ok := oriented.GetLoader("a.JPG").(*OrientedImageLoader); !ok {
		t.Fatalf("expected oriented loader for jpeg with auto-orient")
	}
	if _, ok := oriented.GetLoader("notes.txt").(*StandardImageLoader); !ok {
		t.Fatalf("unknown extensions should fall back to the standard loader")
	}
}

func TestRegistryLoadChecksLoaderFirst(t *testing.T) {
	dir := t.TempDir()
	reg := NewImageLoaderRegistry(LoaderOptions{})

	_, err := reg.LoadImage(filepath.Join(dir, "missing.jpg"))
	if !errors.Is(err, ErrImageLoad) || !strings.Contains(err.Error(), "file not found") {
		t.Fatalf("expected file not found load error got %v", err)
	}

	// A PNG under an unknown extension is still decoded by content.
	png := filepath.Join(dir, "snapshot.png")
	writeTexturedImage(t, png, 11, 64, 48)
	data, err := os.ReadFile(png)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	renamed := filepath.Join(dir, "snapshot.dat")
	if err := os.WriteFile(renamed, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mat, err := reg.LoadImage(renamed)
	if err != nil {
		t.Fatalf("load by content: %v", err)
	}
	defer mat.Close()
	if mat.Cols() != 64 || mat.Rows() != 48 {
		t.Fatalf("expected 64x48 got %dx%d", mat.Cols(), mat.Rows())
	}
}
