package imageprocessor

import (
	"fmt"

	"monumentfinder/logging"
	"monumentfinder/types"

	"gocv.io/x/gocv"
)

// knnNeighbors is the number of nearest neighbours requested per descriptor for the ratio test
const knnNeighbors = 2

// Image is a loaded grayscale image with its keypoints and descriptors
type Image struct {
	path        string
	mat         gocv.Mat
	keypoints   []gocv.KeyPoint
	descriptors gocv.Mat
	location    types.Location
}

// Path returns the file the image was loaded from
func (i *Image) Path() string { return i.path }

// KeypointCount returns the number of keypoints that carry a descriptor
func (i *Image) KeypointCount() int { return len(i.keypoints) }

// Location returns the geolocation attached to the image
func (i *Image) Location() types.Location { return i.location }

// Keypoints returns the detected keypoints
func (i *Image) Keypoints() []gocv.KeyPoint { return i.keypoints }

// Descriptors returns the descriptor matrix, one row per keypoint
func (i *Image) Descriptors() gocv.Mat { return i.descriptors }

// Close releases the pixel and descriptor matrices
func (i *Image) Close() error {
	if err := i.mat.Close(); err != nil {
		return err
	}
	return i.descriptors.Close()
}

// FeatureHandlerOptions configures the algorithms used by a FeatureHandler
type FeatureHandlerOptions struct {
	Detector   Detector
	Descriptor DescriptorExtractor
	Matcher    DescriptorMatcher
	Loader     LoaderOptions
	// GeoTagger, when set, fills each processed image's location from its GPS tags
	GeoTagger *GeoTagger
}

// FeatureHandler detects keypoints, computes descriptors and finds good
// matches between images with OpenCV.
type FeatureHandler struct {
	detector    keypointDetector
	extractor   descriptorComputer
	matcher     descriptorMatcher
	matcherType DescriptorMatcher
	loader      *ImageLoaderRegistry
	geoTagger   *GeoTagger
}

// NewFeatureHandler creates the OpenCV algorithm objects named in opts
func NewFeatureHandler(opts FeatureHandlerOptions) (*FeatureHandler, error) {
	if err := CheckCompatible(opts.Descriptor, opts.Matcher); err != nil {
		return nil, err
	}

	logging.DebugLog("Feature handler: detector=%s descriptor=%s matcher=%s", opts.Detector, opts.Descriptor, opts.Matcher)

	return &FeatureHandler{
		detector:    newDetector(opts.Detector),
		extractor:   newDescriptorComputer(opts.Descriptor),
		matcher:     newDescriptorMatcher(opts.Matcher),
		matcherType: opts.Matcher,
		loader:      NewImageLoaderRegistry(opts.Loader),
		geoTagger:   opts.GeoTagger,
	}, nil
}

// Detect finds keypoints in the image
func (h *FeatureHandler) Detect(img *Image) {
	img.keypoints = h.detector.Detect(img.mat)
}

// ComputeDescriptors computes one descriptor per keypoint. Keypoints for
// which no descriptor can be computed are dropped by OpenCV.
func (h *FeatureHandler) ComputeDescriptors(img *Image) {
	mask := gocv.NewMat()
	defer mask.Close()

	if len(img.keypoints) == 0 {
		img.descriptors = gocv.NewMat()
		return
	}

	kps, desc := h.extractor.Compute(img.mat, mask, img.keypoints)
	img.keypoints = kps

	// FLANN's kd-trees only index floating point vectors
	if h.matcherType == MatcherFlann && !desc.Empty() && desc.Type() != gocv.MatTypeCV32F {
		converted := gocv.NewMat()
		desc.ConvertTo(&converted, gocv.MatTypeCV32F)
		desc.Close()
		desc = converted
	}
	img.descriptors = desc
}

// ProcessImage loads the image at path and computes its keypoints and descriptors
func (h *FeatureHandler) ProcessImage(path string) (*Image, error) {
	mat, err := h.loader.LoadImage(path)
	if err != nil {
		mat.Close()
		return nil, err
	}

	img := &Image{path: path, mat: mat}
	h.Detect(img)
	h.ComputeDescriptors(img)

	if h.geoTagger != nil {
		loc, err := h.geoTagger.Locate(path)
		if err != nil {
			logging.DebugLog("No GPS position for %s: %v", path, err)
		} else {
			img.location = loc
		}
	}

	logging.DebugLog("Processed %s: %d keypoints", path, img.KeypointCount())
	return img, nil
}

// Process implements the extraction half of the recognizer's feature service
func (h *FeatureHandler) Process(path string) (types.Features, error) {
	img, err := h.ProcessImage(path)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// FindGoodMatches matches every query descriptor against the reference and
// keeps the matches whose nearest neighbour is closer than ratio times the
// second nearest.
func (h *FeatureHandler) FindGoodMatches(query, reference types.Features, ratio float64) ([]types.Correspondence, error) {
	q, ok := query.(*Image)
	if !ok {
		return nil, fmt.Errorf("query %s was not processed by this feature handler", query.Path())
	}
	r, ok := reference.(*Image)
	if !ok {
		return nil, fmt.Errorf("reference %s was not processed by this feature handler", reference.Path())
	}

	if q.descriptors.Empty() || r.descriptors.Empty() {
		return nil, nil
	}

	knn := h.matcher.KnnMatch(q.descriptors, r.descriptors, knnNeighbors)
	return ratioTest(knn, ratio), nil
}

// ratioTest filters k-nearest-neighbour results. Entries with fewer than two
// neighbours cannot be disambiguated and are dropped.
func ratioTest(knn [][]gocv.DMatch, ratio float64) []types.Correspondence {
	var good []types.Correspondence
	for _, n := range knn {
		if len(n) < knnNeighbors {
			continue
		}
		if n[0].Distance < ratio*n[1].Distance {
			good = append(good, types.Correspondence{
				QueryIdx: n[0].QueryIdx,
				TrainIdx: n[0].TrainIdx,
				Distance: n[0].Distance,
			})
		}
	}
	return good
}

// Close releases the OpenCV algorithm objects
func (h *FeatureHandler) Close() error {
	h.detector.Close()
	h.extractor.Close()
	return h.matcher.Close()
}
