package imageprocessor

import (
	"errors"
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// ErrUnknownAlgorithm is returned when a detector, descriptor or matcher name is not recognized
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Detector identifies a keypoint detection algorithm
type Detector string

const (
	DetectorORB   Detector = "orb"
	DetectorAKAZE Detector = "akaze"
	DetectorBRISK Detector = "brisk"
	DetectorKAZE  Detector = "kaze"
	DetectorSIFT  Detector = "sift"
	DetectorFAST  Detector = "fast"
	DetectorGFTT  Detector = "gftt"
	DetectorAGAST Detector = "agast"
)

// DescriptorExtractor identifies a descriptor computation algorithm
type DescriptorExtractor string

const (
	DescriptorORB   DescriptorExtractor = "orb"
	DescriptorAKAZE DescriptorExtractor = "akaze"
	DescriptorBRISK DescriptorExtractor = "brisk"
	DescriptorKAZE  DescriptorExtractor = "kaze"
	DescriptorSIFT  DescriptorExtractor = "sift"
)

// DescriptorMatcher identifies a descriptor matching algorithm
type DescriptorMatcher string

const (
	MatcherBruteForce         DescriptorMatcher = "bruteforce"
	MatcherBruteForceL1       DescriptorMatcher = "bruteforce-l1"
	MatcherBruteForceHamming  DescriptorMatcher = "bruteforce-hamming"
	MatcherBruteForceHamming2 DescriptorMatcher = "bruteforce-hamming2"
	MatcherFlann              DescriptorMatcher = "flann"
)

var detectors = []Detector{DetectorORB, DetectorAKAZE, DetectorBRISK, DetectorKAZE, DetectorSIFT, DetectorFAST, DetectorGFTT, DetectorAGAST}

var descriptors = []DescriptorExtractor{DescriptorORB, DescriptorAKAZE, DescriptorBRISK, DescriptorKAZE, DescriptorSIFT}

var matchers = []DescriptorMatcher{MatcherBruteForce, MatcherBruteForceL1, MatcherBruteForceHamming, MatcherBruteForceHamming2, MatcherFlann}

// ParseDetector converts a case-insensitive name into a Detector
func ParseDetector(name string) (Detector, error) {
	d := Detector(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range detectors {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: detector %q", ErrUnknownAlgorithm, name)
}

// ParseDescriptorExtractor converts a case-insensitive name into a DescriptorExtractor
func ParseDescriptorExtractor(name string) (DescriptorExtractor, error) {
	d := DescriptorExtractor(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range descriptors {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: descriptor %q", ErrUnknownAlgorithm, name)
}

// ParseDescriptorMatcher converts a case-insensitive name into a DescriptorMatcher
func ParseDescriptorMatcher(name string) (DescriptorMatcher, error) {
	m := DescriptorMatcher(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range matchers {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: matcher %q", ErrUnknownAlgorithm, name)
}

// IsBinary reports whether the descriptor produces bit strings compared with Hamming distance
func (d DescriptorExtractor) IsBinary() bool {
	switch d {
	case DescriptorORB, DescriptorAKAZE, DescriptorBRISK:
		return true
	}
	return false
}

// UsesHamming reports whether the matcher compares descriptors bitwise
func (m DescriptorMatcher) UsesHamming() bool {
	return m == MatcherBruteForceHamming || m == MatcherBruteForceHamming2
}

// CheckCompatible rejects combinations OpenCV would abort on
func CheckCompatible(d DescriptorExtractor, m DescriptorMatcher) error {
	if m.UsesHamming() && !d.IsBinary() {
		return fmt.Errorf("matcher %s requires a binary descriptor, %s produces floating point vectors", m, d)
	}
	return nil
}

type keypointDetector interface {
	Detect(src gocv.Mat) []gocv.KeyPoint
	Close() error
}

type descriptorComputer interface {
	Compute(src gocv.Mat, mask gocv.Mat, kps []gocv.KeyPoint) ([]gocv.KeyPoint, gocv.Mat)
	Close() error
}

type descriptorMatcher interface {
	KnnMatch(query, train gocv.Mat, k int) [][]gocv.DMatch
	Close() error
}

func newDetector(d Detector) keypointDetector {
	switch d {
	case DetectorAKAZE:
		a := gocv.NewAKAZE()
		return &a
	case DetectorBRISK:
		b := gocv.NewBRISK()
		return &b
	case DetectorKAZE:
		k := gocv.NewKAZE()
		return &k
	case DetectorSIFT:
		s := gocv.NewSIFT()
		return &s
	case DetectorFAST:
		f := gocv.NewFastFeatureDetector()
		return &f
	case DetectorGFTT:
		g := gocv.NewGFTTDetector()
		return &g
	case DetectorAGAST:
		a := gocv.NewAgastFeatureDetector()
		return &a
	default:
		o := gocv.NewORB()
		return &o
	}
}

func newDescriptorComputer(d DescriptorExtractor) descriptorComputer {
	switch d {
	case DescriptorAKAZE:
		a := gocv.NewAKAZE()
		return &a
	case DescriptorBRISK:
		b := gocv.NewBRISK()
		return &b
	case DescriptorKAZE:
		k := gocv.NewKAZE()
		return &k
	case DescriptorSIFT:
		s := gocv.NewSIFT()
		return &s
	default:
		o := gocv.NewORB()
		return &o
	}
}

func newDescriptorMatcher(m DescriptorMatcher) descriptorMatcher {
	switch m {
	case MatcherFlann:
		f := gocv.NewFlannBasedMatcher()
		return &f
	case MatcherBruteForceL1:
		b := gocv.NewBFMatcherWithParams(gocv.NormL1, false)
		return &b
	case MatcherBruteForceHamming:
		b := gocv.NewBFMatcherWithParams(gocv.NormHamming, false)
		return &b
	case MatcherBruteForceHamming2:
		b := gocv.NewBFMatcherWithParams(gocv.NormHamming2, false)
		return &b
	default:
		b := gocv.NewBFMatcherWithParams(gocv.NormL2, false)
		return &b
	}
}
