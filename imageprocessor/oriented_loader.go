package imageprocessor

import (
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	_ "golang.org/x/image/webp"

	"monumentfinder/logging"
)

// OrientedImageLoader decodes images in Go, applying the EXIF orientation
// tag and an optional downscale before handing the pixels to OpenCV.
// Phone photographs are frequently stored sideways; without rotation their
// keypoints never line up with an upright reference.
type OrientedImageLoader struct {
	BaseImageLoader
	// MaxDimension bounds the longest side in pixels. Zero keeps the original size.
	MaxDimension int
}

// NewOrientedImageLoader creates a loader for every format the Go decoders know
func NewOrientedImageLoader(maxDimension int) *OrientedImageLoader {
	return &OrientedImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatTIFF,
				FormatBMP,
				FormatWEBP,
			},
		},
		MaxDimension: maxDimension,
	}
}

// LoadImage decodes, orients, resizes and converts the image to grayscale
func (l *OrientedImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return gocv.NewMat(), newImageLoadError(err.Error(), path)
	}

	img = l.fit(img)
	gray := imaging.Grayscale(img)

	bgr, err := gocv.ImageToMatRGB(gray)
	if err != nil {
		return gocv.NewMat(), newImageLoadError(err.Error(), path)
	}
	defer bgr.Close()

	mat := gocv.NewMat()
	gocv.CvtColor(bgr, &mat, gocv.ColorBGRToGray)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), newImageLoadError("empty image after conversion", path)
	}
	return mat, nil
}

func (l *OrientedImageLoader) fit(img image.Image) image.Image {
	if l.MaxDimension <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= l.MaxDimension && b.Dy() <= l.MaxDimension {
		return img
	}
	logging.DebugLog("Downscaling %dx%d image to fit %d", b.Dx(), b.Dy(), l.MaxDimension)
	return imaging.Fit(img, l.MaxDimension, l.MaxDimension, imaging.Lanczos)
}
