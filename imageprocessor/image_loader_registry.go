package imageprocessor

import (
	"path/filepath"
	"strings"
	"sync"

	"monumentfinder/logging"

	"gocv.io/x/gocv"
)

// LoaderOptions selects how images are decoded
type LoaderOptions struct {
	// AutoOrient routes JPEG and PNG through the Go decoders so the EXIF orientation is honored
	AutoOrient bool
	// MaxDimension downscales large images before feature detection. Zero disables it.
	MaxDimension int
}

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders       map[string]ImageLoader
	defaultLoader ImageLoader
	mutex         sync.RWMutex
}

// NewImageLoaderRegistry creates a new image loader registry
func NewImageLoaderRegistry(opts LoaderOptions) *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	registry.registerStandardLoaders()
	registry.registerSpecializedLoaders(opts)

	return registry
}

// registerStandardLoaders registers OpenCV loaders for standard image formats
func (r *ImageLoaderRegistry) registerStandardLoaders() {
	standardLoader := NewStandardImageLoader()
	for _, ext := range extensionsFor(FormatJPEG, FormatPNG, FormatBMP) {
		r.RegisterLoader(ext, standardLoader)
	}

	tiffLoader := NewTiffImageLoader()
	for _, ext := range extensionsFor(FormatTIFF) {
		r.RegisterLoader(ext, tiffLoader)
	}

	r.defaultLoader = standardLoader
}

// registerSpecializedLoaders registers the Go-decoder loader where it is required or requested
func (r *ImageLoaderRegistry) registerSpecializedLoaders(opts LoaderOptions) {
	oriented := NewOrientedImageLoader(opts.MaxDimension)

	for _, ext := range extensionsFor(FormatWEBP) {
		r.RegisterLoader(ext, oriented)
	}

	if opts.AutoOrient || opts.MaxDimension > 0 {
		for _, ext := range extensionsFor(FormatJPEG, FormatPNG) {
			r.RegisterLoader(ext, oriented)
		}
		logging.DebugLog("Registered oriented loader (max dimension %d) for JPEG and PNG", opts.MaxDimension)
	}
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.loaders[ext] = loader
}

// GetLoader returns the appropriate loader for the given path
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := r.loaders[ext]; ok {
		return loader
	}

	return r.defaultLoader
}

// LoadImage loads an image using the appropriate registered loader.
// Unknown extensions still go through the default OpenCV loader, which
// sniffs the content.
func (r *ImageLoaderRegistry) LoadImage(path string) (gocv.Mat, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return gocv.NewMat(), newImageLoadError("no suitable loader found", path)
	}

	if !loader.CanLoad(path) {
		if !fileExists(path) {
			return gocv.NewMat(), newImageLoadError("file not found", path)
		}
		logging.DebugLog("Unrecognized extension for %s, letting OpenCV detect the format", path)
	}

	return loader.LoadImage(path)
}
