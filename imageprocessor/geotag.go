package imageprocessor

import (
	"fmt"

	"monumentfinder/types"

	"github.com/barasher/go-exiftool"
)

// GeoTagger reads GPS positions from image metadata with exiftool
type GeoTagger struct {
	et *exiftool.Exiftool
}

// NewGeoTagger starts a long-lived exiftool process. It fails when the
// exiftool binary is not installed.
func NewGeoTagger() (*GeoTagger, error) {
	// Numeric output gives signed decimal degrees instead of "48 deg 51' N"
	et, err := exiftool.NewExiftool(exiftool.NoPrintConversion())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exiftool: %w", err)
	}
	return &GeoTagger{et: et}, nil
}

// Locate returns the GPS position stored in the image. Latitude and
// longitude are required; altitude and image direction are optional.
func (g *GeoTagger) Locate(path string) (types.Location, error) {
	var loc types.Location

	fileInfos := g.et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return loc, fmt.Errorf("no metadata extracted from %s", path)
	}

	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return loc, fileInfo.Err
	}

	lat, err := fileInfo.GetFloat("GPSLatitude")
	if err != nil {
		return loc, fmt.Errorf("GPSLatitude: %w", err)
	}
	lon, err := fileInfo.GetFloat("GPSLongitude")
	if err != nil {
		return loc, fmt.Errorf("GPSLongitude: %w", err)
	}
	loc.Latitude = lat
	loc.Longitude = lon

	if alt, err := fileInfo.GetFloat("GPSAltitude"); err == nil {
		loc.Altitude = alt
	}
	if dir, err := fileInfo.GetFloat("GPSImgDirection"); err == nil {
		loc.Direction = dir
	}

	return loc, nil
}

// Close stops the exiftool process
func (g *GeoTagger) Close() error {
	return g.et.Close()
}
