package scanner

import (
	"path/filepath"
	"strings"
)

// IsImageFile checks if a file extension belongs to an image file
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".webp", ".tif", ".tiff":
		return true
	default:
		return false
	}
}
