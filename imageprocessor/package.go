// Package imageprocessor loads images and runs OpenCV feature detection,
// description and matching on them.
package imageprocessor
