package imageprocessor

import (
	"fmt"
	"image/color"

	"monumentfinder/types"

	"gocv.io/x/gocv"
)

// MatchColor is the highlight used for drawn correspondences (blue)
var MatchColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}

// WindowVisualizer draws the good matches between a query and its reference
// side by side and waits for a key press.
type WindowVisualizer struct {
	name   string
	window *gocv.Window
}

// NewWindowVisualizer creates a visualizer. The window is opened on first use
// so that constructing it does not require a display.
func NewWindowVisualizer(name string) *WindowVisualizer {
	return &WindowVisualizer{name: name}
}

// ShowMatches renders the correspondences and blocks until a key is pressed
func (v *WindowVisualizer) ShowMatches(query, reference types.Features, matches []types.Correspondence) error {
	q, ok := query.(*Image)
	if !ok {
		return fmt.Errorf("cannot draw %s: not an OpenCV image", query.Path())
	}
	r, ok := reference.(*Image)
	if !ok {
		return fmt.Errorf("cannot draw %s: not an OpenCV image", reference.Path())
	}

	dmatches := make([]gocv.DMatch, 0, len(matches))
	for _, m := range matches {
		dmatches = append(dmatches, gocv.DMatch{QueryIdx: m.QueryIdx, TrainIdx: m.TrainIdx, Distance: m.Distance})
	}

	out := gocv.NewMat()
	defer out.Close()
	gocv.DrawMatches(q.mat, q.keypoints, r.mat, r.keypoints, dmatches, &out, MatchColor, MatchColor, nil, gocv.DrawDefault)

	if v.window == nil {
		v.window = gocv.NewWindow(v.name)
		v.window.SetWindowProperty(gocv.WindowPropertyAutosize, gocv.WindowNormal)
	}
	v.window.IMShow(out)
	v.window.WaitKey(0)
	return nil
}

// Close destroys the window if it was opened
func (v *WindowVisualizer) Close() error {
	if v.window == nil {
		return nil
	}
	err := v.window.Close()
	v.window = nil
	return err
}
