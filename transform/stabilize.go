// Package transform holds the per-frame image operations: the rigid
// translation that stabilizes a frame on a tracked anchor, and the threshold
// segmenter that highlights bright pixels.
package transform

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrUnsupportedFrame is returned for frames that are empty or not 8-bit BGR.
var ErrUnsupportedFrame = errors.New("frame must be a non-empty 8-bit 3-channel image")

// DefaultTarget is where the anchor lands in the stabilized view.
var DefaultTarget = image.Point{X: 90, Y: 315}

// BorderFill is written into pixels uncovered by the shift.
var BorderFill = color.RGBA{}

func checkFrame(frame gocv.Mat) error {
	if frame.Empty() || frame.Type() != gocv.MatTypeCV8UC3 {
		return ErrUnsupportedFrame
	}
	return nil
}

// Translation is the shift that moves anchor onto target.
func Translation(anchor, target image.Point) image.Point {
	return target.Sub(anchor)
}

// Stabilize returns a copy of frame translated so that anchor lands on
// target. The shift is whole pixels only and uncovered pixels are filled with
// BorderFill. frame is not modified.
func Stabilize(frame gocv.Mat, anchor, target image.Point) (gocv.Mat, error) {
	if err := checkFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	shift := Translation(anchor, target)
	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer m.Close()
	m.SetDoubleAt(0, 0, 1)
	m.SetDoubleAt(0, 1, 0)
	m.SetDoubleAt(0, 2, float64(shift.X))
	m.SetDoubleAt(1, 0, 0)
	m.SetDoubleAt(1, 1, 1)
	m.SetDoubleAt(1, 2, float64(shift.Y))

	out := gocv.NewMat()
	gocv.WarpAffineWithParams(frame, &out, m, image.Pt(frame.Cols(), frame.Rows()),
		gocv.InterpolationNearestNeighbor, gocv.BorderConstant, BorderFill)
	if out.Empty() {
		out.Close()
		return gocv.NewMat(), errors.New("warp produced an empty frame")
	}
	return out, nil
}
