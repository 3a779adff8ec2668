// Package overlay draws tracking annotations onto display frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"fmtts/tracking"
)

// debugMsgFunc is set by main to use unified logging
var debugMsgFunc func(component, message string, trackID ...string)

// SetDebugFunction allows main package to provide the debug logger
func SetDebugFunction(fn func(component, message string, trackID ...string)) {
	debugMsgFunc = fn
}

// debugMsg is a wrapper that handles nil checks
func debugMsg(component, message string, trackID ...string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message, trackID...)
	}
}

const (
	boxThickness = 2
	textScale    = 0.8
	// axisTop leaves the first rows free for the offset text.
	axisTop = 10
)

// Renderer handles visualization of tracks relative to a reference point
type Renderer struct {
	reference  image.Point
	axisColor  color.RGBA
	lostColor  color.RGBA
	font       gocv.HersheyFont
	textScale  float64
	lineHeight int
}

// NewRenderer creates a renderer whose axes cross at reference.
func NewRenderer(reference image.Point) *Renderer {
	return &Renderer{
		reference:  reference,
		axisColor:  color.RGBA{0, 255, 0, 255}, // green axes and guide lines
		lostColor:  color.RGBA{255, 0, 0, 255}, // red LOST tag
		font:       gocv.FontHersheyComplexSmall,
		textScale:  textScale,
		lineHeight: 20,
	}
}

// Reference returns the point the axes cross at.
func (r *Renderer) Reference() image.Point {
	return r.reference
}

// DrawAxes draws a horizontal and a vertical line through the reference
// point, spanning the frame.
func (r *Renderer) DrawAxes(img *gocv.Mat) {
	cols, rows := img.Cols(), img.Rows()
	gocv.Line(img, image.Pt(r.reference.X, axisTop), image.Pt(r.reference.X, rows), r.axisColor, 1)
	gocv.Line(img, image.Pt(0, r.reference.Y), image.Pt(cols, r.reference.Y), r.axisColor, 1)
}

// TextOrigins returns where the X= and Y= lines of the i-th track are drawn.
func (r *Renderer) TextOrigins(i int) (image.Point, image.Point) {
	h := r.lineHeight
	return image.Pt(10, h*(i+1)+h*i), image.Pt(10, h*(i+1)+h*(i+1))
}

// DrawTrack draws the i-th track: its box, a centroid marker, a guide line
// to the reference point and the offset text. It returns the offset drawn.
func (r *Renderer) DrawTrack(img *gocv.Mat, i int, t tracking.Track) image.Point {
	center := t.Centroid()
	offset := t.Offset(r.reference)

	gocv.Rectangle(img, t.Region, t.Color, boxThickness)
	gocv.Circle(img, center, 1, r.axisColor, 10)
	gocv.Line(img, center, r.reference, r.axisColor, 1)

	xPos, yPos := r.TextOrigins(i)
	gocv.PutText(img, fmt.Sprintf("X=%d", offset.X), xPos, r.font, r.textScale, t.Color, 1)
	gocv.PutText(img, fmt.Sprintf("Y=%d", offset.Y), yPos, r.font, r.textScale, t.Color, 1)

	if t.Lost {
		tagPos := image.Pt(t.Region.Min.X, t.Region.Min.Y-6)
		gocv.PutText(img, "LOST", tagPos, r.font, r.textScale, r.lostColor, 1)
	}
	return offset
}

// Draw draws the axes and every track in order, returning the offsets in the
// same order.
func (r *Renderer) Draw(img *gocv.Mat, tracks []tracking.Track) []image.Point {
	r.DrawAxes(img)
	offsets := make([]image.Point, len(tracks))
	for i, t := range tracks {
		offsets[i] = r.DrawTrack(img, i, t)
		debugMsg("OVERLAY", fmt.Sprintf("X=%d Y=%d", offsets[i].X, offsets[i].Y), t.Label())
	}
	return offsets
}
