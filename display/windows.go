// Package display shows the pipeline surfaces in OpenCV windows and runs the
// interactive region selection.
package display

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"fmtts/overlay"
	"fmtts/pipeline"
)

// Global debug function for display package
var debugMsgFunc func(string, string, ...string)

// SetDebugFunction allows main package to provide debug function
func SetDebugFunction(fn func(string, string, ...string)) {
	debugMsgFunc = fn
}

func debugMsg(component, message string, trackID ...string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message, trackID...)
	}
}

// Window titles.
const (
	MainWindow       = "FMTTS"
	StabilizedWindow = "Stabilized"
	HighlightWindow  = "Highlight"
)

// DefaultSecondarySize is the edge length of the stabilized and highlight
// windows.
const DefaultSecondarySize = 300

// Windows holds one window per pipeline surface.
type Windows struct {
	main       *gocv.Window
	stabilized *gocv.Window
	highlight  *gocv.Window
}

// NewWindows opens the three windows. size <= 0 means DefaultSecondarySize.
func NewWindows(size int) *Windows {
	if size <= 0 {
		size = DefaultSecondarySize
	}
	w := &Windows{
		main:       gocv.NewWindow(MainWindow),
		stabilized: gocv.NewWindow(StabilizedWindow),
		highlight:  gocv.NewWindow(HighlightWindow),
	}
	w.stabilized.ResizeWindow(size, size)
	w.highlight.ResizeWindow(size, size)
	debugMsg("DISPLAY", fmt.Sprintf("windows open, secondary size %d", size))
	return w
}

// MainName is the title of the window region selection runs in.
func (w *Windows) MainName() string { return MainWindow }

func (w *Windows) window(s pipeline.Surface) *gocv.Window {
	switch s {
	case pipeline.SurfaceAnnotated:
		return w.main
	case pipeline.SurfaceStabilized:
		return w.stabilized
	case pipeline.SurfaceHighlight:
		return w.highlight
	}
	return nil
}

// Show draws frame in the window for surface.
func (w *Windows) Show(s pipeline.Surface, frame gocv.Mat) {
	win := w.window(s)
	if win == nil || frame.Empty() {
		return
	}
	win.IMShow(frame)
}

// PollKey waits one millisecond for a key and returns its code, or -1.
func (w *Windows) PollKey() int {
	return w.main.WaitKey(1)
}

// Close destroys all windows.
func (w *Windows) Close() error {
	var first error
	for _, win := range []*gocv.Window{w.main, w.stabilized, w.highlight} {
		if err := win.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ROISelector lets the user draw regions on the first frame.
type ROISelector struct {
	window string
}

// NewROISelector runs selection in the named window.
func NewROISelector(window string) *ROISelector {
	return &ROISelector{window: window}
}

// Select shows frame with the reference axes and blocks until the user
// confirms. Regions with zero area are dropped; cancelling yields none.
func (s *ROISelector) Select(frame gocv.Mat, reference image.Point) ([]image.Rectangle, error) {
	canvas := frame.Clone()
	defer canvas.Close()
	overlay.NewRenderer(reference).DrawAxes(&canvas)

	fmt.Println("Select regions: drag a box and press SPACE or ENTER, repeat, then ESC to start tracking")
	picked := gocv.SelectROIs(s.window, canvas)
	regions := nonEmpty(picked)
	debugMsg("DISPLAY", fmt.Sprintf("%d regions selected", len(regions)))
	return regions, nil
}

func nonEmpty(rects []image.Rectangle) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(rects))
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		out = append(out, r)
	}
	return out
}
