package tracking

import (
	"image"
	"image/color"
	"strconv"

	"fmtts/strategy"
)

// debugMsgFunc is set by main to route messages into the shared logger
var debugMsgFunc func(component, message string, trackID ...string)

// SetDebugFunction allows main package to provide debug function
func SetDebugFunction(fn func(component, message string, trackID ...string)) {
	debugMsgFunc = fn
}

func debugMsg(component, message string, trackID ...string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message, trackID...)
	}
}

// Track is one tracked object: a stable identity, the region the strategy
// last reported and the color it is drawn with.
type Track struct {
	ID       int             // selection index, stable for the run
	Region   image.Rectangle // last successfully tracked region
	Color    color.RGBA      // assigned once at startup
	Lost     bool            // last update failed, Region is stale
	Misses   int             // consecutive failed updates
	Strategy strategy.Strategy
}

// Label is the ID as used in log routing.
func (t Track) Label() string {
	return strconv.Itoa(t.ID)
}

// Centroid of the track's current region.
func (t Track) Centroid() image.Point {
	return Centroid(t.Region)
}

// Offset of the track's centroid from reference.
func (t Track) Offset(reference image.Point) image.Point {
	return OffsetOf(t.Region, reference)
}
