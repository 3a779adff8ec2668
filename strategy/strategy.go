// Package strategy wraps single-object visual trackers behind one interface
// and maps tracker names to constructors.
package strategy

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	// ErrUnknownStrategy is returned for a name no registry entry matches.
	ErrUnknownStrategy = errors.New("unknown tracker strategy")
	// ErrUnavailableStrategy is returned for legacy OpenCV trackers that the
	// OpenCV 4 bindings no longer ship.
	ErrUnavailableStrategy = errors.New("tracker strategy not available in this OpenCV build")
	// ErrAlreadyInitialized is returned when Init is called twice.
	ErrAlreadyInitialized = errors.New("tracker strategy already initialized")
	// ErrInitFailed is returned when the tracker rejects the initial region.
	ErrInitFailed = errors.New("tracker strategy failed to initialize")
)

// Global debug function for strategy package
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

// Strategy is one tracking algorithm bound to exactly one object.
type Strategy interface {
	// Init binds the strategy to the object inside region. It must be called
	// exactly once, before any Update.
	Init(frame gocv.Mat, region image.Rectangle) error
	// Update locates the object in frame. ok is false when the object was
	// lost; the returned rectangle is then meaningless.
	Update(frame gocv.Mat) (region image.Rectangle, ok bool)
	Close() error
	Info() Info
}

// Info describes a strategy instance.
type Info struct {
	Name    string // canonical registry name, e.g. "CSRT"
	Backend string // "OpenCV"
	Package string // "gocv" or "gocv/contrib"
}

// Constructor builds a fresh, uninitialized strategy.
type Constructor func() (Strategy, error)
