package strategy

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// openCVStrategy adapts a gocv.Tracker to Strategy.
type openCVStrategy struct {
	info        Info
	tracker     gocv.Tracker
	initialized bool
	closed      bool
	mu          sync.Mutex
}

func newOpenCVStrategy(info Info, tracker gocv.Tracker) *openCVStrategy {
	return &openCVStrategy{info: info, tracker: tracker}
}

// Init initializes the wrapped tracker on the first frame
func (s *openCVStrategy) Init(frame gocv.Mat, region image.Rectangle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.Errorf("%s strategy is closed", s.info.Name)
	}
	if s.initialized {
		return ErrAlreadyInitialized
	}
	if region.Empty() {
		return errors.Wrapf(ErrInitFailed, "%s: empty region %v", s.info.Name, region)
	}
	if !s.tracker.Init(frame, region) {
		return errors.Wrapf(ErrInitFailed, "%s: region %v", s.info.Name, region)
	}
	s.initialized = true
	debugMsg("STRATEGY", fmt.Sprintf("%s initialized on %v", s.info.Name, region))
	return nil
}

// Update runs one tracking step
func (s *openCVStrategy) Update(frame gocv.Mat) (image.Rectangle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || s.closed {
		return image.Rectangle{}, false
	}
	return s.tracker.Update(frame)
}

// Close releases the native tracker
func (s *openCVStrategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.tracker.Close()
}

// Info returns information about the strategy
func (s *openCVStrategy) Info() Info {
	return s.info
}

func newMIL() (Strategy, error) {
	return newOpenCVStrategy(Info{Name: "MIL", Backend: "OpenCV", Package: "gocv"}, gocv.NewTrackerMIL()), nil
}

// GOTURN model files, read from the working directory by OpenCV.
var goturnFiles = []string{"goturn.prototxt", "goturn.caffemodel"}

// newGOTURN checks for the model files first: OpenCV aborts the process
// when the network cannot be loaded.
func newGOTURN() (Strategy, error) {
	for _, name := range goturnFiles {
		if _, err := os.Stat(name); err != nil {
			return nil, errors.Wrapf(ErrUnavailableStrategy, "GOTURN needs %s in the working directory: %v", name, err)
		}
	}
	return newOpenCVStrategy(Info{Name: "GOTURN", Backend: "OpenCV DNN", Package: "gocv"}, gocv.NewTrackerGOTURN()), nil
}

func newKCF() (Strategy, error) {
	return newOpenCVStrategy(Info{Name: "KCF", Backend: "OpenCV", Package: "gocv/contrib"}, contrib.NewTrackerKCF()), nil
}

func newCSRT() (Strategy, error) {
	return newOpenCVStrategy(Info{Name: "CSRT", Backend: "OpenCV", Package: "gocv/contrib"}, contrib.NewTrackerCSRT()), nil
}
