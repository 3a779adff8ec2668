// Package capture opens video sources and turns their frames into the
// per-cycle views the pipeline consumes.
package capture

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrSourceUnavailable is returned when a video source cannot be opened.
var ErrSourceUnavailable = errors.New("video source unavailable")

// Global debug function for capture package
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

// Source is a sequential frame source. *gocv.VideoCapture satisfies it.
type Source interface {
	Read(m *gocv.Mat) bool
	IsOpened() bool
	Close() error
}

// Open opens a camera when uri is a device index and a file or stream URL
// otherwise.
func Open(uri string) (*gocv.VideoCapture, error) {
	if uri == "" {
		return nil, errors.Wrap(ErrSourceUnavailable, "no input given")
	}

	var (
		vc  *gocv.VideoCapture
		err error
	)
	if id, convErr := strconv.Atoi(uri); convErr == nil {
		vc, err = gocv.VideoCaptureDevice(id)
	} else {
		vc, err = gocv.VideoCaptureFile(uri)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "%s: %v", uri, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Wrapf(ErrSourceUnavailable, "%s: not opened", uri)
	}

	debugMsg("CAPTURE", fmt.Sprintf("opened %s", uri))
	return vc, nil
}

// isValidFrame checks a frame without touching its pixels
func isValidFrame(frame gocv.Mat) bool {
	if frame.Ptr() == nil {
		return false
	}
	return frame.Rows() > 0 && frame.Cols() > 0 && frame.Channels() > 0
}

// toBGR converts 1- and 4-channel frames to 3-channel BGR in place.
func toBGR(frame *gocv.Mat) error {
	var code gocv.ColorConversionCode
	switch frame.Channels() {
	case 3:
		return nil
	case 1:
		code = gocv.ColorGrayToBGR
	case 4:
		code = gocv.ColorBGRAToBGR
	default:
		return errors.Errorf("unsupported channel count %d", frame.Channels())
	}

	converted := gocv.NewMat()
	gocv.CvtColor(*frame, &converted, code)
	frame.Close()
	*frame = converted
	return nil
}
