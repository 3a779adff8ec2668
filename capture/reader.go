package capture

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Mode selects how the three per-cycle views are obtained.
type Mode string

const (
	// ModeCached reads one frame per cycle and clones it into every view,
	// so all views show the same instant.
	ModeCached Mode = "cached"
	// ModeDecimated reads a fresh frame for every view, advancing the source
	// three frames per cycle.
	ModeDecimated Mode = "decimated"
)

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("unknown frame mode")

// ParseMode validates a mode name. Empty means ModeCached.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeCached, nil
	case ModeCached, ModeDecimated:
		return Mode(s), nil
	}
	return "", errors.Wrapf(ErrUnknownMode, "%q (want cached or decimated)", s)
}

// Views are the frames one pipeline cycle works on. The caller owns them
// and must Close them.
type Views struct {
	Seq       int64
	Annotated gocv.Mat // drawn on and displayed
	Stabilize gocv.Mat // input to the stabilized view
	Segment   gocv.Mat // input to the highlight view
	// Shared is set when all three views are copies of one read.
	Shared bool
}

// Close releases all three frames.
func (v *Views) Close() {
	v.Annotated.Close()
	v.Stabilize.Close()
	v.Segment.Close()
}

// Reader pulls frames from a Source with bounded retries and normalizes them
// to 8-bit BGR.
type Reader struct {
	src        Source
	mode       Mode
	retries    int
	retryDelay time.Duration
	seq        int64
	framesRead int64
}

// NewReader wraps src. retries is the number of extra attempts made after a
// failed read before end of stream is reported.
func NewReader(src Source, mode Mode, retries int, retryDelay time.Duration) *Reader {
	if mode == "" {
		mode = ModeCached
	}
	if retries < 0 {
		retries = 0
	}
	return &Reader{src: src, mode: mode, retries: retries, retryDelay: retryDelay}
}

// Mode reports the acquisition mode.
func (r *Reader) Mode() Mode { return r.mode }

// FramesRead counts frames successfully read from the source.
func (r *Reader) FramesRead() int64 { return r.framesRead }

func (r *Reader) read() (gocv.Mat, bool) {
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			debugMsg("CAPTURE", fmt.Sprintf("read failed, retry %d/%d", attempt, r.retries))
			if r.retryDelay > 0 {
				time.Sleep(r.retryDelay)
			}
		}

		img := gocv.NewMat()
		if ok := r.src.Read(&img); !ok || !isValidFrame(img) || img.Empty() {
			img.Close()
			continue
		}
		if err := toBGR(&img); err != nil {
			debugMsg("CAPTURE", fmt.Sprintf("dropping frame: %v", err))
			img.Close()
			continue
		}
		r.framesRead++
		return img, true
	}
	return gocv.NewMat(), false
}

// First reads the frame used for region selection and tracker setup.
func (r *Reader) First() (gocv.Mat, bool) {
	return r.read()
}

// Next returns the views for one cycle, or false at end of stream.
func (r *Reader) Next() (*Views, bool) {
	first, ok := r.read()
	if !ok {
		return nil, false
	}

	v := &Views{Seq: r.seq, Annotated: first}
	switch r.mode {
	case ModeDecimated:
		second, ok := r.read()
		if !ok {
			first.Close()
			return nil, false
		}
		third, ok := r.read()
		if !ok {
			first.Close()
			second.Close()
			return nil, false
		}
		v.Stabilize, v.Segment = second, third
	default:
		v.Stabilize = first.Clone()
		v.Segment = first.Clone()
		v.Shared = true
	}
	r.seq++
	return v, true
}
