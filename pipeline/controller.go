// Package pipeline runs the per-frame loop: track every region, report its
// offset, stabilize on the anchor track and highlight the stabilized view.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"fmtts/capture"
	"fmtts/overlay"
	"fmtts/strategy"
	"fmtts/tracking"
	"fmtts/transform"
)

// Global debug function for pipeline package
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

// EscapeKey is the key code that ends the loop.
const EscapeKey = 27

// ErrAlreadyRun is returned when Run is called on a controller that has left
// StateInit.
var ErrAlreadyRun = errors.New("controller already run")

// State of the frame loop.
type State int

const (
	StateInit State = iota
	StateTracking
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateTracking:
		return "TRACKING"
	case StateTerminated:
		return "TERMINATED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Reason explains why the loop terminated.
type Reason string

const (
	ReasonNothingToTrack Reason = "nothing-to-track"
	ReasonEndOfStream    Reason = "end-of-stream"
	ReasonCancelled      Reason = "cancelled"
	ReasonFailed         Reason = "failed"
)

// Surface names one of the displayed images.
type Surface int

const (
	SurfaceAnnotated Surface = iota
	SurfaceStabilized
	SurfaceHighlight
)

func (s Surface) String() string {
	switch s {
	case SurfaceAnnotated:
		return "annotated"
	case SurfaceStabilized:
		return "stabilized"
	case SurfaceHighlight:
		return "highlight"
	}
	return fmt.Sprintf("Surface(%d)", int(s))
}

// FrameSource delivers the INIT frame and then one set of views per cycle.
// *capture.Reader satisfies it.
type FrameSource interface {
	First() (gocv.Mat, bool)
	Next() (*capture.Views, bool)
	FramesRead() int64
}

// Selector asks for the regions to track on the first frame. An empty result
// means there is nothing to track.
type Selector interface {
	Select(frame gocv.Mat, reference image.Point) ([]image.Rectangle, error)
}

// Display shows frames and reports the last key pressed, or -1.
type Display interface {
	Show(surface Surface, frame gocv.Mat)
	PollKey() int
}

// CycleReport is emitted to the observer after every completed cycle.
type CycleReport struct {
	Seq         int64
	Tracks      []tracking.Track
	Offsets     []image.Point
	Anchor      image.Point
	Translation image.Point
	Duration    time.Duration
}

// Options configure a Controller. Zero values fall back to the package
// defaults.
type Options struct {
	Strategy   string
	Strategies *strategy.Registry // nil means strategy.Default()
	Anchor     tracking.AnchorPolicy
	Reference  *image.Point // nil means the center of the first frame
	Target     image.Point
	Seed       int64
	Workers    int
	Segmenter  *transform.Segmenter // nil means default floor and highlight
	StatsEvery int64                // log a stats line every N cycles, 0 disables
	Smooth     bool                 // filter the anchor with a Kalman smoother
	Observer   func(CycleReport)
}

// Result summarizes a finished run.
type Result struct {
	Reason     Reason
	Cycles     int64
	FramesRead int64
}

// Controller owns the frame loop state machine.
type Controller struct {
	frames    FrameSource
	selector  Selector
	display   Display
	opts      Options
	segmenter *transform.Segmenter

	state     State
	reference image.Point
	renderer  *overlay.Renderer
	registry  *tracking.Registry
	smoother  *tracking.Smoother
	stats     *Stats
	cycles    int64
}

// NewController checks its collaborators and fills in defaults.
func NewController(frames FrameSource, selector Selector, display Display, opts Options) (*Controller, error) {
	if frames == nil || selector == nil || display == nil {
		return nil, errors.New("frame source, selector and display are required")
	}
	if opts.Strategies == nil {
		opts.Strategies = strategy.Default()
	}
	if opts.Strategy == "" {
		opts.Strategy = strategy.DefaultName
	}
	if opts.Anchor == "" {
		opts.Anchor = tracking.AnchorFirst
	}
	seg := opts.Segmenter
	if seg == nil {
		var err error
		seg, err = transform.NewSegmenter(transform.DefaultFloor, transform.DefaultHighlight, opts.Workers)
		if err != nil {
			return nil, err
		}
	}
	c := &Controller{
		frames:    frames,
		selector:  selector,
		display:   display,
		opts:      opts,
		segmenter: seg,
		state:     StateInit,
		stats:     NewStats(DefaultStatsWindow),
	}
	if opts.Smooth {
		c.smoother = tracking.NewSmoother(tracking.DefaultProcessNoise, tracking.DefaultMeasurementNoise)
	}
	return c, nil
}

// State reports where the loop is.
func (c *Controller) State() State { return c.state }

// Reference is the resolved reference point. It is valid once INIT has read
// the first frame.
func (c *Controller) Reference() image.Point { return c.reference }

// Stats exposes the timing statistics.
func (c *Controller) Stats() *Stats { return c.stats }

// Run drives the loop until the stream ends, the user escapes, ctx is done,
// or a fatal error occurs. The caller still owns and closes the source.
func (c *Controller) Run(ctx context.Context) (Result, error) {
	if c.state != StateInit {
		return Result{}, ErrAlreadyRun
	}
	defer c.terminate()

	reason, err := c.init(ctx)
	if err != nil {
		return c.result(ReasonFailed), err
	}
	if reason != "" {
		return c.result(reason), nil
	}

	c.state = StateTracking
	debugMsg("PIPELINE", fmt.Sprintf("tracking %d regions with %s, anchor %s, reference %v, target %v",
		c.registry.Len(), c.opts.Strategy, c.opts.Anchor, c.reference, c.opts.Target))

	for {
		reason, err := c.cycle(ctx)
		if err != nil {
			return c.result(ReasonFailed), err
		}
		if reason != "" {
			return c.result(reason), nil
		}
	}
}

func (c *Controller) result(reason Reason) Result {
	debugMsg("PIPELINE", fmt.Sprintf("terminated: %s after %d cycles", reason, c.cycles))
	return Result{Reason: reason, Cycles: c.cycles, FramesRead: c.frames.FramesRead()}
}

func (c *Controller) terminate() {
	if c.registry != nil {
		if err := c.registry.Close(); err != nil {
			debugMsg("PIPELINE", fmt.Sprintf("closing tracks: %v", err))
		}
		c.registry = nil
	}
	if c.cycles > 0 {
		debugMsg("STATS", c.stats.Report())
	}
	c.state = StateTerminated
}

func (c *Controller) init(ctx context.Context) (Reason, error) {
	// Reject the tracker name before any frame is read or track is built.
	newStrategy, err := c.opts.Strategies.Lookup(c.opts.Strategy)
	if err != nil {
		return "", errors.Wrap(err, "selecting tracker")
	}
	if ctx.Err() != nil {
		return ReasonCancelled, nil
	}

	start := time.Now()
	first, ok := c.frames.First()
	c.stats.Record(StageCapture, time.Since(start))
	if !ok {
		return ReasonEndOfStream, nil
	}
	defer first.Close()

	if c.opts.Reference != nil {
		c.reference = *c.opts.Reference
	} else {
		c.reference = tracking.FrameCenter(first.Cols(), first.Rows())
	}
	c.renderer = overlay.NewRenderer(c.reference)

	regions, err := c.selector.Select(first, c.reference)
	if err != nil {
		return "", errors.Wrap(err, "selecting regions")
	}
	if ctx.Err() != nil {
		return ReasonCancelled, nil
	}
	if len(regions) == 0 {
		debugMsg("PIPELINE", "no regions selected")
		return ReasonNothingToTrack, nil
	}

	colors := tracking.Palette(c.opts.Seed, len(regions))
	reg, err := tracking.NewRegistry(first, regions, newStrategy, colors, c.opts.Workers)
	if err != nil {
		return "", errors.Wrap(err, "building tracks")
	}
	c.registry = reg
	return "", nil
}

// cycle runs one TRACKING step. A non-empty reason ends the loop.
func (c *Controller) cycle(ctx context.Context) (Reason, error) {
	start := time.Now()

	views, ok := c.frames.Next()
	c.stats.Record(StageCapture, time.Since(start))
	if !ok {
		return ReasonEndOfStream, nil
	}
	defer views.Close()

	stageStart := time.Now()
	if err := c.registry.UpdateAll(views.Annotated); err != nil {
		return "", err
	}
	tracks := c.registry.Tracks()
	offsets := c.renderer.Draw(&views.Annotated, tracks)
	c.stats.Record(StageTracking, time.Since(stageStart))

	anchor, ok := c.opts.Anchor.Anchor(tracks)
	if !ok {
		return "", errors.New("no anchor available")
	}
	if c.smoother != nil {
		anchor = c.smoother.Update(anchor)
	}

	stageStart = time.Now()
	stabilized, err := transform.Stabilize(views.Stabilize, anchor, c.opts.Target)
	if err != nil {
		return "", errors.Wrapf(err, "frame %d: stabilizing", views.Seq)
	}
	defer stabilized.Close()

	// Cached views are one instant, so the stabilized frame is reused.
	segInput := stabilized
	if !views.Shared {
		segInput, err = transform.Stabilize(views.Segment, anchor, c.opts.Target)
		if err != nil {
			return "", errors.Wrapf(err, "frame %d: stabilizing segmentation view", views.Seq)
		}
		defer segInput.Close()
	}

	highlight, err := c.segmenter.Segment(segInput)
	if err != nil {
		return "", errors.Wrapf(err, "frame %d: segmenting", views.Seq)
	}
	defer highlight.Close()
	c.stats.Record(StageTransform, time.Since(stageStart))

	stageStart = time.Now()
	c.display.Show(SurfaceAnnotated, views.Annotated)
	c.display.Show(SurfaceStabilized, stabilized)
	c.display.Show(SurfaceHighlight, highlight)
	key := c.display.PollKey()
	c.stats.Record(StageDisplay, time.Since(stageStart))

	elapsed := time.Since(start)
	c.stats.RecordCycle(elapsed)
	c.cycles++

	if c.opts.Observer != nil {
		c.opts.Observer(CycleReport{
			Seq:         views.Seq,
			Tracks:      tracks,
			Offsets:     offsets,
			Anchor:      anchor,
			Translation: transform.Translation(anchor, c.opts.Target),
			Duration:    elapsed,
		})
	}
	if c.opts.StatsEvery > 0 && c.cycles%c.opts.StatsEvery == 0 {
		debugMsg("STATS", c.stats.Report())
	}

	if key == EscapeKey {
		debugMsg("PIPELINE", "escape pressed")
		return ReasonCancelled, nil
	}
	if ctx.Err() != nil {
		return ReasonCancelled, nil
	}
	return "", nil
}
