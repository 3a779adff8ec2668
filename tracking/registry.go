// Package tracking owns the set of tracked objects and the geometry derived
// from them each frame.
package tracking

import (
	"fmt"
	"image"
	"image/color"
	"runtime"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"fmtts/strategy"
)

// ErrNoRegions is returned when a registry would hold no tracks.
var ErrNoRegions = errors.New("no regions to track")

// Registry holds every track of a run. The set of tracks is fixed once the
// registry is built.
type Registry struct {
	tracks  []*Track
	workers int
}

type updateResult struct {
	region image.Rectangle
	ok     bool
}

// NewRegistry builds one track per region, in order, and initializes each
// strategy on frame. colors must hold at least len(regions) entries. workers
// <= 0 means one update worker per CPU. On error every strategy built so far
// is closed.
func NewRegistry(frame gocv.Mat, regions []image.Rectangle, newStrategy strategy.Constructor, colors []color.RGBA, workers int) (*Registry, error) {
	if len(regions) == 0 {
		return nil, ErrNoRegions
	}
	if len(colors) < len(regions) {
		return nil, errors.Errorf("need %d colors, got %d", len(regions), len(colors))
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	r := &Registry{tracks: make([]*Track, 0, len(regions)), workers: workers}
	for i, region := range regions {
		s, err := newStrategy()
		if err == nil && s == nil {
			err = errors.New("constructor returned no strategy")
		}
		if err != nil {
			r.Close()
			return nil, errors.Wrapf(err, "track %d: constructing strategy", i)
		}
		if err := s.Init(frame, region); err != nil {
			s.Close()
			r.Close()
			return nil, errors.Wrapf(err, "track %d: initializing strategy", i)
		}

		t := &Track{ID: i, Region: region, Color: colors[i], Strategy: s}
		r.tracks = append(r.tracks, t)
		debugMsg("TRACKING", fmt.Sprintf("track %d registered with %s at %v", i, s.Info().Name, region), t.Label())
	}
	return r, nil
}

// Len is the number of tracks.
func (r *Registry) Len() int {
	return len(r.tracks)
}

// UpdateAll runs one update step for every track against frame. A track
// whose strategy reports failure keeps its last region and is marked lost.
// All updates finish before any track is modified, and tracks are modified in
// registration order.
func (r *Registry) UpdateAll(frame gocv.Mat) error {
	results := make([]updateResult, len(r.tracks))

	if r.workers == 1 || len(r.tracks) == 1 {
		for i, t := range r.tracks {
			region, ok := t.Strategy.Update(frame)
			results[i] = updateResult{region: region, ok: ok}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.workers)
		for i, t := range r.tracks {
			g.Go(func() error {
				region, ok := t.Strategy.Update(frame)
				results[i] = updateResult{region: region, ok: ok}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return errors.Wrap(err, "updating tracks")
		}
	}

	for i, t := range r.tracks {
		res := results[i]
		if res.ok {
			if t.Lost {
				debugMsg("TRACKING", fmt.Sprintf("track %d reacquired after %d misses", t.ID, t.Misses), t.Label())
			}
			t.Region = res.region
			t.Lost = false
			t.Misses = 0
			continue
		}
		if !t.Lost {
			debugMsg("TRACKING", fmt.Sprintf("track %d lost, keeping %v", t.ID, t.Region), t.Label())
		}
		t.Lost = true
		t.Misses++
	}
	return nil
}

// Tracks returns a snapshot of every track in registration order.
func (r *Registry) Tracks() []Track {
	out := make([]Track, len(r.tracks))
	for i, t := range r.tracks {
		out[i] = *t
	}
	return out
}

// Close releases every strategy. It returns the first close error.
func (r *Registry) Close() error {
	var first error
	for _, t := range r.tracks {
		if err := t.Strategy.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "closing track %d", t.ID)
		}
	}
	return first
}
