package transform

import (
	"image/color"
	"runtime"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultFloor is the per-channel brightness a pixel must exceed.
	DefaultFloor uint8 = 50
	// minBandRows is the smallest band handed to one goroutine.
	minBandRows = 16
)

// DefaultHighlight is a light green whose channels all exceed DefaultFloor.
var DefaultHighlight = color.RGBA{R: 96, G: 255, B: 96, A: 255}

// ErrHighlightBelowFloor is returned when a highlight color would not itself
// be classified as highlight.
var ErrHighlightBelowFloor = errors.New("highlight color channels must all exceed the brightness floor")

// Segmenter recolors every pixel whose three channels all exceed Floor.
type Segmenter struct {
	floor     uint8
	highlight color.RGBA
	workers   int
}

// NewSegmenter validates the highlight color against floor. workers <= 0
// means one band worker per CPU.
func NewSegmenter(floor uint8, highlight color.RGBA, workers int) (*Segmenter, error) {
	if highlight.R <= floor || highlight.G <= floor || highlight.B <= floor {
		return nil, errors.Wrapf(ErrHighlightBelowFloor, "highlight %v, floor %d", highlight, floor)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Segmenter{floor: floor, highlight: highlight, workers: workers}, nil
}

// Floor returns the brightness floor.
func (s *Segmenter) Floor() uint8 { return s.floor }

// Highlight returns the highlight color.
func (s *Segmenter) Highlight() color.RGBA { return s.highlight }

// Matches reports whether a BGR pixel is classified as highlight.
func (s *Segmenter) Matches(b, g, r uint8) bool {
	return b > s.floor && g > s.floor && r > s.floor
}

// Segment returns a copy of frame with every matching pixel replaced by the
// highlight color. Other pixels are copied unchanged.
func (s *Segmenter) Segment(frame gocv.Mat) (gocv.Mat, error) {
	if err := checkFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	out := frame.Clone()
	data, err := out.DataPtrUint8()
	if err != nil {
		out.Close()
		return gocv.NewMat(), errors.Wrap(err, "accessing frame pixels")
	}

	rows, cols, step := out.Rows(), out.Cols(), out.Step()
	hb, hg, hr := s.highlight.B, s.highlight.G, s.highlight.R

	band := (rows + s.workers - 1) / s.workers
	if band < minBandRows {
		band = minBandRows
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for y0 := 0; y0 < rows; y0 += band {
		y1 := y0 + band
		if y1 > rows {
			y1 = rows
		}
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				row := data[y*step : y*step+cols*3]
				for x := 0; x < len(row); x += 3 {
					if s.Matches(row[x], row[x+1], row[x+2]) {
						row[x], row[x+1], row[x+2] = hb, hg, hr
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		out.Close()
		return gocv.NewMat(), err
	}
	return out, nil
}
