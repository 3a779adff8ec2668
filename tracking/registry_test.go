package tracking

import (
	"image"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"fmtts/strategy"
)

// scriptedStrategy moves its region by step every update and fails on the
// updates listed in failOn (1-based).
type scriptedStrategy struct {
	region  image.Rectangle
	step    image.Point
	updates int
	failOn  map[int]bool
	initErr error
	closed  bool
}

func (s *scriptedStrategy) Init(_ gocv.Mat, region image.Rectangle) error {
	if s.initErr != nil {
		return s.initErr
	}
	s.region = region
	return nil
}

func (s *scriptedStrategy) Update(gocv.Mat) (image.Rectangle, bool) {
	s.updates++
	if s.failOn[s.updates] {
		return image.Rectangle{}, false
	}
	s.region = s.region.Add(s.step)
	return s.region, true
}

func (s *scriptedStrategy) Close() error {
	s.closed = true
	return nil
}

func (s *scriptedStrategy) Info() strategy.Info {
	return strategy.Info{Name: "SCRIPTED"}
}

type scriptedFactory struct {
	built []*scriptedStrategy
	steps []image.Point
	fail  map[int]map[int]bool
	bad   int // index whose Init fails, -1 for none
}

func (f *scriptedFactory) ctor() (strategy.Strategy, error) {
	i := len(f.built)
	s := &scriptedStrategy{failOn: f.fail[i]}
	if i < len(f.steps) {
		s.step = f.steps[i]
	}
	if i == f.bad {
		s.initErr = errors.New("rejected region")
	}
	f.built = append(f.built, s)
	return s, nil
}

func testFrame(t *testing.T) gocv.Mat {
	t.Helper()
	frame := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	return frame
}

func TestNewRegistryRejectsEmptySelection(t *testing.T) {
	f := &scriptedFactory{bad: -1}
	_, err := NewRegistry(testFrame(t), nil, f.ctor, nil, 1)
	assert.True(t, errors.Is(err, ErrNoRegions))
	assert.Empty(t, f.built)
}

func TestNewRegistryClosesOnInitFailure(t *testing.T) {
	f := &scriptedFactory{bad: 1}
	regions := []image.Rectangle{image.Rect(0, 0, 4, 4), image.Rect(4, 4, 8, 8), image.Rect(1, 1, 2, 2)}

	_, err := NewRegistry(testFrame(t), regions, f.ctor, Palette(0, 3), 1)
	require.Error(t, err)
	require.Len(t, f.built, 2)
	assert.True(t, f.built[0].closed)
	assert.True(t, f.built[1].closed)
}

func TestNewRegistryZeroWorkersUsesEveryCPU(t *testing.T) {
	f := &scriptedFactory{bad: -1}
	r, err := NewRegistry(testFrame(t), []image.Rectangle{image.Rect(0, 0, 2, 2)}, f.ctor, Palette(0, 1), 0)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, runtime.GOMAXPROCS(0), r.workers)
}

func TestUpdateAllKeepsOrderAcrossCycles(t *testing.T) {
	for _, workers := range []int{0, 1, 4} {
		f := &scriptedFactory{
			bad:   -1,
			steps: []image.Point{{1, 0}, {0, 1}, {-1, -1}, {2, 2}},
		}
		regions := []image.Rectangle{
			image.Rect(10, 10, 20, 20),
			image.Rect(30, 30, 40, 40),
			image.Rect(50, 50, 60, 60),
			image.Rect(70, 70, 80, 80),
		}
		colors := Palette(DefaultSeed, len(regions))
		r, err := NewRegistry(testFrame(t), regions, f.ctor, colors, workers)
		require.NoError(t, err)

		for cycle := 1; cycle <= 5; cycle++ {
			require.NoError(t, r.UpdateAll(testFrame(t)))
			tracks := r.Tracks()
			require.Len(t, tracks, len(regions))
			for i, tr := range tracks {
				assert.Equal(t, i, tr.ID)
				assert.Equal(t, colors[i], tr.Color)
				want := regions[i].Add(f.steps[i].Mul(cycle))
				assert.Equal(t, want, tr.Region, "workers=%d cycle=%d track=%d", workers, cycle, i)
			}
		}
		require.NoError(t, r.Close())
		for _, s := range f.built {
			assert.True(t, s.closed)
		}
	}
}

func TestUpdateAllKeepsLastRegionOnFailure(t *testing.T) {
	f := &scriptedFactory{
		bad:   -1,
		steps: []image.Point{{5, 0}, {0, 5}},
		fail:  map[int]map[int]bool{0: {2: true, 3: true}},
	}
	regions := []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30)}
	r, err := NewRegistry(testFrame(t), regions, f.ctor, Palette(0, 2), 1)
	require.NoError(t, err)

	require.NoError(t, r.UpdateAll(testFrame(t)))
	require.NoError(t, r.UpdateAll(testFrame(t)))
	require.NoError(t, r.UpdateAll(testFrame(t)))

	tracks := r.Tracks()
	assert.Equal(t, image.Rect(5, 0, 15, 10), tracks[0].Region)
	assert.True(t, tracks[0].Lost)
	assert.Equal(t, 2, tracks[0].Misses)
	assert.Equal(t, image.Rect(20, 35, 30, 45), tracks[1].Region)
	assert.False(t, tracks[1].Lost)

	// the fourth update succeeds again
	require.NoError(t, r.UpdateAll(testFrame(t)))
	tracks = r.Tracks()
	assert.False(t, tracks[0].Lost)
	assert.Zero(t, tracks[0].Misses)
	assert.Equal(t, 2, r.Len())
}

func TestTracksReturnsSnapshot(t *testing.T) {
	f := &scriptedFactory{bad: -1, steps: []image.Point{{1, 1}}}
	r, err := NewRegistry(testFrame(t), []image.Rectangle{image.Rect(0, 0, 2, 2)}, f.ctor, Palette(0, 1), 1)
	require.NoError(t, err)

	before := r.Tracks()
	require.NoError(t, r.UpdateAll(testFrame(t)))
	after := r.Tracks()

	opt := cmp.Comparer(func(a, b strategy.Strategy) bool { return a == b })
	assert.NotEmpty(t, cmp.Diff(before, after, opt))
	assert.Equal(t, image.Rect(0, 0, 2, 2), before[0].Region)
}
