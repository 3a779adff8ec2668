package capture

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// sliceSource yields one solid frame per entry in values, then ends. A zero
// entry simulates a failed read.
type sliceSource struct {
	values []uint8
	reads  int
	closed bool
}

func (s *sliceSource) Read(m *gocv.Mat) bool {
	s.reads++
	if len(s.values) == 0 {
		return false
	}
	v := s.values[0]
	s.values = s.values[1:]
	if v == 0 {
		return false
	}
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(v), float64(v), float64(v), 0), 8, 8, gocv.MatTypeCV8UC3)
	frame.CopyTo(m)
	frame.Close()
	return true
}

func (s *sliceSource) IsOpened() bool { return true }
func (s *sliceSource) Close() error   { s.closed = true; return nil }

func firstByte(t *testing.T, m gocv.Mat) uint8 {
	t.Helper()
	data, err := m.DataPtrUint8()
	require.NoError(t, err)
	return data[0]
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeCached, m)

	m, err = ParseMode("decimated")
	require.NoError(t, err)
	assert.Equal(t, ModeDecimated, m)

	_, err = ParseMode("triple")
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestCachedViewsShareOneInstant(t *testing.T) {
	src := &sliceSource{values: []uint8{10, 20, 30}}
	r := NewReader(src, ModeCached, 0, 0)

	first, ok := r.First()
	require.True(t, ok)
	assert.Equal(t, uint8(10), firstByte(t, first))
	first.Close()

	v, ok := r.Next()
	require.True(t, ok)
	assert.Equal(t, int64(0), v.Seq)
	assert.True(t, v.Shared)
	assert.Equal(t, uint8(20), firstByte(t, v.Annotated))
	assert.Equal(t, uint8(20), firstByte(t, v.Stabilize))
	assert.Equal(t, uint8(20), firstByte(t, v.Segment))
	v.Close()

	v, ok = r.Next()
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Seq)
	v.Close()

	_, ok = r.Next()
	assert.False(t, ok)
	assert.Equal(t, int64(3), r.FramesRead())
}

func TestDecimatedViewsAdvanceThreeFrames(t *testing.T) {
	src := &sliceSource{values: []uint8{1, 2, 3, 4, 5, 6, 7}}
	r := NewReader(src, ModeDecimated, 0, 0)

	v, ok := r.Next()
	require.True(t, ok)
	assert.False(t, v.Shared)
	assert.Equal(t, uint8(1), firstByte(t, v.Annotated))
	assert.Equal(t, uint8(2), firstByte(t, v.Stabilize))
	assert.Equal(t, uint8(3), firstByte(t, v.Segment))
	v.Close()

	v, ok = r.Next()
	require.True(t, ok)
	assert.Equal(t, uint8(4), firstByte(t, v.Annotated))
	v.Close()

	// only one frame left: the cycle is incomplete and the stream ends
	_, ok = r.Next()
	assert.False(t, ok)
	assert.Equal(t, 8, src.reads)
}

func TestReaderRetriesFailedReads(t *testing.T) {
	src := &sliceSource{values: []uint8{0, 0, 42}}

	r := NewReader(src, ModeCached, 2, 0)
	frame, ok := r.First()
	require.True(t, ok)
	defer frame.Close()
	assert.Equal(t, uint8(42), firstByte(t, frame))
	assert.Equal(t, 3, src.reads)
}

func TestReaderWithoutRetriesStopsAtFirstFailure(t *testing.T) {
	src := &sliceSource{values: []uint8{0, 42}}

	r := NewReader(src, ModeCached, 0, 0)
	_, ok := r.First()
	assert.False(t, ok)
	assert.Equal(t, 1, src.reads)
	assert.Zero(t, r.FramesRead())
}

func TestToBGRConvertsGray(t *testing.T) {
	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(77, 0, 0, 0), 4, 4, gocv.MatTypeCV8U)
	require.NoError(t, toBGR(&gray))
	defer gray.Close()

	assert.Equal(t, 3, gray.Channels())
	data, err := gray.DataPtrUint8()
	require.NoError(t, err)
	assert.Equal(t, []uint8{77, 77, 77}, data[:3])
}

func TestToBGRDropsAlpha(t *testing.T) {
	bgra := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 255), 4, 4, gocv.MatTypeCV8UC4)
	require.NoError(t, toBGR(&bgra))
	defer bgra.Close()

	assert.Equal(t, 3, bgra.Channels())
	data, err := bgra.DataPtrUint8()
	require.NoError(t, err)
	assert.Equal(t, []uint8{10, 20, 30, 10, 20, 30}, data[:6])
}

func TestOpenRejectsMissingSource(t *testing.T) {
	_, err := Open("")
	assert.True(t, errors.Is(err, ErrSourceUnavailable))

	_, err = Open("/nonexistent/fmtts-test-video.mp4")
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}
