package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"fmtts/tracking"
)

func pixelAt(t *testing.T, m gocv.Mat, p image.Point) [3]uint8 {
	t.Helper()
	data, err := m.DataPtrUint8()
	require.NoError(t, err)
	i := p.Y*m.Step() + p.X*3
	return [3]uint8{data[i], data[i+1], data[i+2]}
}

func TestTextOriginsStackPerTrack(t *testing.T) {
	r := NewRenderer(image.Pt(425, 250))
	for i, want := range [][2]image.Point{
		{image.Pt(10, 20), image.Pt(10, 40)},
		{image.Pt(10, 60), image.Pt(10, 80)},
		{image.Pt(10, 100), image.Pt(10, 120)},
	} {
		x, y := r.TextOrigins(i)
		assert.Equal(t, want[0], x, "track %d X line", i)
		assert.Equal(t, want[1], y, "track %d Y line", i)
	}
}

func TestDrawReturnsOffsetsInOrder(t *testing.T) {
	img := gocv.NewMatWithSize(200, 300, gocv.MatTypeCV8UC3)
	defer img.Close()

	ref := image.Pt(150, 100)
	r := NewRenderer(ref)
	tracks := []tracking.Track{
		{ID: 0, Region: image.Rect(160, 40, 180, 60), Color: color.RGBA{R: 10, G: 20, B: 200, A: 255}},
		{ID: 1, Region: image.Rect(40, 140, 60, 160), Color: color.RGBA{R: 200, G: 20, B: 10, A: 255}, Lost: true},
	}

	offsets := r.Draw(&img, tracks)
	assert.Equal(t, []image.Point{{X: 20, Y: 50}, {X: -100, Y: -50}}, offsets)

	// box edge in the track color, BGR order
	assert.Equal(t, [3]uint8{200, 20, 10}, pixelAt(t, img, image.Pt(160, 50)))
	assert.Equal(t, [3]uint8{10, 20, 200}, pixelAt(t, img, image.Pt(40, 150)))

	// axes far from any track
	assert.Equal(t, [3]uint8{0, 255, 0}, pixelAt(t, img, image.Pt(ref.X, 195)))
	assert.Equal(t, [3]uint8{0, 255, 0}, pixelAt(t, img, image.Pt(295, ref.Y)))
}

// countColor counts pixels of exactly bgr inside area.
func countColor(t *testing.T, m gocv.Mat, area image.Rectangle, bgr [3]uint8) int {
	t.Helper()
	n := 0
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if pixelAt(t, m, image.Pt(x, y)) == bgr {
				n++
			}
		}
	}
	return n
}

func TestLostTagOnlyOnLostTracks(t *testing.T) {
	img := gocv.NewMatWithSize(200, 300, gocv.MatTypeCV8UC3)
	defer img.Close()

	r := NewRenderer(image.Pt(150, 100))
	kept := tracking.Track{ID: 0, Region: image.Rect(200, 40, 220, 60), Color: color.RGBA{B: 200, A: 255}}
	lost := tracking.Track{ID: 1, Region: image.Rect(40, 140, 60, 160), Color: color.RGBA{B: 200, A: 255}, Lost: true}
	r.Draw(&img, []tracking.Track{kept, lost})

	red := [3]uint8{0, 0, 255}
	above := func(tr tracking.Track) image.Rectangle {
		return image.Rect(tr.Region.Min.X, tr.Region.Min.Y-24, tr.Region.Min.X+60, tr.Region.Min.Y-2)
	}
	assert.NotZero(t, countColor(t, img, above(lost), red), "lost track is tagged")
	assert.Zero(t, countColor(t, img, above(kept), red), "tracked region has no tag")
}
