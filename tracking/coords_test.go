package tracking

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentroid(t *testing.T) {
	tests := []struct {
		region image.Rectangle
		want   image.Point
	}{
		{image.Rect(0, 0, 10, 10), image.Pt(5, 5)},
		{image.Rect(10, 20, 31, 41), image.Pt(20, 30)},
		{image.Rect(-3, -3, 0, 0), image.Pt(-2, -2)},
		{image.Rect(-1, 0, 0, 1), image.Pt(-1, 0)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Centroid(tt.region), "%v", tt.region)
	}
}

func TestOffsetOfInvertsVerticalAxis(t *testing.T) {
	reference := image.Pt(425, 250)

	// above and to the right of the reference
	assert.Equal(t, image.Pt(75, 50), OffsetOf(image.Rect(490, 190, 510, 210), reference))
	// below and to the left
	assert.Equal(t, image.Pt(-25, -50), OffsetOf(image.Rect(390, 290, 410, 310), reference))
	// on the reference
	assert.Equal(t, image.Pt(0, 0), OffsetOf(image.Rect(415, 240, 435, 260), reference))
}

func TestOffsetOfIsTranslationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	coord := func() int { return rng.Intn(4000) - 2000 }

	for i := 0; i < 2000; i++ {
		x, y := coord(), coord()
		region := image.Rect(x, y, x+rng.Intn(300), y+rng.Intn(300))
		reference := image.Pt(coord(), coord())
		v := image.Pt(coord(), coord())

		assert.Equal(t,
			OffsetOf(region, reference),
			OffsetOf(region.Add(v), reference.Add(v)),
			"region=%v reference=%v v=%v", region, reference, v)
	}
}

func TestFrameCenter(t *testing.T) {
	assert.Equal(t, image.Pt(425, 250), FrameCenter(850, 500))
	assert.Equal(t, image.Pt(320, 240), FrameCenter(641, 481))
}

func TestPaletteDeterministicAndDistinct(t *testing.T) {
	a := Palette(DefaultSeed, 64)
	b := Palette(DefaultSeed, 64)
	require.Len(t, a, 64)
	assert.Equal(t, a, b)

	seen := map[color.RGBA]bool{}
	for _, c := range a {
		assert.False(t, seen[c], "duplicate color %v", c)
		seen[c] = true
	}

	assert.NotEqual(t, a, Palette(42, 64))
	assert.Equal(t, a[:3], Palette(DefaultSeed, 3))
	assert.Nil(t, Palette(DefaultSeed, 0))
}

func TestAnchorPolicies(t *testing.T) {
	tracks := []Track{
		{ID: 0, Region: image.Rect(0, 0, 10, 10)},
		{ID: 1, Region: image.Rect(100, 0, 110, 10)},
		{ID: 2, Region: image.Rect(50, 90, 60, 100)},
	}

	got, ok := AnchorFirst.Anchor(tracks)
	require.True(t, ok)
	assert.Equal(t, image.Pt(5, 5), got)

	got, ok = AnchorLast.Anchor(tracks)
	require.True(t, ok)
	assert.Equal(t, image.Pt(55, 95), got)

	got, ok = AnchorMean.Anchor(tracks)
	require.True(t, ok)
	assert.Equal(t, image.Pt(55, 35), got)

	_, ok = AnchorFirst.Anchor(nil)
	assert.False(t, ok)
}

func TestParseAnchorPolicy(t *testing.T) {
	p, err := ParseAnchorPolicy("")
	require.NoError(t, err)
	assert.Equal(t, AnchorFirst, p)

	p, err = ParseAnchorPolicy("last")
	require.NoError(t, err)
	assert.Equal(t, AnchorLast, p)

	_, err = ParseAnchorPolicy("centroid")
	assert.ErrorIs(t, err, ErrUnknownAnchorPolicy)
}
