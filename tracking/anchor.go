package tracking

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// AnchorPolicy decides which point the stabilized view is centered on.
type AnchorPolicy string

const (
	// AnchorFirst uses the first selected track.
	AnchorFirst AnchorPolicy = "first"
	// AnchorLast uses the last track in registration order.
	AnchorLast AnchorPolicy = "last"
	// AnchorMean uses the mean of all track centroids.
	AnchorMean AnchorPolicy = "mean"
)

// ErrUnknownAnchorPolicy is returned by ParseAnchorPolicy.
var ErrUnknownAnchorPolicy = errors.New("unknown anchor policy")

// ParseAnchorPolicy validates a policy name. Empty means AnchorFirst.
func ParseAnchorPolicy(s string) (AnchorPolicy, error) {
	switch AnchorPolicy(s) {
	case "":
		return AnchorFirst, nil
	case AnchorFirst, AnchorLast, AnchorMean:
		return AnchorPolicy(s), nil
	}
	return "", errors.Wrapf(ErrUnknownAnchorPolicy, "%q (want first, last or mean)", s)
}

// Anchor picks the stabilization anchor from tracks in registration order.
// ok is false when there are no tracks.
func (p AnchorPolicy) Anchor(tracks []Track) (image.Point, bool) {
	if len(tracks) == 0 {
		return image.Point{}, false
	}

	switch p {
	case AnchorLast:
		return tracks[len(tracks)-1].Centroid(), true
	case AnchorMean:
		xs := make([]float64, len(tracks))
		ys := make([]float64, len(tracks))
		for i, t := range tracks {
			c := t.Centroid()
			xs[i] = float64(c.X)
			ys[i] = float64(c.Y)
		}
		return image.Point{
			X: int(math.Round(stat.Mean(xs, nil))),
			Y: int(math.Round(stat.Mean(ys, nil))),
		}, true
	default:
		return tracks[0].Centroid(), true
	}
}
