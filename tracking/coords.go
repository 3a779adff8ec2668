package tracking

import "image"

// floorHalf divides by two rounding toward negative infinity, so centroids
// move exactly with their regions for negative coordinates too.
func floorHalf(v int) int {
	if v < 0 && v%2 != 0 {
		return v/2 - 1
	}
	return v / 2
}

// Centroid is the midpoint of the region's top-left and bottom-right corners.
func Centroid(r image.Rectangle) image.Point {
	return image.Point{
		X: floorHalf(r.Min.X + r.Max.X),
		Y: floorHalf(r.Min.Y + r.Max.Y),
	}
}

// OffsetOf returns the region centroid relative to reference with the
// vertical axis pointing up.
func OffsetOf(r image.Rectangle, reference image.Point) image.Point {
	c := Centroid(r)
	return image.Point{
		X: c.X - reference.X,
		Y: -(c.Y - reference.Y),
	}
}

// FrameCenter is the conventional reference point for a frame of the given
// size.
func FrameCenter(cols, rows int) image.Point {
	return image.Point{X: cols / 2, Y: rows / 2}
}
