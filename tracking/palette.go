package tracking

import (
	"image/color"
	"math/rand"
)

// DefaultSeed matches the fixed seed the display colors have always used.
const DefaultSeed int64 = 0

// Palette returns n pairwise distinct colors. The same seed and n always
// produce the same sequence.
func Palette(seed int64, n int) []color.RGBA {
	if n <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	colors := make([]color.RGBA, 0, n)
	seen := make(map[color.RGBA]bool, n)
	for len(colors) < n {
		c := color.RGBA{
			R: uint8(rng.Intn(255)),
			G: uint8(rng.Intn(255)),
			B: uint8(rng.Intn(255)),
			A: 255,
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		colors = append(colors, c)
	}
	return colors
}
