package tracking

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Default noise settings for NewSmoother.
const (
	DefaultProcessNoise     = 0.1
	DefaultMeasurementNoise = 10.0
)

// Smoother is a constant-velocity Kalman filter over a point, stepped once
// per cycle. State is [x, y, vx, vy].
type Smoother struct {
	x *mat.VecDense
	p *mat.Dense

	f   *mat.Dense // state transition
	q   *mat.Dense // process noise
	h   *mat.Dense // measurement
	r   *mat.Dense // measurement noise
	eye *mat.Dense

	initialized bool
}

// NewSmoother creates a filter. Non-positive noise values fall back to the
// defaults.
func NewSmoother(processNoise, measurementNoise float64) *Smoother {
	if processNoise <= 0 {
		processNoise = DefaultProcessNoise
	}
	if measurementNoise <= 0 {
		measurementNoise = DefaultMeasurementNoise
	}

	// one step per cycle
	const dt = 1.0
	q := processNoise
	return &Smoother{
		f: mat.NewDense(4, 4, []float64{
			1, 0, dt, 0,
			0, 1, 0, dt,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}),
		q: mat.NewDense(4, 4, []float64{
			q * dt * dt * dt * dt / 4, 0, q * dt * dt * dt / 2, 0,
			0, q * dt * dt * dt * dt / 4, 0, q * dt * dt * dt / 2,
			q * dt * dt * dt / 2, 0, q * dt * dt, 0,
			0, q * dt * dt * dt / 2, 0, q * dt * dt,
		}),
		h: mat.NewDense(2, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
		}),
		r: mat.NewDense(2, 2, []float64{
			measurementNoise, 0,
			0, measurementNoise,
		}),
		eye: identity(4),
	}
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Update feeds one measured point and returns the filtered point. The first
// measurement is returned unchanged.
func (s *Smoother) Update(p image.Point) image.Point {
	if !s.initialized {
		s.x = mat.NewVecDense(4, []float64{float64(p.X), float64(p.Y), 0, 0})
		s.p = identity(4)
		s.p.Scale(1000, s.p) // high initial uncertainty
		s.initialized = true
		return p
	}

	// Predict
	var xPred mat.VecDense
	xPred.MulVec(s.f, s.x)
	var fp, pPred mat.Dense
	fp.Mul(s.f, s.p)
	pPred.Mul(&fp, s.f.T())
	pPred.Add(&pPred, s.q)

	// Innovation
	z := mat.NewVecDense(2, []float64{float64(p.X), float64(p.Y)})
	var hx, innovation mat.VecDense
	hx.MulVec(s.h, &xPred)
	innovation.SubVec(z, &hx)

	var hp, innovCov, innovInv mat.Dense
	hp.Mul(s.h, &pPred)
	innovCov.Mul(&hp, s.h.T())
	innovCov.Add(&innovCov, s.r)
	if err := innovInv.Inverse(&innovCov); err != nil {
		s.x, s.p = &xPred, &pPred
		return p
	}

	// Gain and correction
	var pht, gain mat.Dense
	pht.Mul(&pPred, s.h.T())
	gain.Mul(&pht, &innovInv)

	var correction, xNew mat.VecDense
	correction.MulVec(&gain, &innovation)
	xNew.AddVec(&xPred, &correction)

	var kh, ikh, pNew mat.Dense
	kh.Mul(&gain, s.h)
	ikh.Sub(s.eye, &kh)
	pNew.Mul(&ikh, &pPred)

	s.x, s.p = &xNew, &pNew
	return image.Point{
		X: int(math.Round(xNew.AtVec(0))),
		Y: int(math.Round(xNew.AtVec(1))),
	}
}

// Velocity is the current velocity estimate in pixels per cycle.
func (s *Smoother) Velocity() (float64, float64) {
	if !s.initialized {
		return 0, 0
	}
	return s.x.AtVec(2), s.x.AtVec(3)
}

// Reset forgets all state; the next Update starts over.
func (s *Smoother) Reset() {
	s.initialized = false
	s.x, s.p = nil, nil
}
