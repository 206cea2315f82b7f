package core

import (
	"math/rand"
)

// MaxRejectionTrials bounds rejection sampling loops. Each trial succeeds with
// probability ~0.524, so reaching the cap means the random source is broken.
const MaxRejectionTrials = 4096

// Vec2 holds a pair of sample values
type Vec2 struct {
	X, Y float64
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Sampler provides uniform [0, 1) random values for rendering algorithms.
// Can be swapped out for deterministic testing or different sampling patterns.
// A Sampler is not safe for concurrent use; give each worker its own.
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler backed by a fresh generator with the given seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// RandomInUnitSphere returns a point strictly inside the unit sphere using rejection sampling:
// draws in [-1,1)³ are discarded until one has squared length < 1.
func RandomInUnitSphere(sampler Sampler) (Vec3, error) {
	for trial := 0; trial < MaxRejectionTrials; trial++ {
		p := sampler.Get3D().Multiply(2).Subtract(NewVec3(1, 1, 1))
		if p.LengthSquared() < 1.0 {
			return p, nil
		}
	}
	return Vec3{}, ErrRandomSourceFailure
}
