package core

import (
	"errors"
	"math/rand"
	"testing"
)

// constantSampler always returns the same triple, simulating a broken source
type constantSampler struct {
	value Vec3
}

func (c constantSampler) Get1D() float64 { return c.value.X }
func (c constantSampler) Get2D() Vec2    { return NewVec2(c.value.X, c.value.Y) }
func (c constantSampler) Get3D() Vec3    { return c.value }

// scriptedSampler returns a fixed sequence of triples
type scriptedSampler struct {
	values []Vec3
	calls  int
}

func (s *scriptedSampler) Get1D() float64 { return s.Get3D().X }
func (s *scriptedSampler) Get2D() Vec2    { v := s.Get3D(); return NewVec2(v.X, v.Y) }
func (s *scriptedSampler) Get3D() Vec3 {
	v := s.values[s.calls%len(s.values)]
	s.calls++
	return v
}

func TestRandomInUnitSphere_InsideSphere(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(42)))
	for i := 0; i < 10000; i++ {
		p, err := RandomInUnitSphere(sampler)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if p.LengthSquared() >= 1.0 {
			t.Fatalf("Point %v is outside the unit sphere", p)
		}
	}
}

func TestRandomInUnitSphere_RejectsOutsideDraws(t *testing.T) {
	// (0.99,0.99,0.99) maps to (0.98,0.98,0.98), outside; (0.5,0.5,0.5) maps to the origin
	sampler := &scriptedSampler{values: []Vec3{
		NewVec3(0.99, 0.99, 0.99),
		NewVec3(0.0, 0.0, 0.0),
		NewVec3(0.5, 0.5, 0.5),
	}}

	p, err := RandomInUnitSphere(sampler)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p != (Vec3{}) {
		t.Errorf("Expected origin from third draw, got %v", p)
	}
	if sampler.calls != 3 {
		t.Errorf("Expected 3 draws, got %d", sampler.calls)
	}
}

func TestRandomInUnitSphere_AcceptanceRate(t *testing.T) {
	sampler := &countingSampler{inner: NewSeededSampler(1)}
	const n = 20000
	for i := 0; i < n; i++ {
		if _, err := RandomInUnitSphere(sampler); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	// Expected ~1.91 trials per accepted point
	mean := float64(sampler.calls) / n
	if mean < 1.8 || mean > 2.0 {
		t.Errorf("Expected ~1.91 trials per sample, got %f", mean)
	}
}

func TestRandomInUnitSphere_BrokenSource(t *testing.T) {
	// Always maps to (1,1,1) which is never accepted
	_, err := RandomInUnitSphere(constantSampler{value: NewVec3(1, 1, 1)})
	if !errors.Is(err, ErrRandomSourceFailure) {
		t.Errorf("Expected ErrRandomSourceFailure, got %v", err)
	}
}

func TestRandomSampler_Range(t *testing.T) {
	sampler := NewSeededSampler(42)
	for i := 0; i < 1000; i++ {
		v := sampler.Get3D()
		for _, c := range []float64{v.X, v.Y, v.Z, sampler.Get1D()} {
			if c < 0 || c >= 1 {
				t.Fatalf("Sample %f outside [0,1)", c)
			}
		}
	}
}

func TestNewSeededSampler_Deterministic(t *testing.T) {
	a, b := NewSeededSampler(99), NewSeededSampler(99)
	for i := 0; i < 10; i++ {
		if a.Get3D() != b.Get3D() {
			t.Fatal("Samplers with the same seed should produce the same sequence")
		}
	}
}

type countingSampler struct {
	inner Sampler
	calls int
}

func (c *countingSampler) Get1D() float64 { return c.inner.Get1D() }
func (c *countingSampler) Get2D() Vec2    { return c.inner.Get2D() }
func (c *countingSampler) Get3D() Vec3 {
	c.calls++
	return c.inner.Get3D()
}
