package integrator

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/geometry"
	"github.com/df07/go-diffuse-pathtracer/pkg/lights"
	"github.com/df07/go-diffuse-pathtracer/pkg/material"
	"github.com/df07/go-diffuse-pathtracer/pkg/scene"
)

const tolerance = 1e-9

// fixedMaterial scatters every ray in one direction and counts its calls
type fixedMaterial struct {
	direction   core.Vec3
	attenuation core.Vec3
	absorb      bool
	calls       int
}

func (m *fixedMaterial) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool, error) {
	m.calls++
	if m.absorb {
		return material.ScatterResult{}, false, nil
	}
	direction := m.direction
	if direction.IsZero() {
		direction = hit.Normal
	}
	return material.ScatterResult{
		Scattered:   core.NewRay(hit.Point, direction),
		Attenuation: m.attenuation,
	}, true, nil
}

// stuckSampler always returns the corner of the cube, which rejection sampling never accepts
type stuckSampler struct{}

func (stuckSampler) Get1D() float64   { return 1 }
func (stuckSampler) Get2D() core.Vec2 { return core.NewVec2(1, 1) }
func (stuckSampler) Get3D() core.Vec3 { return core.NewVec3(1, 1, 1) }

func newTestScene(t *testing.T, background lights.Background, maxDepth int, shapes ...geometry.Shape) *scene.Scene {
	t.Helper()
	config := scene.DefaultSamplingConfig()
	config.MaxDepth = maxDepth
	s, err := scene.New(geometry.DefaultCamera(), background, config, shapes...)
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	return s
}

func mustSphere(t *testing.T, center core.Vec3, radius float64, mat material.Material) *geometry.Sphere {
	t.Helper()
	sphere, err := geometry.NewSphere(center, radius, mat)
	if err != nil {
		t.Fatalf("NewSphere: %v", err)
	}
	return sphere
}

func newSampler() core.Sampler {
	return core.NewRandomSampler(rand.New(rand.NewSource(42)))
}

// TestPathTracingDepthZero tests that a zero bounce budget returns black for any hit
func TestPathTracingDepthZero(t *testing.T) {
	materials := map[string]material.Material{
		"lambertian": material.NewLambertian(core.NewVec3(0.8, 0.3, 0.3)),
		"white":      material.NewLambertian(core.NewVec3(1, 1, 1)),
		"fixed":      &fixedMaterial{attenuation: core.NewVec3(1, 1, 1)},
	}

	for name, mat := range materials {
		t.Run(name, func(t *testing.T) {
			sc := newTestScene(t, nil, 0, mustSphere(t, core.NewVec3(0, 0, -1), 0.5, mat))
			pt := NewPathTracingIntegrator(sc.SamplingConfig)

			color, err := pt.RayColor(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), sc, newSampler())
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if color != (core.Vec3{}) {
				t.Errorf("Expected black for depth 0, got %v", color)
			}
		})
	}
}

// TestPathTracingMissReturnsBackground tests that escaping rays get the unattenuated background
func TestPathTracingMissReturnsBackground(t *testing.T) {
	sc, err := scene.NewDefaultScene(nil)
	if err != nil {
		t.Fatalf("NewDefaultScene: %v", err)
	}
	pt := NewPathTracingIntegrator(sc.SamplingConfig)

	color, err := pt.RayColor(core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0)), sc, newSampler())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if color.Subtract(lights.SkyBlue).Length() > tolerance {
		t.Errorf("Expected sky blue %v for upward miss, got %v", lights.SkyBlue, color)
	}
}

// TestPathTracingTinyDirection tests that a short but non-zero direction still reaches the background
func TestPathTracingTinyDirection(t *testing.T) {
	sc, err := scene.NewDefaultScene(nil)
	if err != nil {
		t.Fatalf("NewDefaultScene: %v", err)
	}
	pt := NewPathTracingIntegrator(sc.SamplingConfig)

	color, err := pt.RayColor(core.NewRay(core.Vec3{}, core.NewVec3(0, 1e-170, 0)), sc, newSampler())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if color.Subtract(lights.SkyBlue).Length() > tolerance {
		t.Errorf("Expected sky blue %v, got %v", lights.SkyBlue, color)
	}
}

// TestPathTracingSunDisk tests that a ray inside the sun disk returns the sun emission
func TestPathTracingSunDisk(t *testing.T) {
	sc := newTestScene(t, lights.NewSunSky(), 50)
	pt := NewPathTracingIntegrator(sc.SamplingConfig)

	color, err := pt.RayColor(core.NewRay(core.Vec3{}, core.NewVec3(1, 1, 1)), sc, newSampler())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if color != lights.DefaultSunEmission {
		t.Errorf("Expected sun emission %v, got %v", lights.DefaultSunEmission, color)
	}
}

// TestPathTracingAttenuationProduct tests that each bounce multiplies its attenuation into the result
func TestPathTracingAttenuationProduct(t *testing.T) {
	// A bounces the path up and back toward B, B sends it off into the sky
	matA := &fixedMaterial{direction: core.NewVec3(0, 1, 1), attenuation: core.NewVec3(0.5, 0.25, 1)}
	matB := &fixedMaterial{direction: core.NewVec3(1, -1, -1), attenuation: core.NewVec3(0.8, 0.5, 0.1)}
	sc := newTestScene(t, nil, 50,
		mustSphere(t, core.NewVec3(0, 0, -2), 0.5, matA),
		mustSphere(t, core.NewVec3(0, 2, 0.5), 0.5, matB),
	)
	pt := NewPathTracingIntegrator(sc.SamplingConfig)

	color, err := pt.RayColor(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), sc, newSampler())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	sky, err := sc.Background.Emit(core.NewRay(core.Vec3{}, matB.direction))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	expected := matA.attenuation.MultiplyVec(matB.attenuation).MultiplyVec(sky)
	if color.Subtract(expected).Length() > tolerance {
		t.Errorf("Expected %v, got %v", expected, color)
	}
	if matA.calls != 1 || matB.calls != 1 {
		t.Errorf("Expected one scatter per sphere, got A=%d B=%d", matA.calls, matB.calls)
	}
}

// TestPathTracingSingleBounceAlongNormal tests the first-bounce result against the gradient at the horizon
func TestPathTracingSingleBounceAlongNormal(t *testing.T) {
	mat := &fixedMaterial{attenuation: core.NewVec3(0.5, 0.25, 1)}
	sc := newTestScene(t, nil, 50, mustSphere(t, core.NewVec3(0, 0, -1), 0.5, mat))
	pt := NewPathTracingIntegrator(sc.SamplingConfig)

	color, err := pt.RayColor(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), sc, newSampler())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Normal at the hit is +Z, so the path escapes horizontally: t = 0.5
	expected := core.NewVec3(0.4625, 0.23875, 1.0)
	if color.Subtract(expected).Length() > tolerance {
		t.Errorf("Expected %v, got %v", expected, color)
	}
}

// TestPathTracingAbsorption tests that an absorbing material terminates the path with black
func TestPathTracingAbsorption(t *testing.T) {
	mat := &fixedMaterial{absorb: true}
	sc := newTestScene(t, nil, 50, mustSphere(t, core.NewVec3(0, 0, -1), 0.5, mat))
	pt := NewPathTracingIntegrator(sc.SamplingConfig)

	color, err := pt.RayColor(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), sc, newSampler())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if color != (core.Vec3{}) {
		t.Errorf("Expected black after absorption, got %v", color)
	}
	if mat.calls != 1 {
		t.Errorf("Expected one scatter call, got %d", mat.calls)
	}
}

// TestPathTracingBudgetExhaustion tests that a path trapped between two spheres ends black after MaxDepth bounces
func TestPathTracingBudgetExhaustion(t *testing.T) {
	// Normal scattering bounces the path back and forth along the Z axis
	mat := &fixedMaterial{attenuation: core.NewVec3(1, 1, 1)}
	sc := newTestScene(t, nil, 3,
		mustSphere(t, core.NewVec3(0, 0, -1), 0.5, mat),
		mustSphere(t, core.NewVec3(0, 0, 1), 0.5, mat),
	)
	pt := NewPathTracingIntegrator(sc.SamplingConfig)

	color, err := pt.RayColor(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), sc, newSampler())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if color != (core.Vec3{}) {
		t.Errorf("Expected black once the bounce budget is spent, got %v", color)
	}
	if mat.calls != 3 {
		t.Errorf("Expected 3 scatters before exhaustion, got %d", mat.calls)
	}
}

// TestPathTracingDegenerateRay tests that a zero direction is reported, not traced
func TestPathTracingDegenerateRay(t *testing.T) {
	sc, err := scene.NewDefaultScene(nil)
	if err != nil {
		t.Fatalf("NewDefaultScene: %v", err)
	}
	pt := NewPathTracingIntegrator(sc.SamplingConfig)

	rays := map[string]core.Ray{
		"zero direction": core.NewRay(core.Vec3{}, core.Vec3{}),
		"nan direction":  core.NewRay(core.Vec3{}, core.NewVec3(math.NaN(), 0, -1)),
		"inf origin":     core.NewRay(core.NewVec3(math.Inf(1), 0, 0), core.NewVec3(0, 0, -1)),
	}
	for name, ray := range rays {
		t.Run(name, func(t *testing.T) {
			if _, err := pt.RayColor(ray, sc, newSampler()); !errors.Is(err, core.ErrDegenerateRay) {
				t.Errorf("Expected ErrDegenerateRay, got %v", err)
			}
		})
	}
}

// TestPathTracingBrokenSampler tests that a random source failure surfaces from the scatter step
func TestPathTracingBrokenSampler(t *testing.T) {
	sc, err := scene.NewDefaultScene(nil)
	if err != nil {
		t.Fatalf("NewDefaultScene: %v", err)
	}
	pt := NewPathTracingIntegrator(sc.SamplingConfig)

	_, err = pt.RayColor(sc.Camera.GetRay(0.5, 0.5), sc, stuckSampler{})
	if !errors.Is(err, core.ErrRandomSourceFailure) {
		t.Errorf("Expected ErrRandomSourceFailure, got %v", err)
	}
}

// TestPathTracingEnergyBound tests that diffuse paths under the sky never exceed white
func TestPathTracingEnergyBound(t *testing.T) {
	sc, err := scene.NewDefaultScene(nil)
	if err != nil {
		t.Fatalf("NewDefaultScene: %v", err)
	}
	pt := NewPathTracingIntegrator(sc.SamplingConfig)
	sampler := newSampler()

	for i := 0; i < 500; i++ {
		ray := sc.Camera.GetRay(sampler.Get1D(), sampler.Get1D())
		color, err := pt.RayColor(ray, sc, sampler)
		if err != nil {
			t.Fatalf("Sample %d: %v", i, err)
		}
		for _, c := range []float64{color.X, color.Y, color.Z} {
			if c < 0 || c > 1+tolerance || math.IsNaN(c) {
				t.Fatalf("Sample %d: component %f outside [0,1]", i, c)
			}
		}
	}
}

// TestPathTracingDeterministic tests that equal seeds give equal results
func TestPathTracingDeterministic(t *testing.T) {
	sc, err := scene.NewDefaultScene(nil)
	if err != nil {
		t.Fatalf("NewDefaultScene: %v", err)
	}
	pt := NewPathTracingIntegrator(sc.SamplingConfig)
	ray := sc.Camera.GetRay(0.5, 0.4)

	first, err := pt.RayColor(ray, sc, newSampler())
	if err != nil {
		t.Fatal(err)
	}
	second, err := pt.RayColor(ray, sc, newSampler())
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("Expected identical results for the same seed, got %v and %v", first, second)
	}
}
