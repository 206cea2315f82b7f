package scene

import (
	"fmt"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/geometry"
	"github.com/df07/go-diffuse-pathtracer/pkg/lights"
	"github.com/df07/go-diffuse-pathtracer/pkg/material"
)

// Scene contains all the elements needed for rendering.
// It is built once and only read during rendering, so it may be shared across workers.
type Scene struct {
	Camera         *geometry.Camera
	Shapes         []geometry.Shape  // Objects in the scene, owned by the scene
	Background     lights.Background // Radiance for rays that escape
	SamplingConfig SamplingConfig
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int // Image width
	Height          int // Image height
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// DefaultSamplingConfig returns the defaults: 400x200, 50 samples, 50 bounces
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           400,
		Height:          200,
		SamplesPerPixel: 50,
		MaxDepth:        50,
	}
}

// MergeSamplingConfig returns base with every positive field of override applied
func MergeSamplingConfig(base, override SamplingConfig) SamplingConfig {
	if override.Width > 0 {
		base.Width = override.Width
	}
	if override.Height > 0 {
		base.Height = override.Height
	}
	if override.SamplesPerPixel > 0 {
		base.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth > 0 {
		base.MaxDepth = override.MaxDepth
	}
	return base
}

// Validate checks that the configuration can drive a render
func (c SamplingConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("image size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.SamplesPerPixel <= 0 {
		return fmt.Errorf("samples per pixel must be positive, got %d", c.SamplesPerPixel)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	}
	return nil
}

// New creates a scene. A nil background selects the sky gradient.
func New(camera *geometry.Camera, background lights.Background, config SamplingConfig, shapes ...geometry.Shape) (*Scene, error) {
	if camera == nil {
		return nil, fmt.Errorf("scene requires a camera")
	}
	if background == nil {
		background = lights.NewSkyGradient()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	for i, shape := range shapes {
		if shape == nil {
			return nil, fmt.Errorf("%w: shape %d is nil", core.ErrInvalidPrimitive, i)
		}
	}

	// Copy so later changes to the caller's slice can't reach the scene
	owned := make([]geometry.Shape, len(shapes))
	copy(owned, shapes)

	return &Scene{
		Camera:         camera,
		Shapes:         owned,
		Background:     background,
		SamplingConfig: config,
	}, nil
}

// Hit returns the nearest hit among all shapes with t in (tMin, tMax).
// The search bound shrinks to each accepted hit, so later shapes only win if strictly nearer.
func (s *Scene) Hit(ray core.Ray, tMin, tMax float64) (material.HitRecord, bool) {
	var closestHit material.HitRecord
	closestSoFar := tMax
	hitAnything := false

	for _, shape := range s.Shapes {
		if hit, isHit := shape.Hit(ray, tMin, closestSoFar); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, hitAnything
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return len(s.Shapes)
}

// sphereSpec is a compact sphere definition used by the built-in scenes
type sphereSpec struct {
	center core.Vec3
	radius float64
	albedo core.Vec3
}

// buildSpheres creates lambertian spheres, failing on the first invalid one
func buildSpheres(specs []sphereSpec) ([]geometry.Shape, error) {
	shapes := make([]geometry.Shape, 0, len(specs))
	for i, spec := range specs {
		sphere, err := geometry.NewSphere(spec.center, spec.radius, material.NewLambertian(spec.albedo))
		if err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		shapes = append(shapes, sphere)
	}
	return shapes, nil
}
