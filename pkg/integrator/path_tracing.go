package integrator

import (
	"fmt"
	"math"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/scene"
)

// Epsilon is the lower hit bound for every ray, so a scattered ray never re-hits the surface it left
const Epsilon = 0.001

// PathTracingIntegrator implements unidirectional path tracing over diffuse surfaces
type PathTracingIntegrator struct {
	config scene.SamplingConfig
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(config scene.SamplingConfig) *PathTracingIntegrator {
	return &PathTracingIntegrator{
		config: config,
	}
}

// RayColor walks the path iteratively, multiplying each bounce's attenuation into a running throughput.
// A miss returns throughput times the background, a hit with the bounce budget spent returns black,
// and so does absorption.
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler) (core.Vec3, error) {
	throughput := core.NewVec3(1, 1, 1)
	current := ray

	for depth := 0; ; depth++ {
		if err := current.Validate(); err != nil {
			return core.Vec3{}, fmt.Errorf("bounce %d: %w", depth, err)
		}

		hit, isHit := s.Hit(current, Epsilon, math.Inf(1))
		if !isHit {
			background, err := s.Background.Emit(current)
			if err != nil {
				return core.Vec3{}, err
			}
			return throughput.MultiplyVec(background), nil
		}

		if depth >= pt.config.MaxDepth {
			return core.Vec3{}, nil
		}

		scatter, didScatter, err := hit.Material.Scatter(current, hit, sampler)
		if err != nil {
			return core.Vec3{}, fmt.Errorf("bounce %d: %w", depth, err)
		}
		if !didScatter {
			return core.Vec3{}, nil
		}

		throughput = throughput.MultiplyVec(scatter.Attenuation)
		current = scatter.Scattered
	}
}
