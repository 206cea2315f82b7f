package integrator

import (
	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/scene"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor computes the linear, unclamped radiance arriving along ray.
	// An error aborts only this ray; the scene is never modified.
	RayColor(ray core.Ray, scene *scene.Scene, sampler core.Sampler) (core.Vec3, error)
}
