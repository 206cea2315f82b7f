package material

import (
	"github.com/df07/go-diffuse-pathtracer/pkg/core"
)

// Material interface for objects that can scatter rays
type Material interface {
	// Scatter returns the attenuation and continuation ray for an incoming ray at a hit.
	// The bool is false when the material absorbs the ray and the path terminates.
	Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool, error)
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray  // The continuation ray
	Attenuation core.Vec3 // Color attenuation
}

// HitRecord contains information about a ray-object intersection.
// Material is borrowed from the primitive that was hit.
type HitRecord struct {
	Point    core.Vec3 // Point of intersection
	Normal   core.Vec3 // Unit surface normal at intersection
	T        float64   // Parameter t along the ray
	Material Material  // Material of the hit object
}
