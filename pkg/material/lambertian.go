package material

import (
	"fmt"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3 // Base reflectance, components in [0, 1]
}

// NewLambertian creates a new lambertian material with a solid albedo
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Scatter implements the Material interface for lambertian scattering.
// The target point is hit.Point + hit.Normal + a random point in the unit sphere,
// which approximates a cosine-weighted lobe around the normal.
func (l *Lambertian) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool, error) {
	offset, err := core.RandomInUnitSphere(sampler)
	if err != nil {
		return ScatterResult{}, false, fmt.Errorf("lambertian scatter: %w", err)
	}

	target := hit.Point.Add(hit.Normal).Add(offset)
	scattered := core.NewRay(hit.Point, target.Subtract(hit.Point))

	return ScatterResult{
		Scattered:   scattered,
		Attenuation: l.Albedo,
	}, true, nil
}
