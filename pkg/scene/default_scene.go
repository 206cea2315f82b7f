package scene

import (
	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/geometry"
	"github.com/df07/go-diffuse-pathtracer/pkg/lights"
)

// NewDefaultScene creates the default scene: a red diffuse sphere resting on a large
// blue-gray ground sphere, viewed by the fixed 2:1 camera.
func NewDefaultScene(background lights.Background) (*Scene, error) {
	shapes, err := buildSpheres([]sphereSpec{
		{center: core.NewVec3(0, 0.005, -1), radius: 0.5, albedo: core.NewVec3(0.8, 0.3, 0.3)},
		{center: core.NewVec3(0, -100.5, -1), radius: 100, albedo: core.NewVec3(0.52, 0.58, 0.68)},
	})
	if err != nil {
		return nil, err
	}

	return New(geometry.DefaultCamera(), background, DefaultSamplingConfig(), shapes...)
}
