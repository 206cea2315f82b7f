package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/geometry"
	"github.com/df07/go-diffuse-pathtracer/pkg/lights"
	"github.com/df07/go-diffuse-pathtracer/pkg/material"
)

// Description is the on-disk form of a scene
type Description struct {
	Camera     *CameraDescription  `json:"camera,omitempty"`     // Omitted: default 2:1 camera
	Background string              `json:"background,omitempty"` // "sky" (default) or "sun"
	Sun        *SunDescription     `json:"sun,omitempty"`        // Custom sun; implies the sun background
	Sampling   SamplingDescription `json:"sampling"`
	Spheres    []SphereDescription `json:"spheres"`
}

// CameraDescription holds either a look-at camera or an explicit image-plane rectangle.
// The look-at form is used when LookFrom is set.
//
// In the rectangle form LowerLeftCorner is an absolute point in world space, not an
// offset from Origin: the ray for (u, v) runs from Origin toward
// LowerLeftCorner + u*Horizontal + v*Vertical.
type CameraDescription struct {
	LookFrom    *[3]float64 `json:"lookFrom,omitempty"`
	LookAt      [3]float64  `json:"lookAt"`
	Up          [3]float64  `json:"up"`
	VFov        float64     `json:"vfov,omitempty"`
	AspectRatio float64     `json:"aspectRatio,omitempty"`

	Origin          [3]float64 `json:"origin"`
	LowerLeftCorner [3]float64 `json:"lowerLeftCorner"`
	Horizontal      [3]float64 `json:"horizontal"`
	Vertical        [3]float64 `json:"vertical"`
}

// SunDescription places the sun disk. Direction need not be normalized.
type SunDescription struct {
	Direction [3]float64 `json:"direction"`
	HalfAngle float64    `json:"halfAngle"` // Angular radius in degrees
	Emission  [3]float64 `json:"emission"`
}

// SamplingDescription overrides the default sampling configuration; zero fields keep defaults
type SamplingDescription struct {
	Width           int `json:"width,omitempty"`
	Height          int `json:"height,omitempty"`
	SamplesPerPixel int `json:"samplesPerPixel,omitempty"`
	MaxDepth        int `json:"maxDepth,omitempty"`
}

// SphereDescription describes one sphere and its material
type SphereDescription struct {
	Center   [3]float64          `json:"center"`
	Radius   float64             `json:"radius"`
	Material material.Descriptor `json:"material"`
}

func toVec3(v [3]float64) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// LoadDescription reads a JSON scene description, rejecting unknown fields
func LoadDescription(r io.Reader) (*Description, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var desc Description
	if err := decoder.Decode(&desc); err != nil {
		return nil, fmt.Errorf("failed to parse scene description: %w", err)
	}
	return &desc, nil
}

// LoadSceneFile reads and builds a scene from a JSON file.
// A non-empty backgroundOverride replaces the file's background policy.
func LoadSceneFile(filename string, backgroundOverride string) (*Scene, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	desc, err := LoadDescription(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if backgroundOverride != "" {
		desc.Background = backgroundOverride
		if !strings.EqualFold(backgroundOverride, string(lights.BackgroundSun)) {
			desc.Sun = nil
		}
	}

	s, err := desc.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// Build validates the description and constructs the scene.
// Nothing is returned unless every sphere and the camera are valid.
func (d *Description) Build() (*Scene, error) {
	background, err := d.buildBackground()
	if err != nil {
		return nil, err
	}

	camera := geometry.DefaultCamera()
	if d.Camera != nil {
		if camera, err = d.Camera.build(); err != nil {
			return nil, err
		}
	}

	shapes := make([]geometry.Shape, 0, len(d.Spheres))
	for i, sd := range d.Spheres {
		mat, err := material.New(sd.Material)
		if err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		sphere, err := geometry.NewSphere(toVec3(sd.Center), sd.Radius, mat)
		if err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		shapes = append(shapes, sphere)
	}

	config := MergeSamplingConfig(DefaultSamplingConfig(), SamplingConfig(d.Sampling))
	return New(camera, background, config, shapes...)
}

func (d *Description) buildBackground() (lights.Background, error) {
	if d.Sun == nil {
		return lights.NewBackground(d.Background)
	}

	if d.Background != "" && !strings.EqualFold(d.Background, string(lights.BackgroundSun)) {
		return nil, fmt.Errorf("sun parameters given with %q background", d.Background)
	}
	return lights.NewSun(lights.NewSkyGradient(), toVec3(d.Sun.Direction), d.Sun.HalfAngle, toVec3(d.Sun.Emission))
}

func (c *CameraDescription) build() (*geometry.Camera, error) {
	if c.LookFrom != nil {
		up := toVec3(c.Up)
		if up.IsZero() {
			up = core.NewVec3(0, 1, 0)
		}
		return geometry.NewCameraFromConfig(geometry.CameraConfig{
			LookFrom:    toVec3(*c.LookFrom),
			LookAt:      toVec3(c.LookAt),
			Up:          up,
			VFov:        c.VFov,
			AspectRatio: c.AspectRatio,
		})
	}

	horizontal, vertical := toVec3(c.Horizontal), toVec3(c.Vertical)
	if horizontal.Cross(vertical).IsZero() {
		return nil, fmt.Errorf("camera horizontal and vertical spans must be non-zero and not parallel")
	}
	return geometry.NewCamera(toVec3(c.Origin), toVec3(c.LowerLeftCorner), horizontal, vertical), nil
}

// Describe converts a scene back into its description.
// Only lambertian spheres are representable.
func Describe(s *Scene) (*Description, error) {
	desc := &Description{
		Background: string(s.Background.Type()),
		Sampling:   SamplingDescription(s.SamplingConfig),
		Camera: &CameraDescription{
			Origin:          vecArray(s.Camera.Origin),
			LowerLeftCorner: vecArray(s.Camera.LowerLeftCorner),
			Horizontal:      vecArray(s.Camera.Horizontal),
			Vertical:        vecArray(s.Camera.Vertical),
		},
	}
	if sun, ok := s.Background.(*lights.SunSky); ok {
		desc.Sun = &SunDescription{
			Direction: vecArray(sun.Direction),
			HalfAngle: math.Acos(sun.CosHalfAngle) * 180 / math.Pi,
			Emission:  vecArray(sun.Emission),
		}
	}

	for i, shape := range s.Shapes {
		sphere, ok := shape.(*geometry.Sphere)
		if !ok {
			return nil, fmt.Errorf("shape %d: unsupported type %T", i, shape)
		}
		md, ok := material.Describe(sphere.Material)
		if !ok {
			return nil, fmt.Errorf("shape %d: unsupported material %T", i, sphere.Material)
		}
		desc.Spheres = append(desc.Spheres, SphereDescription{
			Center:   vecArray(sphere.Center),
			Radius:   sphere.Radius,
			Material: md,
		})
	}
	return desc, nil
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
