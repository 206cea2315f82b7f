package scene

import (
	"math"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/geometry"
	"github.com/df07/go-diffuse-pathtracer/pkg/lights"
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	// Albedo must stay in [0, 1]
	return core.NewVec3(r, g, blue).Clamp(0, 1)
}

// NewSphereGridScene creates a scene with a grid of diffuse spheres on a large ground sphere
func NewSphereGridScene(background lights.Background, gridSize int) (*Scene, error) {
	if gridSize < 2 {
		gridSize = 2
	}

	camera, err := geometry.NewCameraFromConfig(geometry.CameraConfig{
		LookFrom:    core.NewVec3(4.5, 6, 18),
		LookAt:      core.NewVec3(4.5, 0.8, 4.5),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        40.0,
		AspectRatio: 16.0 / 9.0,
	})
	if err != nil {
		return nil, err
	}

	// Ground is a huge sphere whose top touches y = 0
	const groundRadius = 1000.0
	specs := []sphereSpec{
		{center: core.NewVec3(4.5, -groundRadius, 4.5), radius: groundRadius, albedo: core.NewVec3(0.5, 0.5, 0.5)},
	}

	// Fit the grid into a roughly 9x9 area
	targetArea := 9.0
	spacing := targetArea / float64(gridSize-1)
	sphereRadius := math.Max(0.02, math.Min(0.35, spacing*0.35))

	baseLightness := 0.65
	minChroma := 0.05
	maxChroma := 0.25

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			x := float64(i)*spacing - targetArea/2.0 + 4.5
			z := float64(j)*spacing - targetArea/2.0 + 4.5

			// Hue varies across X, chroma across Z
			hue := (float64(i) / float64(gridSize-1)) * 360.0
			chroma := minChroma + (float64(j)/float64(gridSize-1))*(maxChroma-minChroma)
			lightness := baseLightness + 0.1*math.Sin(float64(i+j)*0.5)

			specs = append(specs, sphereSpec{
				center: core.NewVec3(x, sphereRadius, z),
				radius: sphereRadius,
				albedo: oklchToRGB(lightness, chroma, hue),
			})
		}
	}

	shapes, err := buildSpheres(specs)
	if err != nil {
		return nil, err
	}

	config := SamplingConfig{
		Width:           640,
		Height:          360,
		SamplesPerPixel: 100,
		MaxDepth:        40,
	}
	return New(camera, background, config, shapes...)
}
