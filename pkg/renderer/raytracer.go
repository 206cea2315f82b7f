package renderer

import (
	"image"
	"image/color"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/integrator"
	"github.com/df07/go-diffuse-pathtracer/pkg/scene"
)

// DefaultSeed seeds the sampler of a single-threaded render and the tile samplers of a progressive one
const DefaultSeed int64 = 42

// Raytracer renders a whole image in one pass on the calling goroutine with a single sampler.
// It is the sequential reference for the tiled progressive renderer.
type Raytracer struct {
	scene      *scene.Scene
	width      int
	height     int
	config     scene.SamplingConfig
	integrator integrator.Integrator
	sampler    core.Sampler
}

// NewRaytracer creates a raytracer using the scene's sampling configuration
func NewRaytracer(s *scene.Scene) *Raytracer {
	config := s.SamplingConfig
	return &Raytracer{
		scene:      s,
		width:      config.Width,
		height:     config.Height,
		config:     config,
		integrator: integrator.NewPathTracingIntegrator(config),
		sampler:    core.NewSeededSampler(DefaultSeed), // Deterministic for testing
	}
}

// SetSampler replaces the random source
func (rt *Raytracer) SetSampler(sampler core.Sampler) {
	rt.sampler = sampler
}

// RenderPass renders every pixel with SamplesPerPixel samples and returns the image.
// The first error from any ray aborts the render.
func (rt *Raytracer) RenderPass() (*image.RGBA, RenderStats, error) {
	if err := rt.config.Validate(); err != nil {
		return nil, RenderStats{}, err
	}

	pixelStats := newPixelStats(rt.width, rt.height)
	tileRenderer := NewTileRenderer(rt.scene, rt.integrator, rt.width, rt.height)

	stats, err := tileRenderer.RenderTileBounds(image.Rect(0, 0, rt.width, rt.height), pixelStats, rt.sampler, rt.config.SamplesPerPixel)
	if err != nil {
		return nil, RenderStats{}, err
	}

	img := image.NewRGBA(image.Rect(0, 0, rt.width, rt.height))
	for y := 0; y < rt.height; y++ {
		for x := 0; x < rt.width; x++ {
			img.SetRGBA(x, y, vec3ToColor(pixelStats[y][x].GetColor()))
		}
	}

	return img, stats, nil
}

// vec3ToColor converts a linear color to RGBA: gamma 2, clamp to [0,1], then quantize with 255.99
func vec3ToColor(colorVec core.Vec3) color.RGBA {
	// Apply gamma correction (gamma = 2.0)
	colorVec = colorVec.GammaCorrect(2.0)

	// Clamp to valid color range
	colorVec = colorVec.Clamp(0.0, 1.0)

	return color.RGBA{
		R: uint8(255.99 * colorVec.X),
		G: uint8(255.99 * colorVec.Y),
		B: uint8(255.99 * colorVec.Z),
		A: 255,
	}
}
