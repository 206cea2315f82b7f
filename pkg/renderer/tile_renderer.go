package renderer

import (
	"fmt"
	"image"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/integrator"
	"github.com/df07/go-diffuse-pathtracer/pkg/scene"
)

// TileRenderer handles the actual rendering of individual tiles using an integrator
type TileRenderer struct {
	scene         *scene.Scene
	integrator    integrator.Integrator
	width, height int
}

// NewTileRenderer creates a tile renderer for a width x height image of the scene
func NewTileRenderer(s *scene.Scene, integratorInst integrator.Integrator, width, height int) *TileRenderer {
	return &TileRenderer{
		scene:      s,
		integrator: integratorInst,
		width:      width,
		height:     height,
	}
}

// RenderTileBounds samples every pixel in bounds until it holds targetSamples samples.
// pixelStats is indexed [y][x] in image coordinates; callers must not share bounds between goroutines.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler, targetSamples int) (RenderStats, error) {
	stats := tr.initRenderStatsForBounds(bounds, targetSamples)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			samplesUsed, err := tr.samplePixel(x, y, &pixelStats[y][x], sampler, targetSamples)
			if err != nil {
				return RenderStats{}, fmt.Errorf("pixel (%d,%d): %w", x, y, err)
			}
			tr.updateStats(&stats, samplesUsed)
		}
	}

	tr.finalizeStats(&stats)
	return stats, nil
}

// samplePixel adds jittered samples to the pixel at image coordinates (x, y).
// Sample coordinates count rows from the bottom, so image row y is sample row height-1-y.
func (tr *TileRenderer) samplePixel(x, y int, ps *PixelStats, sampler core.Sampler, targetSamples int) (int, error) {
	initialSampleCount := ps.SampleCount
	j := tr.height - 1 - y

	for ps.SampleCount < targetSamples {
		jitter := sampler.Get2D()
		u := (float64(x) + jitter.X) / float64(tr.width)
		v := (float64(j) + jitter.Y) / float64(tr.height)

		color, err := tr.integrator.RayColor(tr.scene.Camera.GetRay(u, v), tr.scene, sampler)
		if err != nil {
			return ps.SampleCount - initialSampleCount, err
		}
		ps.AddSample(color)
	}

	return ps.SampleCount - initialSampleCount, nil
}

// initRenderStatsForBounds initializes the render statistics tracking for specific bounds
func (tr *TileRenderer) initRenderStatsForBounds(bounds image.Rectangle, maxSamples int) RenderStats {
	pixelCount := bounds.Dx() * bounds.Dy()
	return RenderStats{
		TotalPixels:    pixelCount,
		TotalSamples:   0,
		AverageSamples: 0,
		MaxSamples:     maxSamples,
		MinSamples:     maxSamples, // Start with max, will be reduced
		MaxSamplesUsed: 0,
	}
}

// updateStats updates the render statistics with data from a single pixel
func (tr *TileRenderer) updateStats(stats *RenderStats, samplesUsed int) {
	stats.TotalSamples += samplesUsed
	stats.MinSamples = min(stats.MinSamples, samplesUsed)
	stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samplesUsed)
}

// finalizeStats calculates final statistics after all pixels are rendered
func (tr *TileRenderer) finalizeStats(stats *RenderStats) {
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
}
