package renderer

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/scene"
)

// recordingIntegrator stores the camera rays it receives
type recordingIntegrator struct {
	rays []core.Ray
}

func (r *recordingIntegrator) RayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler) (core.Vec3, error) {
	r.rays = append(r.rays, ray)
	return core.NewVec3(1, 1, 1), nil
}

// halfSampler always returns 0.5, putting every sample at the pixel center
type halfSampler struct{}

func (halfSampler) Get1D() float64   { return 0.5 }
func (halfSampler) Get2D() core.Vec2 { return core.NewVec2(0.5, 0.5) }
func (halfSampler) Get3D() core.Vec3 { return core.NewVec3(0.5, 0.5, 0.5) }

func TestTileRenderer_SamplesUpToTarget(t *testing.T) {
	s := newDefaultScene(t, 8, 6, 1)
	mock := &MockIntegrator{returnColor: core.NewVec3(0.5, 0.5, 0.5)}
	tr := NewTileRenderer(s, mock, 8, 6)
	pixelStats := newPixelStats(8, 6)
	bounds := image.Rect(2, 1, 6, 4) // 4x3 pixels
	sampler := core.NewSeededSampler(1)

	stats, err := tr.RenderTileBounds(bounds, pixelStats, sampler, 5)
	if err != nil {
		t.Fatalf("RenderTileBounds: %v", err)
	}
	if mock.callCount.Load() != 60 || stats.TotalSamples != 60 || stats.TotalPixels != 12 {
		t.Errorf("Expected 60 samples over 12 pixels, got calls=%d stats=%+v", mock.callCount.Load(), stats)
	}

	// Same target again: nothing left to do
	stats, err = tr.RenderTileBounds(bounds, pixelStats, sampler, 5)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSamples != 0 || stats.MinSamples != 0 {
		t.Errorf("Expected no new samples, got %+v", stats)
	}

	// Raising the target only adds the difference
	stats, err = tr.RenderTileBounds(bounds, pixelStats, sampler, 8)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSamples != 36 || stats.AverageSamples != 3 {
		t.Errorf("Expected 3 new samples per pixel, got %+v", stats)
	}

	// Pixels outside the bounds are untouched
	if pixelStats[0][0].SampleCount != 0 || pixelStats[5][7].SampleCount != 0 {
		t.Error("Pixels outside the tile were sampled")
	}
	if got := pixelStats[1][2].GetColor(); got != core.NewVec3(0.5, 0.5, 0.5) {
		t.Errorf("Expected averaged color 0.5, got %v", got)
	}
}

func TestTileRenderer_SampleCoordinates(t *testing.T) {
	// Default camera: a pixel-center ray through (x, y) hits the image plane at
	// u = (x+0.5)/W and v = (H-1-y+0.5)/H
	s := newDefaultScene(t, 4, 2, 1)
	rec := &recordingIntegrator{}
	tr := NewTileRenderer(s, rec, 4, 2)

	if _, err := tr.RenderTileBounds(image.Rect(0, 0, 4, 2), newPixelStats(4, 2), halfSampler{}, 1); err != nil {
		t.Fatal(err)
	}
	if len(rec.rays) != 8 {
		t.Fatalf("Expected 8 rays, got %d", len(rec.rays))
	}

	// First ray is image pixel (0,0): top-left, so it points left and up
	first := rec.rays[0].Direction
	expected := s.Camera.GetRay(0.5/4, 1.5/2).Direction
	if first.Subtract(expected).Length() > 1e-12 {
		t.Errorf("Expected top-left ray %v, got %v", expected, first)
	}
	if first.X >= 0 || first.Y <= 0 {
		t.Errorf("Top-left ray should point left and up, got %v", first)
	}

	// Last ray is image pixel (3,1): bottom-right
	last := rec.rays[7].Direction
	if last.X <= 0 || last.Y >= 0 {
		t.Errorf("Bottom-right ray should point right and down, got %v", last)
	}
	if math.Abs(last.Z+1) > 1e-12 {
		t.Errorf("Expected rays to the z=-1 plane, got %v", last)
	}
}

func TestTileRenderer_Error(t *testing.T) {
	s := newDefaultScene(t, 4, 4, 1)
	tr := NewTileRenderer(s, &MockIntegrator{fail: true}, 4, 4)

	_, err := tr.RenderTileBounds(image.Rect(0, 0, 4, 4), newPixelStats(4, 4), core.NewSeededSampler(1), 2)
	if !errors.Is(err, errMockIntegrator) {
		t.Errorf("Expected integrator error, got %v", err)
	}
}
