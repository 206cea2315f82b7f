package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
)

func newTileTasks(width, height, tileSize, targetSamples int) ([]TileTask, [][]PixelStats) {
	pixelStats := newPixelStats(width, height)
	tiles := NewTileGrid(width, height, tileSize, DefaultSeed)
	tasks := make([]TileTask, len(tiles))
	for i, tile := range tiles {
		tasks[i] = TileTask{Tile: tile, TargetSamples: targetSamples, TaskID: i, PixelStats: pixelStats}
	}
	return tasks, pixelStats
}

func TestWorkerPool_RunsEveryTile(t *testing.T) {
	s := newDefaultScene(t, 30, 20, 1)
	mock := &MockIntegrator{returnColor: core.NewVec3(1, 0, 0)}
	pool := NewWorkerPool(NewTileRenderer(s, mock, 30, 20), 3)
	tasks, pixelStats := newTileTasks(30, 20, 8, 2)

	seen := make(map[int]bool)
	err := pool.Run(context.Background(), tasks, func(result TileResult) {
		if seen[result.TaskID] {
			t.Errorf("Task %d reported twice", result.TaskID)
		}
		seen[result.TaskID] = true
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(seen) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(seen))
	}
	if got := mock.callCount.Load(); got != 30*20*2 {
		t.Errorf("Expected %d samples, got %d", 30*20*2, got)
	}
	for y := range pixelStats {
		for x := range pixelStats[y] {
			if pixelStats[y][x].SampleCount != 2 {
				t.Fatalf("Pixel (%d,%d) has %d samples", x, y, pixelStats[y][x].SampleCount)
			}
		}
	}
}

func TestWorkerPool_DefaultWorkers(t *testing.T) {
	pool := NewWorkerPool(nil, 0)
	if pool.GetNumWorkers() < 1 {
		t.Errorf("Expected at least one worker, got %d", pool.GetNumWorkers())
	}
}

func TestWorkerPool_PropagatesError(t *testing.T) {
	s := newDefaultScene(t, 16, 16, 1)
	pool := NewWorkerPool(NewTileRenderer(s, &MockIntegrator{fail: true}, 16, 16), 2)
	tasks, _ := newTileTasks(16, 16, 4, 1)

	err := pool.Run(context.Background(), tasks, nil)
	if !errors.Is(err, errMockIntegrator) {
		t.Errorf("Expected integrator error, got %v", err)
	}
}

func TestWorkerPool_CancelledContext(t *testing.T) {
	s := newDefaultScene(t, 16, 16, 1)
	mock := &MockIntegrator{}
	pool := NewWorkerPool(NewTileRenderer(s, mock, 16, 16), 2)
	tasks, _ := newTileTasks(16, 16, 4, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := pool.Run(ctx, tasks, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if got := mock.callCount.Load(); got != 0 {
		t.Errorf("Expected no samples after cancellation, got %d", got)
	}
}
