package renderer

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Tile          *Tile
	TargetSamples int
	TaskID        int            // Index into the submitted task slice
	PixelStats    [][]PixelStats // Shared pixel stats array to write to
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TaskID int
	Stats  RenderStats
}

// WorkerPool renders tiles concurrently with at most numWorkers in flight
type WorkerPool struct {
	renderer   *TileRenderer
	numWorkers int
}

// NewWorkerPool creates a worker pool; numWorkers <= 0 uses the CPU count
func NewWorkerPool(renderer *TileRenderer, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		renderer:   renderer,
		numWorkers: numWorkers,
	}
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Run renders all tasks and calls onResult for each finished tile on the calling goroutine.
// The first tile error cancels the remaining tiles and is returned.
// Tiles never overlap, so workers write to the shared pixel stats without locking.
func (wp *WorkerPool) Run(ctx context.Context, tasks []TileTask, onResult func(TileResult)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(wp.numWorkers)

	results := make(chan TileResult, len(tasks))
	done := make(chan error, 1)

	go func() {
		for _, task := range tasks {
			task := task // per-iteration copy (pre-Go 1.22 loop semantics)
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				stats, err := wp.renderer.RenderTileBounds(task.Tile.Bounds, task.PixelStats, task.Tile.Sampler, task.TargetSamples)
				if err != nil {
					return fmt.Errorf("tile %d: %w", task.Tile.ID, err)
				}
				results <- TileResult{TaskID: task.TaskID, Stats: stats}
				return nil
			})
		}
		done <- g.Wait()
		close(results)
	}()

	for result := range results {
		if onResult != nil {
			onResult(result)
		}
	}

	if err := <-done; err != nil {
		return err
	}
	return ctx.Err()
}
