package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/renderer"
	"github.com/df07/go-diffuse-pathtracer/pkg/scene"
)

// TileUpdate represents a single tile update sent via SSE
type TileUpdate struct {
	TileX       int    `json:"tileX"`
	TileY       int    `json:"tileY"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG of just this tile
	PassNumber  int    `json:"passNumber"`
	TileNumber  int    `json:"tileNumber"`  // Current tile number in this pass (1-based)
	TotalTiles  int    `json:"totalTiles"`  // Total number of tiles in the image
	TotalPasses int    `json:"totalPasses"` // Total number of passes planned
}

// PassUpdate is sent via SSE when a pass finishes
type PassUpdate struct {
	PassNumber     int   `json:"passNumber"`
	TotalPasses    int   `json:"totalPasses"`
	ElapsedMs      int64 `json:"elapsedMs"`
	Stats          Stats `json:"stats"`
	PrimitiveCount int   `json:"primitiveCount"`
	IsComplete     bool  `json:"isComplete"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "tile", "passComplete", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// RenderingPipeline contains the configured scene and raytracer
type RenderingPipeline struct {
	Scene     *scene.Scene
	Raytracer *renderer.ProgressiveRaytracer
	Config    renderer.ProgressiveConfig
}

// handleRender handles progressive rendering with real-time tile streaming via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	// Every write to w goes through one writer goroutine
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	logger := newConsoleLogger(renderID, consoleChan, core.Logger().Handler()).With("render", renderID)

	pipeline, err := s.setupRenderingPipeline(req)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}
	pipeline.Raytracer.SetLogger(logger)

	startTime := time.Now()
	passChan, tileChan, errChan := pipeline.Raytracer.RenderProgressive(ctx, renderer.RenderOptions{TileUpdates: true})

	s.handleRenderingEvents(ctx, sseEventChan, consoleChan, passChan, tileChan, errChan, pipeline, startTime)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes events until the channel closes or the client disconnects
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}

		case <-ctx.Done():
			return
		}
	}
}

// setupRenderingPipeline creates the scene and progressive raytracer for a request
func (s *Server) setupRenderingPipeline(req *RenderRequest) (*RenderingPipeline, error) {
	sceneObj, err := s.createScene(req)
	if err != nil {
		return nil, err
	}

	samples := sceneObj.SamplingConfig.SamplesPerPixel
	config := renderer.ProgressiveConfig{
		TileSize:           DefaultTileSize,
		InitialSamples:     1,
		MaxSamplesPerPixel: samples,
		MaxPasses:          max(1, min(req.MaxPasses, samples)),
		NumWorkers:         0, // Auto-detect
		Seed:               renderer.DefaultSeed,
	}
	if config.MaxPasses == 1 {
		config.InitialSamples = samples
	}

	raytracer, err := renderer.NewProgressiveRaytracer(sceneObj, config)
	if err != nil {
		return nil, err
	}
	return &RenderingPipeline{
		Scene:     sceneObj,
		Raytracer: raytracer,
		Config:    config,
	}, nil
}

// handleRenderingEvents forwards pass, tile, and console events until the render goroutine finishes
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan<- SSEEvent, consoleChan <-chan ConsoleMessage,
	passChan <-chan renderer.PassResult, tileChan <-chan renderer.TileCompletionResult, errChan <-chan error,
	pipeline *RenderingPipeline, startTime time.Time) {

	for passChan != nil || tileChan != nil {
		select {
		case passResult, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			s.handlePassComplete(ctx, sseEventChan, passResult, pipeline, startTime)

		case tileResult, ok := <-tileChan:
			if !ok {
				tileChan = nil
				continue
			}
			s.handleTileUpdate(ctx, sseEventChan, tileResult)

		case msg := <-consoleChan:
			s.handleConsoleMessage(ctx, sseEventChan, msg)

		case <-ctx.Done():
			// Client disconnected; the render goroutine stops on the same context
			return
		}
	}

	// Flush console lines logged after the last pass
	for len(consoleChan) > 0 {
		s.handleConsoleMessage(ctx, sseEventChan, <-consoleChan)
	}

	if err := <-errChan; err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Rendering completed"}:
	case <-ctx.Done():
	}
}

// handlePassComplete processes and sends pass completion events
func (s *Server) handlePassComplete(ctx context.Context, sseEventChan chan<- SSEEvent, passResult renderer.PassResult,
	pipeline *RenderingPipeline, startTime time.Time) {

	update := PassUpdate{
		PassNumber:     passResult.PassNumber,
		TotalPasses:    pipeline.Config.MaxPasses,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		Stats:          toStats(passResult.Stats),
		PrimitiveCount: pipeline.Scene.GetPrimitiveCount(),
		IsComplete:     passResult.IsLast,
	}
	s.sendEvent(ctx, sseEventChan, "passComplete", update)
}

// handleTileUpdate processes and sends tile update events
func (s *Server) handleTileUpdate(ctx context.Context, sseEventChan chan<- SSEEvent, tileResult renderer.TileCompletionResult) {
	tileData, err := s.imageToBase64PNG(tileResult.TileImage)
	if err != nil {
		core.Logger().Warn("failed to encode tile image", "tileX", tileResult.TileX, "tileY", tileResult.TileY, "error", err)
		return
	}

	update := TileUpdate{
		TileX:       tileResult.TileX,
		TileY:       tileResult.TileY,
		ImageData:   tileData,
		PassNumber:  tileResult.PassNumber,
		TileNumber:  tileResult.TileNumber,
		TotalTiles:  tileResult.TotalTiles,
		TotalPasses: tileResult.TotalPasses,
	}
	s.sendEvent(ctx, sseEventChan, "tile", update)
}

// handleConsoleMessage sends a console line, dropping it if the event buffer is full
func (s *Server) handleConsoleMessage(ctx context.Context, sseEventChan chan<- SSEEvent, msg ConsoleMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
	case <-ctx.Done():
	default:
	}
}

// sendEvent marshals v and queues it for the SSE writer
func (s *Server) sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		core.Logger().Warn("failed to marshal SSE event", "type", eventType, "error", err)
		return
	}
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
	}
}
