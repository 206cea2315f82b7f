package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/output"
	"github.com/df07/go-diffuse-pathtracer/pkg/renderer"
	"github.com/df07/go-diffuse-pathtracer/pkg/scene"
)

// options holds the parsed command line
type options struct {
	sceneName   string
	width       int
	height      int
	samples     int
	depth       int
	progressive bool
	passes      int
	workers     int
	tileSize    int
	background  string
	seed        int64
	format      string
	scale       int
	smooth      bool
	out         string
	dumpScene   bool
	verbose     bool
	help        bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags reads the command line into options
func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.sceneName, "scene", "default", "Built-in scene name, scene file ID, or path to a .json scene")
	fs.IntVar(&opts.width, "width", 0, "Image width (0 = scene default)")
	fs.IntVar(&opts.height, "height", 0, "Image height (0 = scene default)")
	fs.IntVar(&opts.samples, "samples", 0, "Samples per pixel (0 = scene default)")
	fs.IntVar(&opts.depth, "depth", 0, "Maximum bounces per path (0 = scene default)")
	fs.BoolVar(&opts.progressive, "progressive", true, "Render in parallel tiles; false renders sequentially with one sampler")
	fs.IntVar(&opts.passes, "passes", 1, "Number of progressive passes")
	fs.IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = CPU count)")
	fs.IntVar(&opts.tileSize, "tile", 64, "Tile size in pixels")
	fs.StringVar(&opts.background, "background", "", "Background: 'sky' or 'sun' (empty = scene default)")
	fs.Int64Var(&opts.seed, "seed", renderer.DefaultSeed, "Base random seed")
	fs.StringVar(&opts.format, "format", "", "Output format: png, ppm, bmp, tiff, jpeg (empty = from -out extension, else png)")
	fs.IntVar(&opts.scale, "scale", 1, "Integer upscale factor applied before saving")
	fs.BoolVar(&opts.smooth, "smooth", false, "Use Catmull-Rom filtering when upscaling")
	fs.StringVar(&opts.out, "out", "", "Output file (default output/<scene>/render_<timestamp>.<ext>)")
	fs.BoolVar(&opts.dumpScene, "dump-scene", false, "Print the resolved scene as JSON instead of rendering")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log per-pass and per-tile progress")
	fs.BoolVar(&opts.help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return opts, fs, nil
}

// run renders one image as described by args
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.help {
		printHelp(stdout, fs)
		return nil
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	core.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer core.SetLogger(nil)

	selectedScene, err := createScene(opts.sceneName, opts.background)
	if err != nil {
		return err
	}
	selectedScene.SamplingConfig = scene.MergeSamplingConfig(selectedScene.SamplingConfig, scene.SamplingConfig{
		Width:           opts.width,
		Height:          opts.height,
		SamplesPerPixel: opts.samples,
		MaxDepth:        opts.depth,
	})
	sampling := selectedScene.SamplingConfig

	if opts.dumpScene {
		return dumpScene(stdout, selectedScene)
	}

	format, outPath, err := resolveOutput(opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Rendering %s: %dx%d, %d samples/pixel, depth %d, %s background\n",
		opts.sceneName, sampling.Width, sampling.Height, sampling.SamplesPerPixel, sampling.MaxDepth,
		selectedScene.Background.Type())

	startTime := time.Now()
	img, stats, err := render(ctx, selectedScene, opts)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	renderTime := time.Since(startTime)

	fmt.Fprintf(stdout, "Render completed in %v\n", renderTime)
	fmt.Fprintf(stdout, "Samples per pixel: %.1f (range %d - %d)\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed)

	final := img
	if opts.scale > 1 {
		if final, err = output.Scale(img, opts.scale, opts.smooth); err != nil {
			return err
		}
	}

	if err := output.SaveAs(outPath, final, format); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Render saved as %s (average luminance %.3f)\n", outPath, renderer.CalculateAverageLuminance(final))
	return nil
}

// render draws the scene either progressively in tiles or sequentially with a single sampler
func render(ctx context.Context, s *scene.Scene, opts *options) (*image.RGBA, renderer.RenderStats, error) {
	sampling := s.SamplingConfig

	if !opts.progressive {
		raytracer := renderer.NewRaytracer(s)
		raytracer.SetSampler(core.NewSeededSampler(opts.seed))
		return raytracer.RenderPass()
	}

	config := renderer.ProgressiveConfig{
		TileSize:           opts.tileSize,
		InitialSamples:     1,
		MaxSamplesPerPixel: sampling.SamplesPerPixel,
		MaxPasses:          max(1, min(opts.passes, sampling.SamplesPerPixel)),
		NumWorkers:         opts.workers,
		Seed:               opts.seed,
	}
	if config.MaxPasses == 1 {
		config.InitialSamples = sampling.SamplesPerPixel
	}

	raytracer, err := renderer.NewProgressiveRaytracer(s, config)
	if err != nil {
		return nil, renderer.RenderStats{}, err
	}
	return raytracer.Render(ctx)
}

// dumpScene writes the scene as an indented JSON description
func dumpScene(w io.Writer, s *scene.Scene) error {
	desc, err := scene.Describe(s)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(desc)
}

// createScene builds the named scene with an optional background override
func createScene(sceneName, background string) (*scene.Scene, error) {
	return scene.Create(sceneName, background)
}

// resolveOutput decides the output format and path from -format and -out
func resolveOutput(opts *options) (output.Format, string, error) {
	format := output.FormatPNG
	switch {
	case opts.format != "":
		f, err := output.ParseFormat(opts.format)
		if err != nil {
			return "", "", err
		}
		format = f
	case opts.out != "":
		f, err := output.FormatFromPath(opts.out)
		if err != nil {
			return "", "", err
		}
		format = f
	}

	if opts.out != "" {
		return format, opts.out, nil
	}

	// Create timestamped filename per scene
	sceneDir := filepath.Base(opts.sceneName)
	sceneDir = sceneDir[:len(sceneDir)-len(filepath.Ext(sceneDir))]
	timestamp := time.Now().Format("20060102_150405")
	return format, filepath.Join("output", sceneDir, "render_"+timestamp+format.Extension()), nil
}

// printHelp lists flags and available scenes
func printHelp(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Diffuse Sphere Path Tracer")
	fmt.Fprintln(w, "Usage: pathtracer [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available scenes:")

	scenes, err := scene.ListScenes()
	if err != nil {
		fmt.Fprintf(w, "  (failed to list scenes: %v)\n", err)
		return
	}
	for _, info := range scenes {
		if info.Description != "" {
			fmt.Fprintf(w, "  %-16s %s\n", info.ID, info.Description)
		} else {
			fmt.Fprintf(w, "  %-16s %s\n", info.ID, info.FilePath)
		}
	}
}
