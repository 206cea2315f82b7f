package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
	"github.com/df07/go-diffuse-pathtracer/pkg/lights"
)

// ErrUnknownScene is returned when a scene name matches neither a built-in nor a scene file
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to JSON file (file type only)
}

// builtinScenes lists the scenes constructed in code
var builtinScenes = []SceneInfo{
	{ID: "default", DisplayName: "Default", Description: "Red diffuse sphere on a blue-gray ground sphere", Type: "builtin"},
	{ID: "spheregrid", DisplayName: "Sphere Grid", Description: "Grid of colored diffuse spheres", Type: "builtin"},
}

// ListScenes returns the built-in scenes followed by JSON scenes found in the scenes directory
func ListScenes() ([]SceneInfo, error) {
	scenes := append([]SceneInfo(nil), builtinScenes...)

	files, err := ListSceneFiles()
	if err != nil {
		return nil, err
	}
	return append(scenes, files...), nil
}

// ListSceneFiles scans the scenes directory for JSON scene descriptions
func ListSceneFiles() ([]SceneInfo, error) {
	// Try different possible paths for scenes directory
	possiblePaths := []string{"scenes", "../scenes"}
	var scenesDir string

	for _, path := range possiblePaths {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			scenesDir = path
			break
		}
	}

	if scenesDir == "" {
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(scenesDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := make([]SceneInfo, 0, len(files))
	for _, filePath := range files {
		id := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
		scenes = append(scenes, SceneInfo{
			ID:          id,
			DisplayName: titleCase(id),
			Type:        "file",
			FilePath:    filePath,
		})
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].ID < scenes[j].ID
	})
	return scenes, nil
}

// Create builds a scene by built-in name, scene-file ID, or path to a JSON file.
// background selects the background policy; empty keeps the scene's own choice.
func Create(name, background string) (*Scene, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty scene name", ErrUnknownScene)
	}

	// Direct path to a scene file
	if strings.HasSuffix(name, ".json") {
		return LoadSceneFile(name, background)
	}

	switch name {
	case "default", "spheregrid":
		bg, err := lights.NewBackground(background)
		if err != nil {
			return nil, err
		}
		if name == "spheregrid" {
			return NewSphereGridScene(bg, 10)
		}
		return NewDefaultScene(bg)
	}

	files, err := ListSceneFiles()
	if err != nil {
		return nil, err
	}
	for _, info := range files {
		if info.ID == name {
			core.Logger().Debug("loading scene file", "scene", name, "path", info.FilePath)
			return LoadSceneFile(info.FilePath, background)
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
}

// titleCase turns a file ID like "three-spheres" into "Three Spheres"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}

	return strings.Join(words, " ")
}
