package lights

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
)

// BackgroundType names a background policy
type BackgroundType string

const (
	BackgroundSky BackgroundType = "sky" // Vertical white-to-blue gradient
	BackgroundSun BackgroundType = "sun" // Gradient with a small bright directional disk
)

// ErrUnknownBackground is returned when a background policy name is not recognized
var ErrUnknownBackground = errors.New("unknown background")

// Background evaluates the radiance arriving along a ray that escapes the scene
type Background interface {
	Type() BackgroundType

	// Emit returns the radiance for the ray's direction.
	// The direction is normalized internally; a degenerate direction yields core.ErrDegenerateRay.
	Emit(ray core.Ray) (core.Vec3, error)
}

// NewBackground returns the default background for the given policy name.
// An empty name selects the sky gradient.
func NewBackground(name string) (Background, error) {
	switch BackgroundType(strings.ToLower(name)) {
	case "", BackgroundSky:
		return NewSkyGradient(), nil
	case BackgroundSun:
		return NewSunSky(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackground, name)
	}
}

// unitDirection normalizes a ray direction, mapping degenerate directions to ErrDegenerateRay
func unitDirection(ray core.Ray) (core.Vec3, error) {
	u, err := ray.Direction.Unit()
	if err != nil {
		return core.Vec3{}, fmt.Errorf("%w: %v", core.ErrDegenerateRay, err)
	}
	return u, nil
}
