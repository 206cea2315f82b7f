package lights

import (
	"github.com/df07/go-diffuse-pathtracer/pkg/core"
)

var (
	// White is the gradient color looking straight down
	White = core.NewVec3(1, 1, 1)

	// SkyBlue is the gradient color looking straight up: 30% (0.5,0.7,1.0) mixed into white
	SkyBlue = core.NewVec3(0.5, 0.7, 1.0).Multiply(0.3).Add(White.Multiply(0.7))
)

// SkyGradient is a pure vertical-gradient ambient background
type SkyGradient struct {
	BottomColor core.Vec3 // Color at u.Y = -1
	TopColor    core.Vec3 // Color at u.Y = +1
}

// NewSkyGradient creates the default white-to-sky-blue gradient
func NewSkyGradient() *SkyGradient {
	return NewGradient(White, SkyBlue)
}

// NewGradient creates a vertical gradient between two colors
func NewGradient(bottomColor, topColor core.Vec3) *SkyGradient {
	return &SkyGradient{BottomColor: bottomColor, TopColor: topColor}
}

func (g *SkyGradient) Type() BackgroundType {
	return BackgroundSky
}

// Emit implements Background: lerp(bottom, top, 0.5*(u.Y+1))
func (g *SkyGradient) Emit(ray core.Ray) (core.Vec3, error) {
	u, err := unitDirection(ray)
	if err != nil {
		return core.Vec3{}, err
	}
	return g.emissionForDirection(u), nil
}

// emissionForDirection evaluates the gradient for a unit direction
func (g *SkyGradient) emissionForDirection(u core.Vec3) core.Vec3 {
	t := 0.5 * (u.Y + 1.0) // Map Y from [-1,1] to [0,1]
	return g.BottomColor.Lerp(g.TopColor, t)
}
