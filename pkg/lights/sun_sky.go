package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
)

// Defaults for the directional sun disk
const DefaultSunHalfAngleDegrees = 5.0

var (
	DefaultSunDirection = core.NewVec3(1, 1, 1)
	DefaultSunEmission  = core.NewVec3(5, 5, 3)
)

// SunSky is a sky gradient with a small-angle directional emitter.
// Rays inside the sun's angular disk see the sun emission instead of the gradient.
type SunSky struct {
	Sky          *SkyGradient
	Direction    core.Vec3 // Unit direction toward the sun
	CosHalfAngle float64   // Cosine of the disk's angular radius
	Emission     core.Vec3
}

// NewSunSky creates the default sun: direction (1,1,1), 5° half angle, emission (5,5,3)
func NewSunSky() *SunSky {
	return &SunSky{
		Sky:          NewSkyGradient(),
		Direction:    DefaultSunDirection.Divide(math.Sqrt(3)),
		CosHalfAngle: math.Cos(DefaultSunHalfAngleDegrees * math.Pi / 180),
		Emission:     DefaultSunEmission,
	}
}

// NewSun creates a sun disk over the given sky
func NewSun(sky *SkyGradient, direction core.Vec3, halfAngleDegrees float64, emission core.Vec3) (*SunSky, error) {
	unit, err := direction.Unit()
	if err != nil {
		return nil, fmt.Errorf("sun direction: %w", err)
	}
	if halfAngleDegrees <= 0 || halfAngleDegrees >= 90 {
		return nil, fmt.Errorf("sun half angle must be in (0, 90) degrees, got %v", halfAngleDegrees)
	}
	return &SunSky{
		Sky:          sky,
		Direction:    unit,
		CosHalfAngle: math.Cos(halfAngleDegrees * math.Pi / 180),
		Emission:     emission,
	}, nil
}

func (s *SunSky) Type() BackgroundType {
	return BackgroundSun
}

// Emit implements Background; the sun takes precedence over the gradient inside its disk
func (s *SunSky) Emit(ray core.Ray) (core.Vec3, error) {
	u, err := unitDirection(ray)
	if err != nil {
		return core.Vec3{}, err
	}
	if s.Direction.Dot(u) >= s.CosHalfAngle {
		return s.Emission, nil
	}
	return s.Sky.emissionForDirection(u), nil
}
