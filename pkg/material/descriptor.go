package material

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
)

var (
	// ErrUnknownMaterial is returned for a descriptor kind with no implementation
	ErrUnknownMaterial = errors.New("unknown material kind")

	// ErrInvalidMaterial is returned when descriptor parameters are out of range
	ErrInvalidMaterial = errors.New("invalid material parameters")
)

// KindLambertian is the descriptor kind for ideal diffuse surfaces
const KindLambertian = "lambertian"

// Descriptor describes a material by kind and parameters, as read from scene files
type Descriptor struct {
	Kind   string     `json:"kind"`
	Albedo [3]float64 `json:"albedo"`
}

// New builds a material from its descriptor
func New(desc Descriptor) (Material, error) {
	switch strings.ToLower(desc.Kind) {
	case KindLambertian, "diffuse":
		albedo := core.NewVec3(desc.Albedo[0], desc.Albedo[1], desc.Albedo[2])
		for _, c := range desc.Albedo {
			if c < 0 || c > 1 {
				return nil, fmt.Errorf("%w: albedo %v outside [0,1]", ErrInvalidMaterial, desc.Albedo)
			}
		}
		return NewLambertian(albedo), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMaterial, desc.Kind)
	}
}

// Describe returns the descriptor for a known material, and false otherwise
func Describe(mat Material) (Descriptor, bool) {
	switch m := mat.(type) {
	case *Lambertian:
		return Descriptor{
			Kind:   KindLambertian,
			Albedo: [3]float64{m.Albedo.X, m.Albedo.Y, m.Albedo.Z},
		}, true
	default:
		return Descriptor{}, false
	}
}
