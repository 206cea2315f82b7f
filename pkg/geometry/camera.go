package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-diffuse-pathtracer/pkg/core"
)

// Camera generates rays through an image-plane rectangle
type Camera struct {
	Origin          core.Vec3
	LowerLeftCorner core.Vec3
	Horizontal      core.Vec3
	Vertical        core.Vec3
}

// CameraConfig describes a look-at camera from which the image-plane rectangle is computed
type CameraConfig struct {
	LookFrom    core.Vec3
	LookAt      core.Vec3
	Up          core.Vec3
	VFov        float64 // Vertical field of view in degrees
	AspectRatio float64 // Width / height
}

// NewCamera creates a camera from an explicit image-plane rectangle
func NewCamera(origin, lowerLeftCorner, horizontal, vertical core.Vec3) *Camera {
	return &Camera{
		Origin:          origin,
		LowerLeftCorner: lowerLeftCorner,
		Horizontal:      horizontal,
		Vertical:        vertical,
	}
}

// DefaultCamera returns the fixed 2:1 camera at the origin looking down -Z
func DefaultCamera() *Camera {
	return NewCamera(
		core.NewVec3(0, 0, 0),
		core.NewVec3(-2, -1, -1),
		core.NewVec3(4, 0, 0),
		core.NewVec3(0, 2, 0),
	)
}

// NewCameraFromConfig computes the image-plane rectangle one unit in front of LookFrom
func NewCameraFromConfig(config CameraConfig) (*Camera, error) {
	if config.VFov <= 0 || config.VFov >= 180 {
		return nil, fmt.Errorf("camera vfov must be in (0, 180), got %v", config.VFov)
	}
	if config.AspectRatio <= 0 {
		return nil, fmt.Errorf("camera aspect ratio must be positive, got %v", config.AspectRatio)
	}

	theta := config.VFov * math.Pi / 180
	halfHeight := math.Tan(theta / 2)
	halfWidth := config.AspectRatio * halfHeight

	// Orthonormal basis: w points backwards, u to the right, v up
	w, err := config.LookFrom.Subtract(config.LookAt).Unit()
	if err != nil {
		return nil, fmt.Errorf("camera lookFrom and lookAt coincide: %w", err)
	}
	u, err := config.Up.Cross(w).Unit()
	if err != nil {
		return nil, fmt.Errorf("camera up vector is parallel to view direction: %w", err)
	}
	v := w.Cross(u)

	origin := config.LookFrom
	lowerLeftCorner := origin.
		Subtract(u.Multiply(halfWidth)).
		Subtract(v.Multiply(halfHeight)).
		Subtract(w)

	return NewCamera(origin, lowerLeftCorner, u.Multiply(2*halfWidth), v.Multiply(2*halfHeight)), nil
}

// GetRay generates a ray for screen coordinates (u, v) where 0 <= u,v <= 1.
// (0, 0) is the lower-left corner of the image plane.
func (c *Camera) GetRay(u, v float64) core.Ray {
	direction := c.LowerLeftCorner.
		Add(c.Horizontal.Multiply(u)).
		Add(c.Vertical.Multiply(v)).
		Subtract(c.Origin)

	return core.NewRay(c.Origin, direction)
}
