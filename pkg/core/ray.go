package core

// Ray represents a ray with an origin and direction
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// NewRay creates a new ray
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// At returns the point at parameter t along the ray.
// t is not validated; callers bound it.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// Validate returns ErrDegenerateRay if the origin is not finite or the direction cannot be normalized
func (r Ray) Validate() error {
	if !r.Origin.IsFinite() {
		return ErrDegenerateRay
	}
	if _, err := r.Direction.Unit(); err != nil {
		return ErrDegenerateRay
	}
	return nil
}
