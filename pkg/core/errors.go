package core

import "errors"

var (
	// ErrDegenerateVector is returned when normalizing a zero-length vector
	ErrDegenerateVector = errors.New("degenerate vector: zero length")

	// ErrDegenerateRay is returned when a ray has no usable direction
	ErrDegenerateRay = errors.New("degenerate ray: zero-length direction")

	// ErrInvalidPrimitive is returned when a primitive fails validation at scene build time
	ErrInvalidPrimitive = errors.New("invalid primitive")

	// ErrRandomSourceFailure is returned when rejection sampling exhausts its trial cap,
	// which only happens with a broken random source
	ErrRandomSourceFailure = errors.New("random source failure: rejection sampling did not converge")
)
