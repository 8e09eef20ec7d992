package packing

import "errors"

var (
	// ErrInvalidDimension is returned when a block or surface has a zero or negative side.
	ErrInvalidDimension = errors.New("width and height must be positive integers")
	// ErrStaleBlock is returned when Pack receives a nil block or one that already carries a position.
	ErrStaleBlock = errors.New("block is nil or already placed; build fresh blocks for every run")
	// ErrNilSurface is returned when Pack is called without a surface.
	ErrNilSurface = errors.New("surface must not be nil")
	// ErrSurfaceTooLarge is returned when a requested surface exceeds the configured side limit.
	ErrSurfaceTooLarge = errors.New("surface exceeds the maximum allowed side length")
	// ErrLayoutTooExpensive is returned when the estimated scan cost of a layout exceeds the configured budget.
	ErrLayoutTooExpensive = errors.New("layout exceeds the placement work budget")
)
