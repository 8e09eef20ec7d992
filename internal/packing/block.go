package packing

import "fmt"

// Size is an immutable (width, height) definition a Block is built from.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Validate reports ErrInvalidDimension when either side is not positive.
func (s Size) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidDimension, s.Width, s.Height)
	}
	return nil
}

// Area returns width * height.
func (s Size) Area() int {
	return s.Width * s.Height
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Block is a placeable rectangle. X and Y use a bottom-left origin and are
// meaningful only once Placed reports true.
type Block struct {
	Width   int
	Height  int
	Index   int
	X       int
	Y       int
	Rotated bool

	placed bool
}

// NewBlock creates an unplaced block with the caller-assigned index.
func NewBlock(index, width, height int) (*Block, error) {
	size := Size{Width: width, Height: height}
	if err := size.Validate(); err != nil {
		return nil, err
	}
	return &Block{Width: width, Height: height, Index: index}, nil
}

// Area returns the block's footprint area.
func (b *Block) Area() int {
	return b.Width * b.Height
}

// Size returns the current effective dimensions.
func (b *Block) Size() Size {
	return Size{Width: b.Width, Height: b.Height}
}

// Placed reports whether the engine assigned a position to the block.
func (b *Block) Placed() bool {
	return b.placed
}

// Rotate swaps width and height and toggles the Rotated flag.
func (b *Block) Rotate() {
	b.Width, b.Height = b.Height, b.Width
	b.Rotated = !b.Rotated
}

// Reset clears the position so the block can take part in a new run.
func (b *Block) Reset() {
	b.X, b.Y = 0, 0
	b.placed = false
}

func (b *Block) String() string {
	if !b.placed {
		return fmt.Sprintf("#%d %dx%d (unplaced)", b.Index, b.Width, b.Height)
	}
	return fmt.Sprintf("#%d %dx%d at (%d, %d)", b.Index, b.Width, b.Height, b.X, b.Y)
}

func (b *Block) moveTo(x, y int) {
	b.X, b.Y = x, y
	b.placed = true
}

// IntersectionArea returns the area shared by the footprints of a and b.
// Disjoint or edge-touching blocks share no area.
func IntersectionArea(a, b *Block) int {
	xOverlap := max(0, min(a.X+a.Width, b.X+b.Width)-max(a.X, b.X))
	yOverlap := max(0, min(a.Y+a.Height, b.Y+b.Height)-max(a.Y, b.Y))
	return xOverlap * yOverlap
}

// overlaps applies the AABB separation test to a candidate footprint.
func overlaps(x, y, width, height int, other *Block) bool {
	return !(x+width <= other.X ||
		other.X+other.Width <= x ||
		y+height <= other.Y ||
		other.Y+other.Height <= y)
}
