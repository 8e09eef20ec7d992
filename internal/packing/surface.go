package packing

import "slices"

// Surface is the growable region blocks are packed into. Its bounds never
// shrink and always contain every placed block.
type Surface struct {
	width  int
	height int
	blocks []*Block
}

// NewSurface creates an empty surface with the given initial bounds.
func NewSurface(width, height int) (*Surface, error) {
	if err := (Size{Width: width, Height: height}).Validate(); err != nil {
		return nil, err
	}
	return &Surface{width: width, height: height}, nil
}

// Width returns the current width.
func (s *Surface) Width() int {
	return s.width
}

// Height returns the current height.
func (s *Surface) Height() int {
	return s.height
}

// Blocks returns the placed blocks in placement order.
func (s *Surface) Blocks() []*Block {
	return slices.Clone(s.blocks)
}

// Len returns the number of placed blocks.
func (s *Surface) Len() int {
	return len(s.blocks)
}

// Fullness returns 1 - overlap / (filled + overlap), where filled is the summed
// block area and overlap the summed pairwise intersection area. Without any
// overlap the result is exactly 1, including for an empty surface.
func (s *Surface) Fullness() float64 {
	filled := s.filledArea()
	inner := 0
	for i := 0; i < len(s.blocks); i++ {
		for j := i + 1; j < len(s.blocks); j++ {
			inner += IntersectionArea(s.blocks[i], s.blocks[j])
		}
	}
	if inner == 0 {
		return 1
	}
	return 1 - float64(inner)/float64(filled+inner)
}

// Coverage returns the summed block area divided by the surface area.
func (s *Surface) Coverage() float64 {
	return float64(s.filledArea()) / float64(s.width*s.height)
}

func (s *Surface) filledArea() int {
	total := 0
	for _, b := range s.blocks {
		total += b.Area()
	}
	return total
}

// fits reports whether a width x height footprint at (x, y) is clear of every
// placed block.
func (s *Surface) fits(x, y, width, height int) bool {
	for _, other := range s.blocks {
		if overlaps(x, y, width, height, other) {
			return false
		}
	}
	return true
}

// place commits b at (x, y) and grows the bounds to contain it.
func (s *Surface) place(b *Block, x, y int) {
	b.moveTo(x, y)
	s.blocks = append(s.blocks, b)
	s.width = max(s.width, x+b.Width)
	s.height = max(s.height, y+b.Height)
}
