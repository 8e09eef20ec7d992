package packing

import (
	"cmp"
	"slices"
)

type bestFitPacker struct{}

// New creates a Packer that places blocks largest-first at the first free
// position in descending-y, ascending-x order.
func New() Packer {
	return &bestFitPacker{}
}

func (p *bestFitPacker) Pack(surface *Surface, blocks []*Block) error {
	if surface == nil {
		return ErrNilSurface
	}
	for _, b := range blocks {
		if b == nil || b.Placed() {
			return ErrStaleBlock
		}
	}

	ordered := slices.Clone(blocks)
	slices.SortStableFunc(ordered, func(a, b *Block) int {
		return cmp.Compare(b.Area(), a.Area())
	})

	for _, b := range ordered {
		x, y, ok := findPosition(surface, b)
		if !ok {
			continue
		}
		surface.place(b, x, y)
	}
	return nil
}

// findPosition scans y from the highest fitting value down to 0 and x from 0 to
// the right-most fitting column; the first clear footprint wins.
func findPosition(surface *Surface, b *Block) (int, int, bool) {
	for y := surface.height - b.Height; y >= 0; y-- {
		for x := 0; x <= surface.width-b.Width; x++ {
			if surface.fits(x, y, b.Width, b.Height) {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// ScanCost bounds the overlap tests Pack performs for count blocks on a width x
// height surface: every candidate position of block k is checked against at
// most k placed blocks.
func ScanCost(width, height, count int) int64 {
	if width <= 0 || height <= 0 || count <= 0 {
		return 0
	}
	n := int64(count)
	return int64(width) * int64(height) * n * (n + 1) / 2
}
