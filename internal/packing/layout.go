package packing

import "fmt"

// Layout runs one full pack cycle on a fresh surface with fresh blocks built
// from sizes; block i gets index i. Callers reacting to a resize call Layout
// again with the new bounds instead of re-packing an earlier surface.
func Layout(packer Packer, width, height int, sizes []Size) (Result, error) {
	surface, err := NewSurface(width, height)
	if err != nil {
		return Result{}, fmt.Errorf("surface: %w", err)
	}

	blocks := make([]*Block, 0, len(sizes))
	for i, size := range sizes {
		b, err := NewBlock(i, size.Width, size.Height)
		if err != nil {
			return Result{}, fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}

	if err := packer.Pack(surface, blocks); err != nil {
		return Result{}, err
	}

	result := Result{
		Width:       surface.Width(),
		Height:      surface.Height(),
		Fullness:    surface.Fullness(),
		Coverage:    surface.Coverage(),
		Blocks:      make([]Block, 0, len(blocks)),
		Coordinates: Project(surface),
		Unplaced:    []int{},
	}
	for _, b := range blocks {
		result.Blocks = append(result.Blocks, *b)
		if !b.Placed() {
			result.Unplaced = append(result.Unplaced, b.Index)
		}
	}
	return result, nil
}
