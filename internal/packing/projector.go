package packing

// Project converts the placed blocks of surface into display coordinates with
// the vertical axis flipped, in placement order. It reads the current state
// on every call, so results must not be reused after a re-pack.
func Project(surface *Surface) []DisplayRect {
	if surface == nil {
		return nil
	}
	rects := make([]DisplayRect, 0, len(surface.blocks))
	for _, b := range surface.blocks {
		rects = append(rects, DisplayRect{
			Top:           surface.height - (b.Y + b.Height),
			Left:          b.X,
			Right:         b.X + b.Width,
			Bottom:        surface.height - b.Y,
			OriginalIndex: b.Index,
		})
	}
	return rects
}
