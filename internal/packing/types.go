package packing

// Packer describes the behaviour required from a placement engine.
type Packer interface {
	// Pack places as many blocks as possible onto surface, mutating both.
	// Blocks that do not fit stay unplaced; that is not an error.
	Pack(surface *Surface, blocks []*Block) error
}

// DisplayRect is a placed block expressed in a top-left origin frame.
type DisplayRect struct {
	Top           int `json:"top" yaml:"top"`
	Left          int `json:"left" yaml:"left"`
	Right         int `json:"right" yaml:"right"`
	Bottom        int `json:"bottom" yaml:"bottom"`
	OriginalIndex int `json:"initialOrder" yaml:"initialOrder"`
}

// Result is a snapshot of one layout run.
// Blocks holds every block in definition order, placed or not; Unplaced lists
// the indices of those that did not fit.
type Result struct {
	Width       int
	Height      int
	Fullness    float64
	Coverage    float64
	Blocks      []Block
	Coordinates []DisplayRect
	Unplaced    []int
}
