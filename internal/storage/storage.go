package storage

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/eugenenazirov/surface-packer/internal/packing"
)

const maxBlockDefinitions = 256

var (
	// ErrInvalidBlocks indicates the provided block definitions violate validation rules.
	ErrInvalidBlocks = errors.New("blocks must contain between 1 and 256 definitions with positive width and height")
)

var defaultBlocks = []packing.Size{
	{Width: 30, Height: 40},
	{Width: 20, Height: 50},
	{Width: 60, Height: 30},
	{Width: 30, Height: 40},
	{Width: 20, Height: 50},
	{Width: 60, Height: 30},
}

// Storage provides access to the block definitions every layout run starts from.
type Storage interface {
	GetBlocks() ([]packing.Size, error)
	SetBlocks(blocks []packing.Size) error
}

// MemoryStorage keeps block definitions in-memory and guards access with a RWMutex.
// Definition order is preserved because it assigns block identity.
type MemoryStorage struct {
	mu     sync.RWMutex
	blocks []packing.Size
}

// NewMemoryStorage initialises storage with a copy of the default blocks.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		blocks: slices.Clone(defaultBlocks),
	}
}

// DefaultBlocks returns a copy of the default block definitions.
func DefaultBlocks() []packing.Size {
	return slices.Clone(defaultBlocks)
}

// GetBlocks returns a copy of the currently configured block definitions.
func (s *MemoryStorage) GetBlocks() ([]packing.Size, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.blocks), nil
}

// SetBlocks validates and stores the provided block definitions.
func (s *MemoryStorage) SetBlocks(blocks []packing.Size) error {
	if err := ValidateBlocks(blocks); err != nil {
		return err
	}

	s.mu.Lock()
	s.blocks = slices.Clone(blocks)
	s.mu.Unlock()

	return nil
}

// ValidateBlocks checks the count and every definition's dimensions.
func ValidateBlocks(blocks []packing.Size) error {
	if len(blocks) == 0 || len(blocks) > maxBlockDefinitions {
		return ErrInvalidBlocks
	}
	for i, b := range blocks {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: block %d: %v", ErrInvalidBlocks, i, err)
		}
	}
	return nil
}
