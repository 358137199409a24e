package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues time-ordered UUIDv7 strings so ids sort by creation.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return value.String(), nil
}

// Sequence returns fixed ids in order. Tests use it for stable run ids.
type Sequence struct {
	IDs  []string
	next int
}

func (s *Sequence) NewID() (string, error) {
	if s.next >= len(s.IDs) {
		return "", fmt.Errorf("id sequence exhausted after %d ids", len(s.IDs))
	}
	value := s.IDs[s.next]
	s.next++
	return value, nil
}
