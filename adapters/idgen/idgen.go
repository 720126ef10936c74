// Package idgen provides primary key generators for backends that assign
// identities themselves (the in-memory backend).
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/artpar/basemodel/ports"
)

// UUID generates random (v4) UUID keys.
type UUID struct{}

// New returns a new UUID string.
func (UUID) New() string {
	return uuid.NewString()
}

// Sequential hands out prefix1, prefix2, ... Deterministic, for tests and fixtures.
type Sequential struct {
	prefix string
	next   atomic.Uint64
}

// NewSequential creates a sequential generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New returns the next key.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.next.Add(1), 10)
}

// Reset restarts the sequence.
func (s *Sequential) Reset() {
	s.next.Store(0)
}

var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
