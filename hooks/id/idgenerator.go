// Package id generates the identifiers that tag hook-chain invocations.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// NewSequentialIDGenerator returns a generator that produces increasing
// numeric IDs, one engine at a time.
func NewSequentialIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	id := strconv.FormatUint(idNumber, 10)

	return id
}

// NewXIDGenerator returns a generator that produces globally unique IDs,
// suitable when traces from multiple processes end up in the same store.
func NewXIDGenerator() IDGenerator {
	return xidGenerator{}
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}
