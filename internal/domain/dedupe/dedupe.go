// Package dedupe guards against attempting the same row more than once
// within a batch.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records attempted row indexes to ensure at-most-once ingestion.
type Deduper interface {
	// SeenAndRecord atomically checks if the row was attempted and records it
	// if not. Returns true if it was already attempted.
	SeenAndRecord(ctx context.Context, rowIndex int) bool

	// Size returns the number of recorded rows.
	Size() int64
}

// inMemoryDeduper implements Deduper with a bitset sized to the batch and a
// map fallback for indexes outside it.
type inMemoryDeduper struct {
	mu       sync.Mutex
	bits     []uint64
	overflow map[int]struct{}
	size     atomic.Int64
	capacity int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.bits = make([]uint64, (d.capacity+63)/64)
	d.overflow = make(map[int]struct{})
	return d
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, rowIndex int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rowIndex >= 0 && rowIndex < d.capacity {
		word, bit := rowIndex/64, uint(rowIndex%64)
		if d.bits[word]&(1<<bit) != 0 {
			return true
		}
		d.bits[word] |= 1 << bit
	} else {
		if _, ok := d.overflow[rowIndex]; ok {
			return true
		}
		d.overflow[rowIndex] = struct{}{}
	}
	d.size.Add(1)
	return false
}

// Size implements Deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
