package dataset

import (
	"log"

	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
)

// ErrUnavailable is returned when a requested entry is not in the buffer.
var ErrUnavailable = errors.New("data not available in buffer")

// Buffer is an LRU cache of loaded partitions keyed by location. History
// recombination reloads the same partitions on every step; the buffer keeps
// the most recently used ones in memory.
type Buffer struct {
	maxSize int
	entries map[string]Dataset
	order   []string
}

// NewBuffer returns a buffer holding at most maxSize datasets.
func NewBuffer(maxSize int) *Buffer {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Buffer{
		maxSize: maxSize,
		entries: make(map[string]Dataset),
	}
}

func (b *Buffer) touch(key string) {
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.order = append(b.order, key)
}

// Add stores a dataset, evicting the least recently used entries over the limit.
func (b *Buffer) Add(key string, data Dataset) {
	if _, ok := b.entries[key]; !ok && len(b.entries) >= b.maxSize {
		oldest := b.order[0]
		b.order = b.order[1:]
		delete(b.entries, oldest)
		log.Printf("evicted %s from data buffer", oldest)
	}
	b.entries[key] = data
	b.touch(key)
}

// Get returns the dataset for key, or ErrUnavailable.
func (b *Buffer) Get(key string) (Dataset, error) {
	data, ok := b.entries[key]
	if !ok {
		return Dataset{}, ErrUnavailable
	}
	b.touch(key)
	return data, nil
}

// Has reports whether key is buffered.
func (b *Buffer) Has(key string) bool {
	_, ok := b.entries[key]
	return ok
}

// Len returns the number of buffered datasets.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Clear drops everything from the buffer.
func (b *Buffer) Clear() {
	b.entries = make(map[string]Dataset)
	b.order = nil
}
