package ring

import "sync"

// Buffer is a thread-safe circular buffer with drop-oldest overflow.
type Buffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // oldest entry
	dropped  uint64
}

// New creates a buffer holding at most capacity entries.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Append adds an item, evicting the oldest entry when full.
func (b *Buffer[T]) Append(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == b.capacity {
		b.tail = (b.tail + 1) % b.capacity
		b.size--
		b.dropped++
	}
	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	b.size++
}

// Len returns the number of entries currently held.
func (b *Buffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the configured capacity.
func (b *Buffer[T]) Cap() int {
	return b.capacity
}

// Dropped returns the number of entries evicted by overflow.
func (b *Buffer[T]) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Snapshot returns the entries in insertion order, oldest first.
func (b *Buffer[T]) Snapshot() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]T, 0, b.size)
	for i := 0; i < b.size; i++ {
		out = append(out, b.items[(b.tail+i)%b.capacity])
	}
	return out
}

// Recent returns up to n of the newest entries, oldest of those first.
func (b *Buffer[T]) Recent(n int) []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	if n > b.size {
		n = b.size
	}
	out := make([]T, 0, n)
	start := b.size - n
	for i := start; i < b.size; i++ {
		out = append(out, b.items[(b.tail+i)%b.capacity])
	}
	return out
}

// Clear empties the buffer. The drop counter is preserved.
func (b *Buffer[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.size = 0
	b.head = 0
	b.tail = 0
}
