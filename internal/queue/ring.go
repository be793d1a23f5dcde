// Package queue provides the FIFO that sits on either side of a stream
// driver: beats waiting to be offered upstream and beats delivered
// downstream.
package queue

import "sync"

// growthFactor is the capacity multiplier applied when a write overflows.
const growthFactor = 2

// Ring is a growable circular FIFO. It is safe for concurrent use, so a
// producer goroutine may fill it while a driver drains it.
type Ring[T any] struct {
	data     []T
	size     int
	readPos  int
	writePos int
	mu       sync.Mutex
}

// NewRing creates a ring with the given initial capacity (at least 1).
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{data: make([]T, capacity)}
}

// Write appends items, growing the ring when it is full.
func (r *Ring[T]) Write(items ...T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(items) == 0 {
		return
	}
	if r.size+len(items) > len(r.data) {
		r.grow(r.size + len(items))
	}

	for _, v := range items {
		r.data[r.writePos] = v
		r.writePos = (r.writePos + 1) % len(r.data)
		r.size++
	}
}

// Read removes and returns up to n items in FIFO order.
func (r *Ring[T]) Read(n int) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(n)
}

func (r *Ring[T]) read(n int) []T {
	n = min(n, r.size)
	if n <= 0 {
		return []T{}
	}

	out := make([]T, n)
	var zero T
	for i := range out {
		out[i] = r.data[r.readPos]
		r.data[r.readPos] = zero
		r.readPos = (r.readPos + 1) % len(r.data)
		r.size--
	}
	return out
}

// Peek returns the oldest item without removing it.
func (r *Ring[T]) Peek() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.data[r.readPos], true
}

// Pop removes and returns the oldest item.
func (r *Ring[T]) Pop() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.read(1)[0], true
}

// ReadAll removes and returns every buffered item.
func (r *Ring[T]) ReadAll() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(r.size)
}

// Available returns the number of buffered items.
func (r *Ring[T]) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Capacity returns the current capacity.
func (r *Ring[T]) Capacity() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// Clear drops every buffered item.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.data)
	r.size, r.readPos, r.writePos = 0, 0, 0
}

// grow reallocates to at least minCapacity, unwrapping the contents so the
// oldest item lands at index 0.
func (r *Ring[T]) grow(minCapacity int) {
	capacity := len(r.data)
	for capacity < minCapacity {
		capacity *= growthFactor
	}

	data := make([]T, capacity)
	if r.size > 0 {
		if r.readPos < r.writePos {
			copy(data, r.data[r.readPos:r.writePos])
		} else {
			n := copy(data, r.data[r.readPos:])
			copy(data[n:], r.data[:r.writePos])
		}
	}

	r.data = data
	r.readPos = 0
	r.writePos = r.size
}
