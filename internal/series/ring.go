// Package series keeps fixed-length metric histories for visualization.
package series

// DefaultSize is the number of points retained per metric. At the default
// 1s interval this is two minutes of history.
const DefaultSize = 120

// Ring is a fixed-capacity circular buffer. All slots are allocated up front
// and zero-filled, so a snapshot is always exactly Cap() values long.
// Ring is not safe for concurrent use; Board adds locking.
type Ring[T any] struct {
	data  []T
	head  int // next write position, also the oldest value once full
	count int
}

// New creates a ring with n zeroed slots. n <= 0 uses DefaultSize.
func New[T any](n int) *Ring[T] {
	if n <= 0 {
		n = DefaultSize
	}
	return &Ring[T]{data: make([]T, n)}
}

// Push stores v, overwriting the oldest value once the ring is full.
func (r *Ring[T]) Push(v T) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

// Snapshot returns all Cap() slots oldest-first. Before the first fill the
// leading entries are zero padding.
func (r *Ring[T]) Snapshot() []T {
	out := make([]T, len(r.data))
	n := copy(out, r.data[r.head:])
	copy(out[n:], r.data[:r.head])
	return out
}

// Last returns the most recently pushed value.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.data[(r.head-1+len(r.data))%len(r.data)], true
}

// Len is the number of values pushed so far, capped at Cap().
func (r *Ring[T]) Len() int { return r.count }

// Cap is the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.data) }
