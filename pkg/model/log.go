package model

// Log is a bounded, append-only sequence. When the capacity is reached
// the oldest entry is evicted first, which bounds memory under
// continuous tracking traffic. A capacity of zero means unbounded.
type Log[T any] struct {
	entries []T
	max     int
}

// NewLog creates an empty bounded log with the given capacity.
func NewLog[T any](max int) Log[T] {
	return Log[T]{
		entries: make([]T, 0),
		max:     max,
	}
}

// Append adds an entry, evicting the oldest one if the log is full.
func (l *Log[T]) Append(v T) {
	if l.max > 0 && len(l.entries) >= l.max {
		n := copy(l.entries, l.entries[len(l.entries)-l.max+1:])
		l.entries = l.entries[:n]
	}
	l.entries = append(l.entries, v)
}

// All returns a copy of the full sequence, oldest first.
func (l *Log[T]) All() []T {
	out := make([]T, len(l.entries))
	copy(out, l.entries)
	return out
}

// Latest returns the most recent entry, if any.
func (l *Log[T]) Latest() (T, bool) {
	var zero T
	if len(l.entries) == 0 {
		return zero, false
	}
	return l.entries[len(l.entries)-1], true
}

// Len returns the number of stored entries.
func (l *Log[T]) Len() int {
	return len(l.entries)
}

// Cap returns the retention capacity.
func (l *Log[T]) Cap() int {
	return l.max
}

// Clone returns an independent copy of the log.
func (l *Log[T]) Clone() Log[T] {
	out := Log[T]{
		entries: make([]T, len(l.entries)),
		max:     l.max,
	}
	copy(out.entries, l.entries)
	return out
}
