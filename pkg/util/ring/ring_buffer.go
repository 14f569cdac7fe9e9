// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package ring

// Buffer is a deque maintained over a ring buffer.
//
// Note: it is backed by a slice (unlike container/ring which is backed by a
// linked list).
type Buffer[T any] struct {
	buffer []T
	head   int // the index of the front of the buffer
	tail   int // the index of the first position after the end of the buffer

	// Indicates whether the buffer is empty. Necessary to distinguish
	// between an empty buffer and a buffer that uses all of its capacity.
	nonEmpty bool
}

// MakeBuffer returns a Buffer with the given capacity reserved up front.
func MakeBuffer[T any](capacity int) Buffer[T] {
	return Buffer[T]{buffer: make([]T, capacity)}
}

// Len returns the number of elements in the Buffer.
func (r *Buffer[T]) Len() int {
	if !r.nonEmpty {
		return 0
	}
	if r.head < r.tail {
		return r.tail - r.head
	} else if r.head == r.tail {
		return cap(r.buffer)
	} else {
		return cap(r.buffer) + r.tail - r.head
	}
}

// Cap returns the capacity of the Buffer.
func (r *Buffer[T]) Cap() int {
	return cap(r.buffer)
}

// Get returns the element at position pos in the Buffer (zero-based).
func (r *Buffer[T]) Get(pos int) T {
	if !r.nonEmpty || pos < 0 || pos >= r.Len() {
		panic("index out of bounds")
	}
	return r.buffer[(pos+r.head)%cap(r.buffer)]
}

// GetFirst returns the element at the front of the Buffer.
func (r *Buffer[T]) GetFirst() T {
	if !r.nonEmpty {
		panic("getting first from empty ring buffer")
	}
	return r.buffer[r.head]
}

// GetLast returns the element at the end of the Buffer.
func (r *Buffer[T]) GetLast() T {
	if !r.nonEmpty {
		panic("getting last from empty ring buffer")
	}
	return r.buffer[(cap(r.buffer)+r.tail-1)%cap(r.buffer)]
}

func (r *Buffer[T]) grow(n int) {
	newBuffer := make([]T, n)
	if r.head < r.tail {
		copy(newBuffer[:r.Len()], r.buffer[r.head:r.tail])
	} else {
		copy(newBuffer[:cap(r.buffer)-r.head], r.buffer[r.head:])
		copy(newBuffer[cap(r.buffer)-r.head:r.Len()], r.buffer[:r.tail])
	}
	r.head = 0
	r.tail = cap(r.buffer)
	r.buffer = newBuffer
}

func (r *Buffer[T]) maybeGrow() {
	if r.Len() != cap(r.buffer) {
		return
	}
	n := 2 * cap(r.buffer)
	if n == 0 {
		n = 1
	}
	r.grow(n)
}

// AddFirst adds element to the front of the Buffer and doubles its underlying
// slice if necessary.
func (r *Buffer[T]) AddFirst(element T) {
	r.maybeGrow()
	r.head = (cap(r.buffer) + r.head - 1) % cap(r.buffer)
	r.buffer[r.head] = element
	r.nonEmpty = true
}

// AddLast adds element to the end of the Buffer and doubles its underlying
// slice if necessary.
func (r *Buffer[T]) AddLast(element T) {
	r.maybeGrow()
	r.buffer[r.tail] = element
	r.tail = (r.tail + 1) % cap(r.buffer)
	r.nonEmpty = true
}

// RemoveFirst removes a single element from the front of the Buffer.
func (r *Buffer[T]) RemoveFirst() {
	if r.Len() == 0 {
		panic("removing first from empty ring buffer")
	}
	var zero T
	r.buffer[r.head] = zero
	r.head = (r.head + 1) % cap(r.buffer)
	if r.head == r.tail {
		r.nonEmpty = false
	}
}

// RemoveLast removes a single element from the end of the Buffer.
func (r *Buffer[T]) RemoveLast() {
	if r.Len() == 0 {
		panic("removing last from empty ring buffer")
	}
	lastPos := (cap(r.buffer) + r.tail - 1) % cap(r.buffer)
	var zero T
	r.buffer[lastPos] = zero
	r.tail = lastPos
	if r.tail == r.head {
		r.nonEmpty = false
	}
}

// Reserve reserves the provided number of elements in the Buffer. It is an
// error to reserve a size less than the Buffer's current length.
func (r *Buffer[T]) Reserve(n int) {
	if n < r.Len() {
		panic("reserving fewer elements than current length")
	} else if n > cap(r.buffer) {
		r.grow(n)
	}
}

// Reset makes Buffer treat its underlying memory as if it were empty. This
// allows for reusing the same memory again without explicitly removing old
// elements.
func (r *Buffer[T]) Reset() {
	r.head = 0
	r.tail = 0
	r.nonEmpty = false
}
