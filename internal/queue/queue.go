// Package queue implements the bounded buffer of pending camera movements.
package queue

import "github.com/ivlev/animcam/internal/camera"

// MinCapacity is the smallest usable capacity: a transition needs a start and
// a goal.
const MinCapacity = 2

// Movements is a fixed-capacity ring of camera movements, oldest first.
// Pushing onto a full ring overwrites the oldest element.
type Movements struct {
	data []camera.Movement
	head int // index of the oldest element
	size int
}

// New creates a ring with the given capacity, raised to MinCapacity if needed.
func New(capacity int) *Movements {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return &Movements{data: make([]camera.Movement, capacity)}
}

// Push appends m. It reports true when the oldest movement had to be dropped
// to make room.
func (q *Movements) Push(m camera.Movement) (evicted bool) {
	tail := (q.head + q.size) % len(q.data)
	q.data[tail] = m
	if q.size == len(q.data) {
		q.head = (q.head + 1) % len(q.data)
		return true
	}
	q.size++
	return false
}

// Len returns the number of queued movements.
func (q *Movements) Len() int {
	return q.size
}

// Cap returns the ring capacity.
func (q *Movements) Cap() int {
	return len(q.data)
}

// Ready reports whether a start and a goal are available.
func (q *Movements) Ready() bool {
	return q.size >= 2
}

// Front returns the current start pose. It panics on an empty queue.
func (q *Movements) Front() camera.Movement {
	return q.at(0)
}

// Second returns the active goal. It panics if fewer than two are queued.
func (q *Movements) Second() camera.Movement {
	return q.at(1)
}

// PopFront drops the oldest movement. It is a no-op on an empty queue.
func (q *Movements) PopFront() {
	if q.size == 0 {
		return
	}
	q.data[q.head] = camera.Movement{}
	q.head = (q.head + 1) % len(q.data)
	q.size--
}

// Clear removes every movement.
func (q *Movements) Clear() {
	for i := range q.data {
		q.data[i] = camera.Movement{}
	}
	q.head, q.size = 0, 0
}

// Slice returns the queued movements in order.
func (q *Movements) Slice() []camera.Movement {
	out := make([]camera.Movement, q.size)
	for i := range out {
		out[i] = q.data[(q.head+i)%len(q.data)]
	}
	return out
}

func (q *Movements) at(i int) camera.Movement {
	if i >= q.size {
		panic("queue: index out of range")
	}
	return q.data[(q.head+i)%len(q.data)]
}
