package queue

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/animcam/internal/camera"
)

func movement(i int) camera.Movement {
	return camera.Movement{
		Pose:     camera.Pose{Eye: mgl64.Vec3{float64(i), 0, 0}, Up: mgl64.Vec3{0, 0, 1}},
		Duration: time.Duration(i) * time.Second,
		Speed:    camera.Full,
	}
}

func TestMinimumCapacity(t *testing.T) {
	assert.Equal(t, MinCapacity, New(0).Cap())
	assert.Equal(t, MinCapacity, New(1).Cap())
	assert.Equal(t, 7, New(7).Cap())
}

func TestPushPopOrder(t *testing.T) {
	q := New(4)
	assert.False(t, q.Ready())

	q.Push(movement(1))
	assert.False(t, q.Ready())
	q.Push(movement(2))
	require.True(t, q.Ready())

	assert.Equal(t, movement(1), q.Front())
	assert.Equal(t, movement(2), q.Second())

	q.PopFront()
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, movement(2), q.Front())

	q.PopFront()
	q.PopFront()
	assert.Equal(t, 0, q.Len())
}

func TestOverflowEvictsOldest(t *testing.T) {
	const capacity = 5
	q := New(capacity)

	for i := 1; i <= capacity; i++ {
		assert.False(t, q.Push(movement(i)))
	}
	assert.True(t, q.Push(movement(capacity+1)))

	require.Equal(t, capacity, q.Len())
	got := q.Slice()
	for _, m := range got {
		assert.NotEqual(t, movement(1), m, "first pushed movement should be evicted")
	}
	assert.Equal(t, movement(2), q.Front())
	assert.Equal(t, movement(capacity+1), got[len(got)-1])
}

func TestWrapAroundAfterPop(t *testing.T) {
	q := New(3)
	q.Push(movement(1))
	q.Push(movement(2))
	q.Push(movement(3))
	q.PopFront()
	q.Push(movement(4))

	assert.Equal(t, []camera.Movement{movement(2), movement(3), movement(4)}, q.Slice())
}

func TestClear(t *testing.T) {
	q := New(3)
	q.Push(movement(1))
	q.Push(movement(2))
	q.Clear()

	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Slice())
	assert.Panics(t, func() { q.Front() })
}
