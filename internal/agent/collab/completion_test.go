package collab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queue struct{ fns []func() }

func (q *queue) post(fn func()) { q.fns = append(q.fns, fn) }

func (q *queue) drain() {
	for len(q.fns) > 0 {
		fn := q.fns[0]
		q.fns = q.fns[1:]
		fn()
	}
}

func TestCompletion_ContinuationRunsThroughPoster(t *testing.T) {
	q := &queue{}
	c := NewCompletion(q.post)

	var got []error
	c.Then(func(err error) { got = append(got, err) })
	require.False(t, c.Done())

	boom := errors.New("boom")
	c.Resolve(boom)
	assert.True(t, c.Done())
	assert.Empty(t, got, "continuation must wait for the event loop")

	q.drain()
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], boom)
}

func TestCompletion_ResolveOnlyOnce(t *testing.T) {
	c := NewCompletion(Immediate)
	calls := 0
	c.Then(func(error) { calls++ })

	c.Resolve(nil)
	c.Resolve(errors.New("late"))

	assert.Equal(t, 1, calls)
	assert.NoError(t, c.Err())
}

func TestCompletion_ThenAfterResolve(t *testing.T) {
	c := Resolved(Immediate, nil)
	ran := false
	c.Then(func(err error) {
		ran = true
		assert.NoError(t, err)
	})
	assert.True(t, ran)
}

func TestVec3_DistanceTo(t *testing.T) {
	a := Vec3{X: 0, Y: 0, Z: 0}
	b := Vec3{X: 3, Y: 4, Z: 0}
	assert.InDelta(t, 5.0, a.DistanceTo(b), 1e-9)
}
