package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoop_RunsInOrderAndEndsTurns(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu    sync.Mutex
		got   []int
		turns int
	)
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx, func() error {
			mu.Lock()
			turns++
			mu.Unlock()
			return nil
		})
	}()

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			// Posting from the loop itself must not block.
			l.Post(func() { wg.Done() })
		})
	}
	wg.Wait()

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{0, 1, 2}, got)
	require.GreaterOrEqual(t, turns, 1)
}

func TestLoop_EndTurnErrorStopsRun(t *testing.T) {
	l := NewLoop()
	boom := errors.New("write failed")
	l.Post(func() {})

	errc := make(chan error, 1)
	go func() { errc <- l.Run(context.Background(), func() error { return boom }) }()
	select {
	case err := <-errc:
		require.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}
