package session

import (
	"context"
	"sync"
)

// Loop runs posted functions one at a time, in posting order, on the
// goroutine that calls Run. The queue is unbounded so Post never blocks.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post is safe to call from any goroutine, including the loop itself.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) pop() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

// Run drains the queue until ctx ends. endTurn runs every time the queue
// has been emptied; an error from it stops the loop.
func (l *Loop) Run(ctx context.Context, endTurn func() error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
		for fn := l.pop(); fn != nil; fn = l.pop() {
			fn()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if endTurn != nil {
			if err := endTurn(); err != nil {
				return err
			}
		}
	}
}
