package collab

import "sync"

// Poster schedules fn on the agent's event loop.
type Poster func(fn func())

// Immediate runs fn on the caller's goroutine. Tests use it in place of an
// event loop.
func Immediate(fn func()) { fn() }

// Completion is the outcome handle of an asynchronous collaborator operation.
// Continuations registered with Then never run on the resolving goroutine;
// they are handed to the Poster so they execute on the event loop.
type Completion struct {
	post Poster

	mu    sync.Mutex
	done  bool
	err   error
	conts []func(error)
}

func NewCompletion(post Poster) *Completion {
	if post == nil {
		post = Immediate
	}
	return &Completion{post: post}
}

// Resolved returns a completion that is already finished with err.
func Resolved(post Poster, err error) *Completion {
	c := NewCompletion(post)
	c.Resolve(err)
	return c
}

// Resolve finishes the operation. Only the first call has an effect.
func (c *Completion) Resolve(err error) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.done = true
	c.err = err
	conts := c.conts
	c.conts = nil
	c.mu.Unlock()

	for _, fn := range conts {
		fn := fn
		c.post(func() { fn(err) })
	}
}

// Then registers fn to run once the operation finishes.
func (c *Completion) Then(fn func(err error)) {
	c.mu.Lock()
	if !c.done {
		c.conts = append(c.conts, fn)
		c.mu.Unlock()
		return
	}
	err := c.err
	c.mu.Unlock()
	c.post(func() { fn(err) })
}

func (c *Completion) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Completion) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
