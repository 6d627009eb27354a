package client

import "sync"

// mailbox is an unbounded queue of steps for a host's dispatch
// goroutine. Posting never blocks, so callbacks running on the dispatch
// goroutine may post the steps that run after them.
type mailbox struct {
	mu     sync.Mutex
	steps  []func()
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (b *mailbox) post(f func()) {
	b.mu.Lock()
	b.steps = append(b.steps, f)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// take removes and returns the posted steps.
func (b *mailbox) take() []func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	steps := b.steps
	b.steps = nil
	return steps
}
