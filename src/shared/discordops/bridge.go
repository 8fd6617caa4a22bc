// Package discordops serializes all Discord mutations onto a single owner
// goroutine. HTTP handlers run on arbitrary goroutines; exactly one loop owns
// session mutation, and every send/fetch/delete crosses through Run.
package discordops

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrNotReady is returned by Run when the bridge loop has not been started,
// i.e. the Discord client is not ready yet.
var ErrNotReady = errors.New("discordops: bridge not running")

// Op is a unit of Discord work executed on the bridge loop.
type Op func(ctx context.Context) (interface{}, error)

type request struct {
	op    Op
	reply chan result
}

type result struct {
	value interface{}
	err   error
}

// Bridge is the single-consumer op queue. Requesting goroutines send an op
// with a reply channel and block on the reply.
type Bridge struct {
	mu      sync.Mutex
	ops     chan request
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New() *Bridge {
	return &Bridge{}
}

// Start launches the loop goroutine. Calling Start on a running bridge is a
// no-op.
func (b *Bridge) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	b.ops = make(chan request)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.running = true

	go b.loop(ctx, b.ops, b.done)
	log.Println("discordops: bridge loop started")
}

func (b *Bridge) loop(ctx context.Context, ops <-chan request, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-ops:
			value, err := req.op(ctx)
			req.reply <- result{value: value, err: err}
		}
	}
}

// Run submits op to the loop and blocks the calling goroutine until it
// completes, returning its result or error. When the loop is not running it
// fails immediately with ErrNotReady instead of blocking indefinitely.
func (b *Bridge) Run(op Op) (interface{}, error) {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil, ErrNotReady
	}
	ops := b.ops
	done := b.done
	b.mu.Unlock()

	req := request{op: op, reply: make(chan result, 1)}
	select {
	case ops <- req:
	case <-done:
		return nil, ErrNotReady
	}

	select {
	case res := <-req.reply:
		return res.value, res.err
	case <-done:
		return nil, ErrNotReady
	}
}

// Stop shuts the loop down and waits for it to exit.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	cancel := b.cancel
	done := b.done
	b.mu.Unlock()

	cancel()
	<-done
	log.Println("discordops: bridge loop stopped")
}
