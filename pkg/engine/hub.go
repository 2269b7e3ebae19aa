package engine

import (
	"context"
	"sync/atomic"

	"rtapmon/pkg/protocol"
)

// Hub fans decoded captures out to subscribers. A subscriber whose buffer is
// full misses the capture; the publisher never waits on it.
//
// Once Run returns the hub is stopped: Publish reports false, Subscribe hands
// out closed channels and Unsubscribe is a no-op.
type Hub struct {
	in      chan protocol.Capture
	joins   chan chan protocol.Capture
	leaves  chan chan protocol.Capture
	stopped chan struct{}

	subBuf  int
	dropped atomic.Uint64
}

type Option func(*Hub)

// WithBroadcastBuffer sizes the queue between Publish and the fan-out loop.
func WithBroadcastBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.in = make(chan protocol.Capture, size)
		}
	}
}

// WithClientBuffer sets the default subscriber channel capacity.
func WithClientBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.subBuf = size
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		in:      make(chan protocol.Capture, 256),
		joins:   make(chan chan protocol.Capture),
		leaves:  make(chan chan protocol.Capture),
		stopped: make(chan struct{}),
		subBuf:  100,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run owns the subscriber set until ctx is done. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	subs := make(map[chan protocol.Capture]struct{})
	defer func() {
		close(h.stopped)
		for ch := range subs {
			close(ch)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ch := <-h.joins:
			subs[ch] = struct{}{}
		case ch := <-h.leaves:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
		case c := <-h.in:
			h.fanOut(subs, c)
		}
	}
}

func (h *Hub) fanOut(subs map[chan protocol.Capture]struct{}, c protocol.Capture) {
	for ch := range subs {
		select {
		case ch <- c:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) Subscribe() chan protocol.Capture {
	return h.SubscribeWithBuffer(h.subBuf)
}

// SubscribeWithBuffer registers a subscriber with its own capacity. A size
// of zero or less uses the hub default.
func (h *Hub) SubscribeWithBuffer(size int) chan protocol.Capture {
	if size <= 0 {
		size = h.subBuf
	}
	ch := make(chan protocol.Capture, size)
	select {
	case h.joins <- ch:
	case <-h.stopped:
		close(ch)
	}
	return ch
}

func (h *Hub) Unsubscribe(ch chan protocol.Capture) {
	select {
	case h.leaves <- ch:
	case <-h.stopped:
	}
}

// Publish queues c for broadcast. It waits while the queue is full and gives
// up, returning false, when ctx is done or the hub has stopped.
func (h *Hub) Publish(ctx context.Context, c protocol.Capture) bool {
	select {
	case <-h.stopped:
		return false
	default:
	}
	select {
	case h.in <- c:
		return true
	case <-h.stopped:
		return false
	case <-ctx.Done():
		return false
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.stopped
}

// Dropped counts deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
