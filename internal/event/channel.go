package event

import "uniotcore/internal/container"

// Channel is a bounded FIFO of byte buffers, keyed by topic at the Bus
// level (spec.md §3 "Data channel"). Send drops the oldest element when
// full — the container.BoundedQueue keep-newest policy.
type Channel struct {
	queue *container.BoundedQueue[[]byte]
}

func newChannel(capacity int) *Channel {
	return &Channel{queue: container.NewBoundedQueue[[]byte](capacity)}
}

// send copies data in (the channel owns its own bytes, never aliasing
// the caller's slice) and enqueues it, dropping the oldest entry if the
// channel is already at capacity.
func (c *Channel) send(data []byte) bool {
	cp := append([]byte(nil), data...)
	c.queue.Push(cp)
	return true
}

func (c *Channel) receive() ([]byte, bool) { return c.queue.Pop() }

func (c *Channel) isEmpty() bool { return c.queue.IsEmpty() }
