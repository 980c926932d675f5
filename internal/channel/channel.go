// Package channel provides the bounded buffer between signal producers
// and their consumer.
package channel

import (
	"iter"
	"sync"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// DefaultCapacity is the buffer size used when none is given.
const DefaultCapacity = 1000

// Channel is a bounded FIFO buffer of signals. When full, publishing
// drops the oldest signal so producers never block; under overload the
// buffer keeps the most recent signals. Safe for concurrent use.
type Channel interface {
	// Publish appends a signal, evicting the oldest one if the buffer
	// is at capacity.
	Publish(signal types.Signal)
	// Consume returns an iterator draining buffered signals in FIFO
	// order. It stops as soon as the buffer is empty rather than
	// waiting for more; call Consume again to pick up signals published
	// later.
	Consume() iter.Seq[types.Signal]
	// Len returns the number of buffered signals.
	Len() int
	// Capacity returns the maximum number of buffered signals.
	Capacity() int
}

// ChannelV1 is the default Channel implementation.
type ChannelV1 struct {
	mu       sync.Mutex
	buf      []types.Signal
	capacity int
}

// NewChannel creates a channel with the given capacity.
func NewChannel(capacity int) (Channel, error) {
	if capacity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidCapacity, "capacity must be positive, got %d", capacity)
	}

	return &ChannelV1{
		buf:      make([]types.Signal, 0, capacity),
		capacity: capacity,
	}, nil
}

// NewDefaultChannel creates a channel with DefaultCapacity.
func NewDefaultChannel() Channel {
	c, _ := NewChannel(DefaultCapacity)

	return c
}

// Publish implements Channel.
func (c *ChannelV1) Publish(signal types.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buf) == c.capacity {
		// Drop the oldest rather than the newest.
		copy(c.buf, c.buf[1:])
		c.buf = c.buf[:len(c.buf)-1]
	}

	c.buf = append(c.buf, signal)
}

// Consume implements Channel. Each step of the iteration pops exactly
// one signal under the lock, so signals published mid-iteration are
// still picked up, and breaking out of the loop leaves the remainder
// buffered.
func (c *ChannelV1) Consume() iter.Seq[types.Signal] {
	return func(yield func(types.Signal) bool) {
		for {
			signal, ok := c.pop()
			if !ok {
				return
			}

			if !yield(signal) {
				return
			}
		}
	}
}

func (c *ChannelV1) pop() (types.Signal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buf) == 0 {
		return types.Signal{}, false
	}

	signal := c.buf[0]
	copy(c.buf, c.buf[1:])
	c.buf = c.buf[:len(c.buf)-1]

	return signal, true
}

// Len implements Channel.
func (c *ChannelV1) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.buf)
}

// Capacity implements Channel.
func (c *ChannelV1) Capacity() int {
	return c.capacity
}
