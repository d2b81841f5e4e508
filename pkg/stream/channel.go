package stream

import (
	"sync"

	"github.com/yaklabco/gomdview/pkg/render"
)

// Snapshot is one published render result: a complete HTML document plus the
// warnings accumulated while producing it. Snapshots are immutable once
// published and carry a strictly increasing sequence number.
type Snapshot struct {
	Seq      uint64
	HTML     string
	Title    string
	Warnings []render.Warning
}

// Channel delivers the most recent Snapshot to the display consumer. It is
// a latest-value-wins cell, not a queue: a slow consumer only ever observes
// the newest snapshot, and Publish never blocks on the consumer.
type Channel struct {
	mu      sync.Mutex
	latest  Snapshot
	has     bool
	seq     uint64
	closed  bool
	changed chan struct{}
}

// NewChannel creates an empty channel.
func NewChannel() *Channel {
	return &Channel{changed: make(chan struct{}, 1)}
}

// Publish stores snap as the latest snapshot, assigning it the next sequence
// number, and returns the stored value. After Close, Publish is a no-op and
// returns false; an in-flight render finishing after cancellation must not
// reach a torn-down display.
func (c *Channel) Publish(snap Snapshot) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Snapshot{}, false
	}
	c.seq++
	snap.Seq = c.seq
	c.latest = snap
	c.has = true

	// Coalescing notification: if a signal is already pending the consumer
	// will pick up the newest snapshot anyway. The send stays under the
	// mutex so it cannot race Close closing the channel.
	select {
	case c.changed <- struct{}{}:
	default:
	}
	return snap, true
}

// Latest returns the most recently published snapshot, if any.
func (c *Channel) Latest() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.has
}

// Changed returns a channel that receives a signal when a new snapshot is
// published. Signals coalesce; after one, read Latest. The channel is closed
// by Close.
func (c *Channel) Changed() <-chan struct{} {
	return c.changed
}

// Close marks the channel closed and wakes any waiting consumer. Publish
// calls after Close are dropped. Close is idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.changed)
}
