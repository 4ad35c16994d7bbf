// Package events implements the retained-event worklist described in
// §4.6 as an infrastructure analog of the wider event-channel service:
// per-channel storage indexed by a monotonic chan_id, a handle-keyed open
// set per channel, three per-priority FIFO lists of retained events, and
// per-event retention timers.
package events

import (
	"sync"
	"time"

	"amfcore/pkg/logging"
)

// Priority is one of the three retained-event priorities.
type Priority int

const (
	PriorityLowest Priority = iota
	PriorityDefault
	PriorityHighest
)

func (p Priority) String() string {
	switch p {
	case PriorityHighest:
		return "HIGHEST"
	case PriorityDefault:
		return "DEFAULT"
	default:
		return "LOWEST"
	}
}

var priorityOrder = []Priority{PriorityHighest, PriorityDefault, PriorityLowest}

// ChanOpenID keys an open handle within a channel's patricia-tree-equivalent.
type ChanOpenID uint64

// RetainedEvent is one retained publication.
type RetainedEvent struct {
	ID        uint64
	Priority  Priority
	Pattern   string
	Data      []byte
	Retention time.Duration
	timer     *time.Timer
}

// Channel is a single event channel: its open-handle set and its three
// per-priority retained-event FIFOs.
type Channel struct {
	ChanID uint64
	Name   string

	mu           sync.Mutex
	openHandles  map[ChanOpenID]struct{}
	retained     map[Priority][]*RetainedEvent
	publishers   int
	subscribers  int
	unlinked     bool
	nextEventID  uint64
}

func newChannel(chanID uint64, name string) *Channel {
	return &Channel{
		ChanID:      chanID,
		Name:        name,
		openHandles: make(map[ChanOpenID]struct{}),
		retained:    make(map[Priority][]*RetainedEvent),
	}
}

// Open registers openID as an open handle on the channel and updates the
// appropriate use-counter based on role. Open/close are the only points at
// which publisher/subscriber counts change (§4.6 invariant).
func (c *Channel) Open(openID ChanOpenID, isPublisher, isSubscriber bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openHandles[openID] = struct{}{}
	if isPublisher {
		c.publishers++
	}
	if isSubscriber {
		c.subscribers++
	}
}

// Close removes openID from the open set and decrements the matching
// use-counters. It returns true if the channel has no opens left, which is
// the trigger for deleting an unlinked channel.
func (c *Channel) Close(openID ChanOpenID, wasPublisher, wasSubscriber bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.openHandles, openID)
	if wasPublisher && c.publishers > 0 {
		c.publishers--
	}
	if wasSubscriber && c.subscribers > 0 {
		c.subscribers--
	}
	return len(c.openHandles) == 0
}

// Retain appends a new retained event to the tail of its priority's FIFO
// (O(1) per §4.6) and arms its retention timer. onExpire is called with the
// event's id when the timer fires and the event is removed.
func (c *Channel) Retain(priority Priority, pattern string, data []byte, retention time.Duration, onExpire func(eventID uint64)) *RetainedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextEventID++
	ev := &RetainedEvent{
		ID:        c.nextEventID,
		Priority:  priority,
		Pattern:   pattern,
		Data:      data,
		Retention: retention,
	}
	c.retained[priority] = append(c.retained[priority], ev)

	if retention > 0 {
		ev.timer = time.AfterFunc(retention, func() {
			c.removeRetained(ev.ID)
			logging.Debug("Events", "channel %s retained event %d expired", c.Name, ev.ID)
			if onExpire != nil {
				onExpire(ev.ID)
			}
		})
	}
	return ev
}

func (c *Channel) removeRetained(eventID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p, list := range c.retained {
		kept := list[:0]
		for _, e := range list {
			if e.ID != eventID {
				kept = append(kept, e)
			}
		}
		c.retained[p] = kept
	}
}

// Clear explicitly removes a retained event before its retention timer
// fires, stopping the timer.
func (c *Channel) Clear(eventID uint64) {
	c.mu.Lock()
	var found *RetainedEvent
	for _, list := range c.retained {
		for _, e := range list {
			if e.ID == eventID {
				found = e
			}
		}
	}
	c.mu.Unlock()
	if found != nil && found.timer != nil {
		found.timer.Stop()
	}
	c.removeRetained(eventID)
}

// RetainedInOrder returns every retained event across all three priorities,
// highest first, each priority's own FIFO order preserved.
func (c *Channel) RetainedInOrder() []*RetainedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*RetainedEvent
	for _, p := range priorityOrder {
		out = append(out, c.retained[p]...)
	}
	return out
}

// Unlink marks the channel for deletion once its last open closes. Unlink
// preserves the use-count; it does not force-close current opens.
func (c *Channel) Unlink() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unlinked = true
}

// IsUnlinked reports whether Unlink has been called.
func (c *Channel) IsUnlinked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unlinked
}

// Worklist owns every Channel by chan_id.
type Worklist struct {
	mu      sync.Mutex
	nextID  uint64
	channels map[uint64]*Channel
}

// NewWorklist builds an empty Worklist.
func NewWorklist() *Worklist {
	return &Worklist{channels: make(map[uint64]*Channel)}
}

// Open creates (or returns the existing) channel named name and opens
// openID against it.
func (w *Worklist) Open(name string, openID ChanOpenID, isPublisher, isSubscriber bool) *Channel {
	w.mu.Lock()
	var ch *Channel
	for _, c := range w.channels {
		if c.Name == name {
			ch = c
			break
		}
	}
	if ch == nil {
		w.nextID++
		ch = newChannel(w.nextID, name)
		w.channels[ch.ChanID] = ch
	}
	w.mu.Unlock()

	ch.Open(openID, isPublisher, isSubscriber)
	return ch
}

// Close closes openID on the channel identified by chanID. If the channel
// was unlinked and this was its last open, the channel is deleted.
func (w *Worklist) Close(chanID uint64, openID ChanOpenID, wasPublisher, wasSubscriber bool) {
	w.mu.Lock()
	ch, ok := w.channels[chanID]
	w.mu.Unlock()
	if !ok {
		return
	}

	lastOpen := ch.Close(openID, wasPublisher, wasSubscriber)
	if lastOpen && ch.IsUnlinked() {
		w.mu.Lock()
		delete(w.channels, chanID)
		w.mu.Unlock()
		logging.Info("Events", "channel %s deleted on last close after unlink", ch.Name)
	}
}

// Channel returns the channel by chan_id, if present.
func (w *Worklist) Channel(chanID uint64) (*Channel, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch, ok := w.channels[chanID]
	return ch, ok
}
