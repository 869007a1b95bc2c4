package lifecycle

import (
	"sync"
	"sync/atomic"
)

// StateChannel holds the current StateInfo of a component and broadcasts every change.
//
// Publication and delivery are serialized: Publish returns only after every
// subscribed observer has been called with the new value, and observers see
// values in publication order. New subscribers receive the current value
// before any later publication.
//
// Observers must not publish to the channel they observe from inside the
// callback. Unsubscribing from inside a callback is fine.
type StateChannel struct {
	pub sync.Mutex // held for compute + store + deliver

	mu        sync.RWMutex
	current   StateInfo
	observers []*observer
}

// NewStateChannel creates a channel holding initial.
func NewStateChannel(initial StateInfo) *StateChannel {
	return &StateChannel{current: initial}
}

// Current returns the latest value.
func (c *StateChannel) Current() StateInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Subscribe registers fn and calls it with the current value before returning.
func (c *StateChannel) Subscribe(fn func(StateInfo)) Subscription {
	if fn == nil {
		return noopSubscription{}
	}

	c.pub.Lock()
	defer c.pub.Unlock()

	o := &observer{fn: fn, ch: c}
	c.mu.Lock()
	c.observers = append(c.observers, o)
	cur := c.current
	c.mu.Unlock()

	fn(cur)
	return o
}

// Publish stores info and delivers it to every observer.
func (c *StateChannel) Publish(info StateInfo) {
	c.PublishFunc(func() StateInfo { return info })
}

// PublishFunc computes the next value while holding the publication lock, so
// that the value delivered last is always the one computed last.
func (c *StateChannel) PublishFunc(compute func() StateInfo) StateInfo {
	c.pub.Lock()
	defer c.pub.Unlock()

	info := compute()

	c.mu.Lock()
	c.current = info
	obs := make([]*observer, len(c.observers))
	copy(obs, c.observers)
	c.mu.Unlock()

	for _, o := range obs {
		if o.closed.Load() {
			continue
		}
		o.fn(info)
	}
	return info
}

// Observers returns the number of live subscriptions.
func (c *StateChannel) Observers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.observers)
}

func (c *StateChannel) remove(o *observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cur := range c.observers {
		if cur == o {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}

type observer struct {
	fn     func(StateInfo)
	ch     *StateChannel
	closed atomic.Bool
}

func (o *observer) Unsubscribe() {
	if o.closed.Swap(true) {
		return
	}
	o.ch.remove(o)
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}
