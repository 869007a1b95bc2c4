package lifecycle

import (
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/bft-labs/healthtree/pkg/log"
)

// entry pairs a subcomponent with the subscription that feeds the parent aggregate.
type entry struct {
	component Component
	sub       Subscription
}

// controllerHolder is satisfied by *Controller and every type embedding it.
type controllerHolder interface {
	lifecycleController() *Controller
}

// Register adds child as a subcomponent. Every state the child publishes
// recomputes this component's aggregate, and the aggregate is recomputed once
// before Register returns.
func (c *Controller) Register(child Component) error {
	if err := c.validate(child); err != nil {
		return &ValidationError{Component: c.name, Err: err}
	}

	c.mu.Lock()
	if c.indexOf(child) >= 0 {
		c.mu.Unlock()
		return &ValidationError{Component: c.name, Err: ErrDuplicateComponent}
	}
	e := &entry{component: child}
	c.entries = append(c.entries, e)
	c.mu.Unlock()

	var deliveries atomic.Int64
	sub := child.Subscribe(func(StateInfo) {
		deliveries.Add(1)
		c.recompute()
	})
	if deliveries.Load() == 0 {
		// The child did not replay its current state.
		c.recompute()
	}

	c.mu.Lock()
	stillRegistered := slices.Contains(c.entries, e)
	if stillRegistered {
		e.sub = sub
	}
	c.mu.Unlock()
	if !stillRegistered {
		sub.Unsubscribe()
	}

	c.logger.Debug("subcomponent registered",
		log.String("component", c.name),
		log.String("subcomponent", child.Name()),
	)
	return nil
}

// Unregister removes child and stops tracking its state.
// It returns false if child was not registered.
func (c *Controller) Unregister(child Component) bool {
	if isNil(child) || !reflect.TypeOf(child).Comparable() {
		return false
	}

	c.mu.Lock()
	idx := c.indexOf(child)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	e := c.entries[idx]
	c.entries = slices.Delete(c.entries, idx, idx+1)
	c.mu.Unlock()

	if e.sub != nil {
		e.sub.Unsubscribe()
	}
	c.recompute()

	c.logger.Debug("subcomponent unregistered",
		log.String("component", c.name),
		log.String("subcomponent", child.Name()),
	)
	return true
}

// Subcomponents returns the registered subcomponents in registration order.
func (c *Controller) Subcomponents() []Component {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Component, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.component
	}
	return out
}

// detachSubscriptions disposes every child subscription while keeping the
// children registered. Later aggregates still read child states directly.
func (c *Controller) detachSubscriptions() {
	c.mu.Lock()
	subs := make([]Subscription, 0, len(c.entries))
	for _, e := range c.entries {
		if e.sub != nil {
			subs = append(subs, e.sub)
			e.sub = nil
		}
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (c *Controller) validate(child Component) error {
	if isNil(child) {
		return ErrNilComponent
	}
	if !reflect.TypeOf(child).Comparable() {
		return ErrIncompatibleComponent
	}
	if cc := controllerOf(child); cc != nil {
		if cc == c || cc.reaches(c, map[*Controller]bool{}) {
			return ErrIncompatibleComponent
		}
	}
	return nil
}

// reaches reports whether target is somewhere below c.
func (c *Controller) reaches(target *Controller, seen map[*Controller]bool) bool {
	if seen[c] {
		return false
	}
	seen[c] = true
	for _, child := range c.Subcomponents() {
		cc := controllerOf(child)
		if cc == nil {
			continue
		}
		if cc == target || cc.reaches(target, seen) {
			return true
		}
	}
	return false
}

// indexOf must be called with c.mu held.
func (c *Controller) indexOf(child Component) int {
	cc := controllerOf(child)
	for i, e := range c.entries {
		if e.component == child {
			return i
		}
		if cc != nil && controllerOf(e.component) == cc {
			return i
		}
	}
	return -1
}

func controllerOf(comp Component) *Controller {
	if h, ok := comp.(controllerHolder); ok {
		return h.lifecycleController()
	}
	return nil
}

func isNil(comp Component) bool {
	if comp == nil {
		return true
	}
	v := reflect.ValueOf(comp)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}
