package lifecycle

import (
	"context"
	"time"
)

// ComponentState is the health tag a component reports.
type ComponentState string

const (
	StateUninitialized ComponentState = "UNINITIALIZED"
	StateInitializing  ComponentState = "INITIALIZING"
	StateOK            ComponentState = "OK"
	StateDegraded      ComponentState = "DEGRADED"
	StateShuttingDown  ComponentState = "SHUTTING_DOWN"
	StateShutDown      ComponentState = "SHUT_DOWN"
	StateFailed        ComponentState = "FAILED"
)

// severity ranks known states, worst first.
var severity = map[ComponentState]int{
	StateFailed:        0,
	StateShutDown:      1,
	StateShuttingDown:  2,
	StateInitializing:  3,
	StateUninitialized: 4,
	StateDegraded:      5,
	StateOK:            6,
}

// Severity returns the rank of s for aggregation, lower being worse.
// The second result is false for tags outside the known set.
func (s ComponentState) Severity() (int, bool) {
	rank, ok := severity[s]
	return rank, ok
}

// Known reports whether s is one of the defined states.
func (s ComponentState) Known() bool {
	_, ok := severity[s]
	return ok
}

// String returns the tag itself.
func (s ComponentState) String() string {
	return string(s)
}

// StateInfo is a point-in-time health report for a component.
// Components mirrors the subcomponent tree one level deep; each entry may nest further.
type StateInfo struct {
	Name       string         `json:"name"`
	State      ComponentState `json:"state"`
	Reason     string         `json:"reason,omitempty"`
	UpdatedOn  time.Time      `json:"updatedOn"`
	Components []StateInfo    `json:"components,omitempty"`
}

// Ready reports whether the state counts as serving.
func (i StateInfo) Ready() bool {
	return i.State == StateOK || i.State == StateDegraded
}

// Subscription is the handle returned by Subscribe.
type Subscription interface {
	// Unsubscribe stops delivery to the observer. Safe to call more than once.
	Unsubscribe()
}

// Component is a unit participating in the lifecycle and health contract.
type Component interface {
	// Name identifies the component in aggregated reports.
	Name() string

	// State returns a synchronous snapshot, aggregated when subcomponents exist.
	State() StateInfo

	// Subscribe registers fn for every state change. fn is called immediately
	// with the current value.
	Subscribe(fn func(StateInfo)) Subscription

	// Initialize moves the component from UNINITIALIZED to OK or FAILED.
	Initialize(ctx context.Context) error

	// Shutdown moves the component to SHUT_DOWN or FAILED.
	Shutdown(ctx context.Context) error

	// IsReady reports whether the component and all its subcomponents can serve.
	// It never fails; any error counts as not ready.
	IsReady(ctx context.Context) bool
}

// HookFunc is an initialization or shutdown hook supplied by a concrete component.
type HookFunc func(ctx context.Context) error

func noopHook(context.Context) error { return nil }
