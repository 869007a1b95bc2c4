package lifecycle

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/bft-labs/healthtree/pkg/log"
)

const (
	opInitialize = "initialize"
	opShutdown   = "shutdown"
)

// Controller drives the lifecycle state machine of one component and publishes
// its aggregated health. Concrete components embed *Controller and supply hooks
// through WithInitHook and WithShutdownHook.
//
// Valid transitions:
//   - UNINITIALIZED -> INITIALIZING -> OK | FAILED
//   - any but SHUT_DOWN -> SHUTTING_DOWN -> SHUT_DOWN | FAILED
//   - OK <-> DEGRADED (Degrade, Recover)
type Controller struct {
	name         string
	logger       log.Logger
	initHook     HookFunc
	shutdownHook HookFunc

	mu       sync.RWMutex
	config   Config
	own      StateInfo
	entries  []*entry
	inFlight map[string]bool
	initDone chan struct{} // closed when the initialization run ends

	channel *StateChannel
	flight  singleflight.Group
}

var _ Component = (*Controller)(nil)

// New creates a controller in UNINITIALIZED state.
func New(name string, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	own := StateInfo{Name: name, State: StateUninitialized, UpdatedOn: time.Now()}
	return &Controller{
		name:         name,
		logger:       o.logger,
		initHook:     o.initHook,
		shutdownHook: o.shutdownHook,
		config:       o.config.withDefaults(),
		own:          own,
		inFlight:     make(map[string]bool, 2),
		channel:      NewStateChannel(own),
	}
}

// Name returns the component name.
func (c *Controller) Name() string {
	return c.name
}

// State returns the latest published StateInfo, aggregated over subcomponents.
func (c *Controller) State() StateInfo {
	return c.channel.Current()
}

// OwnState returns the component's own state, ignoring subcomponents.
func (c *Controller) OwnState() StateInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.own
}

// Subscribe registers fn for every published state. fn receives the current value immediately.
func (c *Controller) Subscribe(fn func(StateInfo)) Subscription {
	return c.channel.Subscribe(fn)
}

// Config returns the current strategies.
func (c *Controller) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Configure replaces the strategies. Operations already running keep the old ones.
func (c *Controller) Configure(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = cfg.withDefaults()
}

// Initialize runs the init hook and initializes subcomponents in the configured order.
// It is a no-op unless the component is UNINITIALIZED. Concurrent callers share
// one run and its result.
func (c *Controller) Initialize(ctx context.Context) error {
	_, err, _ := c.flight.Do(opInitialize, func() (interface{}, error) {
		return nil, c.runInitialize(context.WithoutCancel(ctx), true)
	})
	return err
}

// Shutdown runs the shutdown hook and shuts down subcomponents in the configured order.
// It is a no-op once the component is SHUT_DOWN. Concurrent callers share one run.
func (c *Controller) Shutdown(ctx context.Context) error {
	_, err, _ := c.flight.Do(opShutdown, func() (interface{}, error) {
		return nil, c.runShutdown(context.WithoutCancel(ctx), true)
	})
	return err
}

// IsReady reports whether the component is OK or DEGRADED and every subcomponent
// is ready. An UNINITIALIZED component is initialized first.
func (c *Controller) IsReady(ctx context.Context) (ready bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("readiness check panicked", log.String("component", c.name), log.Any("panic", r))
			ready = false
		}
	}()

	c.initializeForReadiness(ctx, c.Initialize)
	self := c.selfReady()
	children := c.childrenReady(ctx)
	return self && children
}

// Degrade moves an OK component to DEGRADED with the given reason.
func (c *Controller) Degrade(reason string) error {
	return c.move(StateOK, StateDegraded, reason)
}

// Recover moves a DEGRADED component back to OK.
func (c *Controller) Recover() error {
	return c.move(StateDegraded, StateOK, "")
}

func (c *Controller) move(from, to ComponentState, reason string) error {
	if c.OwnState().State != from {
		return ErrInvalidTransition
	}
	if !c.transitionFrom(from, to, reason) {
		return ErrInvalidTransition
	}
	return nil
}

func (c *Controller) runInitialize(ctx context.Context, withChildren bool) error {
	if ok, _ := c.begin(opInitialize, func(s ComponentState) bool { return s == StateUninitialized }); !ok {
		return nil
	}
	defer c.end(opInitialize)

	c.transitionFrom(StateUninitialized, StateInitializing, "")

	steps := []HookFunc{c.initHook}
	if withChildren {
		children := func(ctx context.Context) error {
			return c.eachChild(ctx, false, func(ctx context.Context, child Component) error {
				return child.Initialize(ctx)
			})
		}
		if c.Config().InitializationStrategy == ChildrenFirst {
			steps = []HookFunc{children, c.initHook}
		} else {
			steps = append(steps, children)
		}
	}

	if err := runSteps(ctx, steps); err != nil {
		c.transitionFrom(StateInitializing, StateFailed, err.Error())
		c.logger.Error("initialization failed", log.String("component", c.name), log.Err(err))
		return &LifecycleError{Component: c.name, Op: opInitialize, Err: err}
	}

	c.transitionFrom(StateInitializing, StateOK, "")
	return nil
}

func (c *Controller) runShutdown(ctx context.Context, withChildren bool) error {
	guard := func(s ComponentState) bool { return s != StateShutDown }
	ok, wait := c.begin(opShutdown, guard)
	for wait != nil {
		<-wait
		ok, wait = c.begin(opShutdown, guard)
	}
	if !ok {
		return nil
	}
	defer c.end(opShutdown)

	c.transition(StateShuttingDown, "")

	steps := []HookFunc{c.shutdownHook}
	if withChildren {
		children := func(ctx context.Context) error {
			return c.eachChild(ctx, true, func(ctx context.Context, child Component) error {
				return child.Shutdown(ctx)
			})
		}
		if c.Config().ShutdownStrategy == ChildrenFirst {
			steps = []HookFunc{children, c.shutdownHook}
		} else {
			steps = append(steps, children)
		}
	}

	if err := runSteps(ctx, steps); err != nil {
		c.transition(StateFailed, err.Error())
		c.logger.Error("shutdown failed", log.String("component", c.name), log.Err(err))
		return &LifecycleError{Component: c.name, Op: opShutdown, Err: err}
	}

	c.transition(StateShutDown, "")
	return nil
}

// begin marks op as in flight if the own state passes guard. Initialization and
// shutdown exclude each other: initialization does not start while a shutdown
// runs, and a shutdown started during initialization gets a channel to wait on.
func (c *Controller) begin(op string, guard func(ComponentState) bool) (ok bool, wait <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch op {
	case opInitialize:
		if c.inFlight[opShutdown] {
			return false, nil
		}
	case opShutdown:
		if c.inFlight[opInitialize] {
			return false, c.initDone
		}
	}
	if !guard(c.own.State) {
		return false, nil
	}
	c.inFlight[op] = true
	if op == opInitialize {
		c.initDone = make(chan struct{})
	}
	return true, nil
}

func (c *Controller) end(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, op)
	if op == opInitialize {
		close(c.initDone)
	}
}

// busy reports whether op is currently in flight.
func (c *Controller) busy(op string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inFlight[op]
}

func runSteps(ctx context.Context, steps []HookFunc) error {
	for _, step := range steps {
		if err := protect(func() error { return step(ctx) }); err != nil {
			return err
		}
	}
	return nil
}

// protect runs fn and turns a panic into an error wrapping ErrHookPanic.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHookPanic, r)
		}
	}()
	return fn()
}

// eachChild applies fn to every subcomponent using the configured execution strategy.
// Sequential execution walks registration order, reversed when reverse is set, and
// stops at the first failure.
func (c *Controller) eachChild(ctx context.Context, reverse bool, fn func(context.Context, Component) error) error {
	children := c.Subcomponents()
	if len(children) == 0 {
		return nil
	}

	if c.Config().SubcomponentStrategy == Sequential {
		if reverse {
			slices.Reverse(children)
		}
		for _, child := range children {
			if err := protect(func() error { return fn(ctx, child) }); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	for _, child := range children {
		child := child
		g.Go(func() error {
			return protect(func() error { return fn(ctx, child) })
		})
	}
	return g.Wait()
}

// transition sets the own state and publishes the new aggregate.
// It returns after every observer has seen the update.
func (c *Controller) transition(to ComponentState, reason string) {
	c.transitionFrom("", to, reason)
}

// transitionFrom is transition guarded on the current own state; an empty from
// matches anything. It reports whether the transition happened.
func (c *Controller) transitionFrom(from, to ComponentState, reason string) bool {
	var (
		prev  ComponentState
		moved bool
	)
	c.channel.PublishFunc(func() StateInfo {
		c.mu.Lock()
		prev = c.own.State
		if from == "" || prev == from {
			c.own = StateInfo{Name: c.name, State: to, Reason: reason, UpdatedOn: time.Now()}
			moved = true
		}
		c.mu.Unlock()
		return c.aggregate()
	})

	if moved {
		c.logger.Info("state transition",
			log.String("component", c.name),
			log.String("from", prev.String()),
			log.String("to", to.String()),
			log.String("reason", reason),
		)
	}
	return moved
}

// recompute republishes the aggregate without changing the own state.
func (c *Controller) recompute() {
	c.channel.PublishFunc(c.aggregate)
}

// aggregate builds the StateInfo published for this component: the own state
// when there are no subcomponents, otherwise the worst of self and children.
func (c *Controller) aggregate() StateInfo {
	c.mu.RLock()
	own := c.own
	children := make([]Component, 0, len(c.entries))
	for _, e := range c.entries {
		children = append(children, e.component)
	}
	c.mu.RUnlock()

	if len(children) == 0 {
		return own
	}

	childStates := make([]StateInfo, 0, len(children))
	for _, child := range children {
		childStates = append(childStates, child.State())
	}

	members := make([]StateInfo, 0, len(children)+1)
	members = append(members, own)
	members = append(members, childStates...)

	worst, err := WorstState(members)
	if err != nil {
		return own
	}

	return StateInfo{
		Name:       c.name,
		State:      worst.State,
		Reason:     AggregatedReason(members, worst),
		UpdatedOn:  time.Now(),
		Components: childStates,
	}
}

func (c *Controller) selfReady() bool {
	return c.OwnState().Ready()
}

// initializeForReadiness runs init when the component has never been initialized.
// Failures surface through the resulting state, not as errors.
func (c *Controller) initializeForReadiness(ctx context.Context, init func(context.Context) error) {
	if c.OwnState().State != StateUninitialized {
		return
	}
	if err := init(ctx); err != nil {
		c.logger.Debug("initialization during readiness check failed",
			log.String("component", c.name), log.Err(err))
	}
}

// childrenReady asks every subcomponent; a panicking check counts as not ready.
func (c *Controller) childrenReady(ctx context.Context) bool {
	ready := true
	for _, child := range c.Subcomponents() {
		if !c.childReady(ctx, child) {
			ready = false
		}
	}
	return ready
}

func (c *Controller) childReady(ctx context.Context, child Component) (ready bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("subcomponent readiness check panicked",
				log.String("component", c.name),
				log.String("subcomponent", child.Name()),
				log.Any("panic", r),
			)
			ready = false
		}
	}()
	return child.IsReady(ctx)
}

// lifecycleController lets the registry find the controller behind an embedding component.
func (c *Controller) lifecycleController() *Controller {
	return c
}
