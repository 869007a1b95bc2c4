package lifecycle

import (
	"fmt"

	"github.com/bft-labs/healthtree/pkg/log"
)

// Order decides whether a component runs its own hook before or after its subcomponents.
type Order string

const (
	ParentFirst   Order = "parent-first"
	ChildrenFirst Order = "children-first"
)

// Execution decides how subcomponents are driven.
type Execution string

const (
	// Parallel starts every subcomponent at once, with no ordering between siblings.
	Parallel Execution = "parallel"
	// Sequential uses registration order for initialize and reverse order for shutdown.
	Sequential Execution = "sequential"
)

// ParseOrder parses "parent-first" or "children-first". Empty input yields ParentFirst.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", ParentFirst:
		return ParentFirst, nil
	case ChildrenFirst:
		return ChildrenFirst, nil
	default:
		return "", fmt.Errorf("unknown order %q (want %s or %s)", s, ParentFirst, ChildrenFirst)
	}
}

// ParseExecution parses "parallel" or "sequential". Empty input yields Parallel.
func ParseExecution(s string) (Execution, error) {
	switch Execution(s) {
	case "", Parallel:
		return Parallel, nil
	case Sequential:
		return Sequential, nil
	default:
		return "", fmt.Errorf("unknown subcomponent strategy %q (want %s or %s)", s, Parallel, Sequential)
	}
}

// Config holds the strategies of a controller.
type Config struct {
	InitializationStrategy Order
	ShutdownStrategy       Order
	SubcomponentStrategy   Execution
}

// DefaultConfig returns parent-first initialization and shutdown with parallel subcomponents.
func DefaultConfig() Config {
	return Config{
		InitializationStrategy: ParentFirst,
		ShutdownStrategy:       ParentFirst,
		SubcomponentStrategy:   Parallel,
	}
}

// withDefaults fills empty fields.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InitializationStrategy == "" {
		c.InitializationStrategy = d.InitializationStrategy
	}
	if c.ShutdownStrategy == "" {
		c.ShutdownStrategy = d.ShutdownStrategy
	}
	if c.SubcomponentStrategy == "" {
		c.SubcomponentStrategy = d.SubcomponentStrategy
	}
	return c
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	config       Config
	logger       log.Logger
	initHook     HookFunc
	shutdownHook HookFunc
}

func defaultOptions() options {
	return options{
		config:       DefaultConfig(),
		logger:       log.NewNoopLogger(),
		initHook:     noopHook,
		shutdownHook: noopHook,
	}
}

// WithConfig sets all strategies at once. Empty fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg.withDefaults()
	}
}

// WithInitializationStrategy sets whether the own init hook runs before or after subcomponents.
func WithInitializationStrategy(order Order) Option {
	return func(o *options) {
		o.config.InitializationStrategy = order
	}
}

// WithShutdownStrategy sets whether the own shutdown hook runs before or after subcomponents.
func WithShutdownStrategy(order Order) Option {
	return func(o *options) {
		o.config.ShutdownStrategy = order
	}
}

// WithSubcomponentStrategy sets parallel or sequential subcomponent execution.
func WithSubcomponentStrategy(exec Execution) Option {
	return func(o *options) {
		o.config.SubcomponentStrategy = exec
	}
}

// WithLogger sets the logger used for transition logs.
// If not provided, a no-op logger is used.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithInitHook sets the work run during Initialize.
func WithInitHook(fn HookFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.initHook = fn
		}
	}
}

// WithShutdownHook sets the work run during Shutdown.
func WithShutdownHook(fn HookFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.shutdownHook = fn
		}
	}
}
