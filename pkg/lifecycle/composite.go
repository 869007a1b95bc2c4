package lifecycle

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/healthtree/pkg/log"
)

// Composite is a Controller that fans its lifecycle out to every subcomponent:
// itself first on the way up, children concurrently, and children before
// itself on the way down with every child failure collected.
//
// Strategy settings of the embedded Controller do not apply to Composite.
type Composite struct {
	*Controller
}

var _ Component = (*Composite)(nil)

// NewComposite creates a composite in UNINITIALIZED state.
func NewComposite(name string, opts ...Option) *Composite {
	return &Composite{Controller: New(name, opts...)}
}

// Initialize initializes the composite itself, then every subcomponent concurrently.
// A subcomponent failure is returned after the aggregate already reflects it.
// Concurrent callers share one run; children are left alone once the composite
// is past initialization without being ready.
func (c *Composite) Initialize(ctx context.Context) error {
	_, err, _ := c.flight.Do(opInitialize, func() (interface{}, error) {
		return nil, c.initializeAll(context.WithoutCancel(ctx))
	})
	return err
}

func (c *Composite) initializeAll(ctx context.Context) error {
	if err := c.runInitialize(ctx, false); err != nil {
		return err
	}
	if !c.selfReady() {
		return nil
	}

	var g errgroup.Group
	for _, child := range c.Subcomponents() {
		child := child
		g.Go(func() error {
			return protect(func() error { return child.Initialize(ctx) })
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("subcomponent initialization failed", log.String("component", c.name), log.Err(err))
		return &LifecycleError{Component: c.name, Op: opInitialize, Err: err}
	}
	return nil
}

// Shutdown stops listening to subcomponents, shuts all of them down concurrently,
// then shuts down the composite itself regardless of child failures. Child
// failures are returned together as an *AggregateError. Concurrent callers share
// one run, and a SHUT_DOWN composite returns nil without touching its children.
func (c *Composite) Shutdown(ctx context.Context) error {
	_, err, _ := c.flight.Do(opShutdown, func() (interface{}, error) {
		return nil, c.shutdownAll(context.WithoutCancel(ctx))
	})
	return err
}

func (c *Composite) shutdownAll(ctx context.Context) error {
	if c.OwnState().State == StateShutDown {
		return nil
	}
	c.detachSubscriptions()

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for _, child := range c.Subcomponents() {
		child := child
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := protect(func() error { return child.Shutdown(ctx) }); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	selfErr := c.runShutdown(ctx, false)
	if len(errs) == 0 {
		return selfErr
	}

	c.logger.Error("subcomponent shutdown failed",
		log.String("component", c.name),
		log.Int("failed", len(errs)),
	)
	agg := &AggregateError{Component: c.name, Errors: errs}
	if selfErr != nil {
		return errors.Join(selfErr, agg)
	}
	return agg
}

// IsReady checks the composite itself first and only then its subcomponents.
func (c *Composite) IsReady(ctx context.Context) (ready bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("readiness check panicked", log.String("component", c.name), log.Any("panic", r))
			ready = false
		}
	}()

	c.initializeForReadiness(ctx, c.Initialize)
	if !c.selfReady() {
		return false
	}
	return c.childrenReady(ctx)
}
