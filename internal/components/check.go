package components

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/healthtree/pkg/lifecycle"
)

// Checker is implemented by components that can re-verify their health after initialization.
type Checker interface {
	lifecycle.Component
	Check(ctx context.Context) error
}

// CheckAll runs Check on every Checker in the tree concurrently and returns
// the first failure. All checks run to completion.
func CheckAll(ctx context.Context, root lifecycle.Component) error {
	var checkers []Checker
	Walk(root, func(c lifecycle.Component) {
		if ch, ok := c.(Checker); ok {
			checkers = append(checkers, ch)
		}
	})

	var g errgroup.Group
	for _, ch := range checkers {
		ch := ch
		g.Go(func() error {
			if err := ch.Check(ctx); err != nil {
				return fmt.Errorf("%s: %w", ch.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
