package components

import (
	"context"
	"errors"

	"github.com/bft-labs/healthtree/pkg/lifecycle"
)

// Static is a leaf with no real work. If failWith is set, Initialize fails with it.
type Static struct {
	*lifecycle.Controller
	failWith string
}

func NewStatic(name, failWith string, opts ...lifecycle.Option) *Static {
	s := &Static{failWith: failWith}
	opts = append(opts, lifecycle.WithInitHook(s.init))
	s.Controller = lifecycle.New(name, opts...)
	return s
}

func (s *Static) init(context.Context) error {
	if s.failWith != "" {
		return errors.New(s.failWith)
	}
	return nil
}
