package components

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bft-labs/healthtree/internal/ports"
	"github.com/bft-labs/healthtree/pkg/backoff"
	"github.com/bft-labs/healthtree/pkg/lifecycle"
	"github.com/bft-labs/healthtree/pkg/log"
)

// HTTPConfig configures an HTTPProbe.
type HTTPConfig struct {
	URL string

	// Attempts is the number of probes made during Initialize.
	// Default: 3
	Attempts int

	// RetryInitial and RetryMax bound the backoff between attempts.
	// Default: 200ms and 2s
	RetryInitial time.Duration
	RetryMax     time.Duration

	// ExpectStatus is the required status code. Zero accepts any 2xx.
	ExpectStatus int

	// InitTimeout bounds the whole initialization, retries included. Lifecycle
	// hooks do not see caller cancellation, so this is what stops a probe
	// against an unreachable URL from outliving an interrupted run.
	// Default: 30s
	InitTimeout time.Duration
}

func (c HTTPConfig) withDefaults() HTTPConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.RetryInitial <= 0 {
		c.RetryInitial = 200 * time.Millisecond
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 2 * time.Second
	}
	if c.InitTimeout <= 0 {
		c.InitTimeout = 30 * time.Second
	}
	return c
}

// HTTPProbe is healthy while its URL answers with the expected status.
type HTTPProbe struct {
	*lifecycle.Controller
	cfg    HTTPConfig
	client ports.HTTPClient
	logger log.Logger
	probes atomic.Int64
}

// NewHTTPProbe creates a probe. A nil client uses http.DefaultClient.
func NewHTTPProbe(name string, cfg HTTPConfig, client ports.HTTPClient, logger log.Logger, opts ...lifecycle.Option) *HTTPProbe {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	p := &HTTPProbe{cfg: cfg.withDefaults(), client: client, logger: logger}
	opts = append(opts, lifecycle.WithInitHook(p.init))
	p.Controller = lifecycle.New(name, opts...)
	return p
}

// Probes returns how many requests have been sent.
func (p *HTTPProbe) Probes() int64 {
	return p.probes.Load()
}

func (p *HTTPProbe) init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.InitTimeout)
	defer cancel()
	b := backoff.New(p.cfg.RetryInitial, p.cfg.RetryMax)

	var err error
	for attempt := 1; attempt <= p.cfg.Attempts; attempt++ {
		if err = p.probe(ctx); err == nil {
			return nil
		}
		p.logger.Debug("probe failed",
			log.String("component", p.Name()),
			log.Int("attempt", attempt),
			log.Err(err),
		)
		if attempt < p.cfg.Attempts {
			if werr := b.Wait(ctx); werr != nil {
				return fmt.Errorf("%s: gave up after %d attempts: %w", p.cfg.URL, attempt, werr)
			}
		}
	}
	return fmt.Errorf("%s unreachable after %d attempts: %w", p.cfg.URL, p.cfg.Attempts, err)
}

// Check probes once after initialization: a failure degrades an OK probe and
// a success recovers a DEGRADED one. Other states are left alone.
func (p *HTTPProbe) Check(ctx context.Context) error {
	err := p.probe(ctx)
	switch state := p.OwnState().State; {
	case err != nil && state == lifecycle.StateOK:
		if derr := p.Degrade(err.Error()); derr != nil && !errors.Is(derr, lifecycle.ErrInvalidTransition) {
			return derr
		}
	case err == nil && state == lifecycle.StateDegraded:
		if rerr := p.Recover(); rerr != nil && !errors.Is(rerr, lifecycle.ErrInvalidTransition) {
			return rerr
		}
	}
	return err
}

func (p *HTTPProbe) probe(ctx context.Context) error {
	p.probes.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if p.cfg.ExpectStatus != 0 {
		if resp.StatusCode != p.cfg.ExpectStatus {
			return fmt.Errorf("unexpected status %d, want %d", resp.StatusCode, p.cfg.ExpectStatus)
		}
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
