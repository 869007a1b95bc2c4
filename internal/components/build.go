package components

import (
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/healthtree/internal/ports"
	"github.com/bft-labs/healthtree/pkg/lifecycle"
	"github.com/bft-labs/healthtree/pkg/log"
)

// Component kinds accepted in Spec.Kind.
const (
	KindGroup     = "group"
	KindComposite = "composite"
	KindStatic    = "static"
	KindHTTP      = "http"
	KindFile      = "file"
)

// Spec describes one node of a component tree. Durations are strings so the
// TOML stays readable ("250ms", "2s").
type Spec struct {
	Name string `toml:"name"`
	Kind string `toml:"kind"`

	// group
	InitializationStrategy string `toml:"initialization_strategy"`
	ShutdownStrategy       string `toml:"shutdown_strategy"`
	SubcomponentStrategy   string `toml:"subcomponent_strategy"`
	Components             []Spec `toml:"components"`

	// static
	FailWith string `toml:"fail_with"`

	// http
	URL          string `toml:"url"`
	Attempts     int    `toml:"attempts"`
	RetryInitial string `toml:"retry_initial"`
	RetryMax     string `toml:"retry_max"`
	ExpectStatus int    `toml:"expect_status"`
	InitTimeout  string `toml:"init_timeout"`

	// file
	Path string `toml:"path"`
}

// Options carries dependencies shared by every built component.
type Options struct {
	Logger     log.Logger
	HTTPClient ports.HTTPClient
}

// registrar is implemented by *lifecycle.Controller and every type embedding it.
type registrar interface {
	Register(lifecycle.Component) error
}

// Build constructs the component tree described by spec.
func Build(spec Spec, opts Options) (lifecycle.Component, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return build(spec, opts, spec.Name)
}

func build(spec Spec, opts Options, path string) (lifecycle.Component, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%s: component name is required", path)
	}
	if len(spec.Components) > 0 && spec.Kind != KindGroup && spec.Kind != KindComposite {
		return nil, fmt.Errorf("%s: kind %q cannot have components", path, spec.Kind)
	}

	logOpt := lifecycle.WithLogger(opts.Logger)

	var (
		comp lifecycle.Component
		err  error
	)
	switch spec.Kind {
	case KindGroup:
		var cfg lifecycle.Config
		if cfg, err = groupConfig(spec); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		comp = lifecycle.New(spec.Name, logOpt, lifecycle.WithConfig(cfg))
	case KindComposite:
		comp = lifecycle.NewComposite(spec.Name, logOpt)
	case KindStatic, "":
		comp = NewStatic(spec.Name, spec.FailWith, logOpt)
	case KindHTTP:
		var cfg HTTPConfig
		if cfg, err = httpConfig(spec); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		comp = NewHTTPProbe(spec.Name, cfg, opts.HTTPClient, opts.Logger, logOpt)
	case KindFile:
		if spec.Path == "" {
			return nil, fmt.Errorf("%s: file component needs a path", path)
		}
		comp = NewFileWatch(spec.Name, spec.Path, opts.Logger, logOpt)
	default:
		return nil, fmt.Errorf("%s: unknown kind %q", path, spec.Kind)
	}

	if len(spec.Components) == 0 {
		return comp, nil
	}
	parent := comp.(registrar)
	for _, childSpec := range spec.Components {
		child, err := build(childSpec, opts, path+"/"+childSpec.Name)
		if err != nil {
			return nil, err
		}
		if err := parent.Register(child); err != nil {
			return nil, fmt.Errorf("%s: register %s: %w", path, childSpec.Name, err)
		}
	}
	return comp, nil
}

func groupConfig(spec Spec) (lifecycle.Config, error) {
	initOrder, err := lifecycle.ParseOrder(spec.InitializationStrategy)
	if err != nil {
		return lifecycle.Config{}, err
	}
	shutdownOrder, err := lifecycle.ParseOrder(spec.ShutdownStrategy)
	if err != nil {
		return lifecycle.Config{}, err
	}
	exec, err := lifecycle.ParseExecution(spec.SubcomponentStrategy)
	if err != nil {
		return lifecycle.Config{}, err
	}
	return lifecycle.Config{
		InitializationStrategy: initOrder,
		ShutdownStrategy:       shutdownOrder,
		SubcomponentStrategy:   exec,
	}, nil
}

func httpConfig(spec Spec) (HTTPConfig, error) {
	if spec.URL == "" {
		return HTTPConfig{}, errors.New("http component needs a url")
	}
	cfg := HTTPConfig{URL: spec.URL, Attempts: spec.Attempts, ExpectStatus: spec.ExpectStatus}
	var err error
	if cfg.RetryInitial, err = parseDuration("retry_initial", spec.RetryInitial); err != nil {
		return HTTPConfig{}, err
	}
	if cfg.RetryMax, err = parseDuration("retry_max", spec.RetryMax); err != nil {
		return HTTPConfig{}, err
	}
	if cfg.InitTimeout, err = parseDuration("init_timeout", spec.InitTimeout); err != nil {
		return HTTPConfig{}, err
	}
	return cfg, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return d, nil
}

// Walk calls fn for c and every component below it, parents before children.
func Walk(c lifecycle.Component, fn func(lifecycle.Component)) {
	fn(c)
	if p, ok := c.(interface{ Subcomponents() []lifecycle.Component }); ok {
		for _, child := range p.Subcomponents() {
			Walk(child, fn)
		}
	}
}
