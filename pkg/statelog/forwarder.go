package statelog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bft-labs/healthtree/pkg/backoff"
	"github.com/bft-labs/healthtree/pkg/lifecycle"
	"github.com/bft-labs/healthtree/pkg/log"
)

// Counters are per-stream delivery statistics.
type Counters struct {
	Forwarded       uint64
	MappingFailures uint64
	Suppressed      uint64
}

// streamState tracks one stream, keyed by stream name and component.
type streamState struct {
	Counters
	lastErr  string
	quietTil time.Time
	window   *backoff.Backoff
}

// Forwarder normalizes state changes and log events into Records and writes
// them to a Logger. A mapping error that repeats on the same stream is logged
// once and then suppressed for a window that grows with every repeat.
type Forwarder struct {
	logger    log.Logger
	now       func() time.Time
	minWindow time.Duration
	maxWindow time.Duration

	mu      sync.Mutex
	streams map[string]*streamState
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithSuppressionWindow sets the initial and maximum suppression windows.
func WithSuppressionWindow(initial, max time.Duration) Option {
	return func(f *Forwarder) {
		f.minWindow = initial
		f.maxWindow = max
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Forwarder) {
		if now != nil {
			f.now = now
		}
	}
}

// NewForwarder creates a forwarder writing to logger.
func NewForwarder(logger log.Logger, opts ...Option) *Forwarder {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	f := &Forwarder{
		logger:    logger,
		now:       time.Now,
		minWindow: time.Second,
		maxWindow: time.Minute,
		streams:   make(map[string]*streamState),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WatchState forwards every state c publishes, starting with the current one.
func (f *Forwarder) WatchState(c lifecycle.Component) lifecycle.Subscription {
	name := c.Name()
	return c.Subscribe(func(s lifecycle.StateInfo) {
		rec, err := FromState(name, s)
		f.handle(StreamState, name, rec, err)
	})
}

// WatchLogs forwards events until the channel is closed or ctx is done.
func (f *Forwarder) WatchLogs(ctx context.Context, component string, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			rec, err := FromEvent(component, e, f.now())
			f.handle(StreamLog, component, rec, err)
		}
	}
}

// Stats returns the counters of one stream.
func (f *Forwarder) Stats(stream, component string) Counters {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.streams[key(stream, component)]; ok {
		return st.Counters
	}
	return Counters{}
}

// Totals sums the counters of every stream.
func (f *Forwarder) Totals() Counters {
	f.mu.Lock()
	defer f.mu.Unlock()
	var t Counters
	for _, st := range f.streams {
		t.Forwarded += st.Forwarded
		t.MappingFailures += st.MappingFailures
		t.Suppressed += st.Suppressed
	}
	return t
}

// Streams lists the keys of every stream seen so far, sorted.
func (f *Forwarder) Streams() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.streams))
	for k := range f.streams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f *Forwarder) handle(stream, component string, rec Record, mapErr error) {
	if mapErr != nil {
		f.mappingFailed(stream, component, mapErr)
		return
	}

	f.mu.Lock()
	st := f.stream(stream, component)
	st.Forwarded++
	st.lastErr = ""
	st.window.Reset()
	f.mu.Unlock()

	f.write(rec)
}

func (f *Forwarder) mappingFailed(stream, component string, err error) {
	now := f.now()

	f.mu.Lock()
	st := f.stream(stream, component)
	st.MappingFailures++
	msg := err.Error()
	if msg == st.lastErr && now.Before(st.quietTil) {
		st.Suppressed++
		f.mu.Unlock()
		return
	}
	if msg != st.lastErr {
		st.window.Reset()
	}
	st.lastErr = msg
	window := st.window.Next()
	st.quietTil = now.Add(window)
	suppressed := st.Suppressed
	f.mu.Unlock()

	f.logger.Warn("record mapping failed",
		log.String("stream", stream),
		log.String("component", component),
		log.Err(err),
		log.Uint64("suppressed_total", suppressed),
		log.Duration("quiet_for", window),
	)
}

// stream must be called with f.mu held.
func (f *Forwarder) stream(stream, component string) *streamState {
	k := key(stream, component)
	st, ok := f.streams[k]
	if !ok {
		st = &streamState{window: backoff.New(f.minWindow, f.maxWindow)}
		f.streams[k] = st
	}
	return st
}

func (f *Forwarder) write(rec Record) {
	fields := make([]log.Field, 0, len(rec.Fields)+3)
	fields = append(fields,
		log.String("stream", rec.Stream),
		log.String("component", rec.Component),
		log.Time("at", rec.Time),
	)
	names := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fields = append(fields, log.Any(k, rec.Fields[k]))
	}

	switch rec.Level {
	case LevelDebug:
		f.logger.Debug(rec.Message, fields...)
	case LevelWarn:
		f.logger.Warn(rec.Message, fields...)
	case LevelError:
		f.logger.Error(rec.Message, fields...)
	default:
		f.logger.Info(rec.Message, fields...)
	}
}

func key(stream, component string) string {
	return stream + ":" + component
}
