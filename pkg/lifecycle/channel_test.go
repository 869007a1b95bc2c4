package lifecycle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects the states delivered to an observer.
type recorder struct {
	mu     sync.Mutex
	states []StateInfo
}

func (r *recorder) observe(s StateInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) tags() []ComponentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ComponentState, len(r.states))
	for i, s := range r.states {
		out[i] = s.State
	}
	return out
}

func TestStateChannel_ReplaysLatest(t *testing.T) {
	ch := NewStateChannel(info("svc", StateUninitialized, ""))
	ch.Publish(info("svc", StateOK, ""))

	rec := &recorder{}
	sub := ch.Subscribe(rec.observe)
	defer sub.Unsubscribe()

	assert.Equal(t, []ComponentState{StateOK}, rec.tags())
	assert.Equal(t, StateOK, ch.Current().State)
}

func TestStateChannel_DeliversBeforePublishReturns(t *testing.T) {
	ch := NewStateChannel(info("svc", StateUninitialized, ""))
	rec := &recorder{}
	ch.Subscribe(rec.observe)

	ch.Publish(info("svc", StateInitializing, ""))
	ch.Publish(info("svc", StateOK, ""))

	assert.Equal(t, []ComponentState{StateUninitialized, StateInitializing, StateOK}, rec.tags())
}

func TestStateChannel_Unsubscribe(t *testing.T) {
	ch := NewStateChannel(info("svc", StateUninitialized, ""))
	rec := &recorder{}
	sub := ch.Subscribe(rec.observe)
	require.Equal(t, 1, ch.Observers())

	sub.Unsubscribe()
	sub.Unsubscribe()
	ch.Publish(info("svc", StateOK, ""))

	assert.Equal(t, 0, ch.Observers())
	assert.Equal(t, []ComponentState{StateUninitialized}, rec.tags())
}

func TestStateChannel_UnsubscribeFromCallback(t *testing.T) {
	ch := NewStateChannel(info("svc", StateUninitialized, ""))

	var (
		sub   Subscription
		calls int
	)
	sub = ch.Subscribe(func(s StateInfo) {
		calls++
		if s.State == StateOK {
			sub.Unsubscribe()
		}
	})

	ch.Publish(info("svc", StateOK, ""))
	ch.Publish(info("svc", StateShutDown, ""))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, ch.Observers())
}

func TestStateChannel_NilObserver(t *testing.T) {
	ch := NewStateChannel(info("svc", StateUninitialized, ""))
	sub := ch.Subscribe(nil)
	sub.Unsubscribe()
	assert.Equal(t, 0, ch.Observers())
}

func TestStateChannel_ConcurrentPublishersKeepLastValue(t *testing.T) {
	ch := NewStateChannel(info("svc", StateUninitialized, ""))
	rec := &recorder{}
	ch.Subscribe(rec.observe)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch.Publish(info("svc", StateDegraded, ""))
		}()
	}
	wg.Wait()

	tags := rec.tags()
	assert.Len(t, tags, 21)
	assert.Equal(t, ch.Current().State, tags[len(tags)-1])
}
