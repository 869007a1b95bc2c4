// Package backoff provides exponential backoff with jitter.
//
// It is used by probe components to space out retries and by the state-log
// forwarder to widen the window in which repeated errors are suppressed.
//
//	b := backoff.New(100*time.Millisecond, 5*time.Second)
//	for attempt := 0; attempt < 5; attempt++ {
//	    if err := try(); err == nil {
//	        break
//	    }
//	    if err := b.Wait(ctx); err != nil {
//	        return err
//	    }
//	}
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package backoff
