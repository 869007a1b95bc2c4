package statelog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/healthtree/pkg/lifecycle"
)

// Stream names used in Record.Stream and as counter keys.
const (
	StreamState = "state"
	StreamLog   = "log"
)

// Level is the severity of a Record.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var (
	ErrUnknownLevel = errors.New("statelog: unknown level")
	ErrEmptyMessage = errors.New("statelog: empty message")
	ErrUnknownState = errors.New("statelog: unrecognized state")
)

// Event is an entry on a component's log stream.
type Event struct {
	Level   Level
	Message string
	Time    time.Time
	Fields  map[string]interface{}
}

// Record is the normalized form of a state change or a log event.
type Record struct {
	Stream    string
	Component string
	Level     Level
	Message   string
	Time      time.Time
	Fields    map[string]interface{}
}

// FromState maps a published StateInfo to a Record. Unrecognized states fail to map.
func FromState(component string, s lifecycle.StateInfo) (Record, error) {
	if !s.State.Known() {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownState, string(s.State))
	}

	fields := map[string]interface{}{"state": s.State.String()}
	if s.Reason != "" {
		fields["reason"] = s.Reason
	}
	if n := len(s.Components); n > 0 {
		fields["subcomponents"] = n
	}

	return Record{
		Stream:    StreamState,
		Component: component,
		Level:     stateLevel(s.State),
		Message:   "component state changed",
		Time:      s.UpdatedOn,
		Fields:    fields,
	}, nil
}

func stateLevel(s lifecycle.ComponentState) Level {
	switch s {
	case lifecycle.StateFailed:
		return LevelError
	case lifecycle.StateDegraded:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// FromEvent maps a log-stream Event to a Record. A zero Time is replaced by now.
func FromEvent(component string, e Event, now time.Time) (Record, error) {
	level, err := parseLevel(string(e.Level))
	if err != nil {
		return Record{}, err
	}
	if strings.TrimSpace(e.Message) == "" {
		return Record{}, ErrEmptyMessage
	}
	ts := e.Time
	if ts.IsZero() {
		ts = now
	}
	return Record{
		Stream:    StreamLog,
		Component: component,
		Level:     level,
		Message:   e.Message,
		Time:      ts,
		Fields:    e.Fields,
	}, nil
}

func parseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(s)); l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l, nil
	case "warning":
		return LevelWarn, nil
	case "":
		return LevelInfo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}
