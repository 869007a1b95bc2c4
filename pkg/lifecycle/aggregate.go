package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

// Synthetic entries returned when unknown tags are involved in aggregation.
const (
	unknownStatesName   = "unknown-states"
	unknownStatesReason = "degraded due to unknown states"
	anomalyName         = "state-calculation"
	anomalyReason       = "state calculation anomaly"
)

// WorstState returns the most severe entry of states. Ties go to the entry seen first.
//
// Unrecognized tags never win on their own: if any are present the result is at
// least DEGRADED, and if none of the entries is recognized a synthetic DEGRADED
// entry is returned instead of an error. Only an empty input fails.
func WorstState(states []StateInfo) (StateInfo, error) {
	if len(states) == 0 {
		return StateInfo{}, ErrNoStates
	}

	worstIdx := -1
	worstRank := 0
	unknown := 0
	for i, s := range states {
		rank, ok := s.State.Severity()
		if !ok {
			unknown++
			continue
		}
		if worstIdx < 0 || rank < worstRank {
			worstIdx = i
			worstRank = rank
		}
	}

	if worstIdx < 0 {
		return StateInfo{
			Name:      anomalyName,
			State:     StateDegraded,
			Reason:    anomalyReason,
			UpdatedOn: time.Now(),
		}, nil
	}

	worst := states[worstIdx]
	if unknown > 0 {
		degradedRank, _ := StateDegraded.Severity()
		if worstRank < degradedRank {
			return worst, nil
		}
		return StateInfo{
			Name:      unknownStatesName,
			State:     StateDegraded,
			Reason:    unknownStatesReason,
			UpdatedOn: time.Now(),
		}, nil
	}
	return worst, nil
}

// AggregatedReason renders a per-state breakdown of states followed by the worst member,
// e.g. "OK: 2/3, DEGRADED: 1/3, Worst: cache - slow responses".
func AggregatedReason(states []StateInfo, worst StateInfo) string {
	var order []ComponentState
	counts := make(map[ComponentState]int, len(states))
	for _, s := range states {
		if _, seen := counts[s.State]; !seen {
			order = append(order, s.State)
		}
		counts[s.State]++
	}

	parts := make([]string, 0, len(order)+1)
	for _, tag := range order {
		parts = append(parts, fmt.Sprintf("%s: %d/%d", tag, counts[tag], len(states)))
	}

	w := "Worst: " + worst.Name
	if worst.Reason != "" {
		w += " - " + worst.Reason
	}
	parts = append(parts, w)

	return strings.Join(parts, ", ")
}
