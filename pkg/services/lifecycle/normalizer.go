// Package lifecycle turns raw audit-log entries into ordered lifecycle
// events and reconstructs per-resource runtime intervals from them.
package lifecycle

import (
	"sort"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
)

var relevantTypes = map[domain.EventType]bool{
	domain.EventCreated:    true,
	domain.EventStarted:    true,
	domain.EventStopped:    true,
	domain.EventTerminated: true,
}

// Normalize filters raw entries to the four lifecycle event types, sorts
// them chronologically, and drops duplicate (type, timestamp) pairs. It is
// pure over its input and never synthesizes events.
func Normalize(raw []domain.LifecycleEvent) []domain.LifecycleEvent {
	events := make([]domain.LifecycleEvent, 0, len(raw))
	for _, e := range raw {
		if relevantTypes[e.Type] {
			e.Timestamp = e.Timestamp.UTC()
			events = append(events, e)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	type eventKey struct {
		eventType domain.EventType
		unixNano  int64
	}
	seen := make(map[eventKey]bool, len(events))
	deduped := events[:0]
	for _, e := range events {
		key := eventKey{e.Type, e.Timestamp.UnixNano()}
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, e)
	}

	return deduped
}
