package lifecycle

import (
	"testing"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("sorts chronologically", func(t *testing.T) {
		events := []domain.LifecycleEvent{
			{ResourceID: "i-1", Type: domain.EventStopped, Timestamp: base.Add(2 * time.Hour)},
			{ResourceID: "i-1", Type: domain.EventStarted, Timestamp: base},
		}

		got := Normalize(events)

		assert.Len(t, got, 2)
		assert.Equal(t, domain.EventStarted, got[0].Type)
		assert.Equal(t, domain.EventStopped, got[1].Type)
	})

	t.Run("drops duplicate type and timestamp pairs", func(t *testing.T) {
		events := []domain.LifecycleEvent{
			{ResourceID: "i-1", Type: domain.EventStarted, Timestamp: base},
			{ResourceID: "i-1", Type: domain.EventStarted, Timestamp: base},
			{ResourceID: "i-1", Type: domain.EventStopped, Timestamp: base},
		}

		got := Normalize(events)

		assert.Len(t, got, 2)
	})

	t.Run("drops duplicates split by another same-timestamp event", func(t *testing.T) {
		events := []domain.LifecycleEvent{
			{ResourceID: "i-1", Type: domain.EventStarted, Timestamp: base},
			{ResourceID: "i-1", Type: domain.EventStopped, Timestamp: base},
			{ResourceID: "i-1", Type: domain.EventStarted, Timestamp: base},
		}

		got := Normalize(events)

		assert.Len(t, got, 2)
	})

	t.Run("keeps same timestamp with different types", func(t *testing.T) {
		events := []domain.LifecycleEvent{
			{ResourceID: "i-1", Type: domain.EventCreated, Timestamp: base},
			{ResourceID: "i-1", Type: domain.EventStarted, Timestamp: base},
		}

		got := Normalize(events)

		assert.Len(t, got, 2)
	})

	t.Run("discards unrelated event types", func(t *testing.T) {
		events := []domain.LifecycleEvent{
			{ResourceID: "i-1", Type: domain.EventType("RebootInstances"), Timestamp: base},
			{ResourceID: "i-1", Type: domain.EventStarted, Timestamp: base.Add(time.Hour)},
		}

		got := Normalize(events)

		assert.Len(t, got, 1)
		assert.Equal(t, domain.EventStarted, got[0].Type)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, Normalize(nil))
	})
}
