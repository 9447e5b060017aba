package power

import (
	"context"
	"testing"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPowerProfile(t *testing.T) {
	src := NewStatic()

	t.Run("known type", func(t *testing.T) {
		profile, err := src.GetPowerProfile(context.Background(), "t3.medium")
		require.NoError(t, err)

		assert.Equal(t, "t3.medium", profile.InstanceType)
		assert.InDelta(t, 13.3, profile.MaxWatts, 1e-9)
		assert.Less(t, profile.MinWatts, profile.AvgWatts)
		assert.Less(t, profile.AvgWatts, profile.MaxWatts)
	})

	t.Run("unknown type is an error, never default watts", func(t *testing.T) {
		profile, err := src.GetPowerProfile(context.Background(), "x9.mystery")

		assert.Zero(t, profile)
		assert.Equal(t, domain.ErrInsufficientData, domain.KindOf(err))
	})
}

func TestKnownInstanceTypes(t *testing.T) {
	types := KnownInstanceTypes()

	assert.NotEmpty(t, types)
	assert.Contains(t, types, "t3.medium")
	assert.Contains(t, types, "m5.large")
}
