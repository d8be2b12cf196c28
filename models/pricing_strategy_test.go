package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPricingStrategySet(t *testing.T) {
	set := NewPricingStrategySet()

	assert.Equal(t, "0", set.FlatBaseCharge)
	assert.True(t, set.FlatEnabled)

	for _, kind := range []StrategyKind{StrategyWeight, StrategyDistance, StrategyCube} {
		s := set.Strategy(kind)
		assert.False(t, s.Enabled(), "strategy %s should start disabled", kind)
		require.Len(t, s.Tiers(), 1, "strategy %s should start with one default tier", kind)
		assert.Equal(t, NewRawTier(), s.Tiers()[0])
	}
}

func TestAddTier(t *testing.T) {
	set := NewPricingStrategySet()

	set.AddTier(StrategyWeight)
	set.AddTier(StrategyWeight)

	assert.Len(t, set.Strategy(StrategyWeight).Tiers(), 3)
	assert.Len(t, set.Strategy(StrategyDistance).Tiers(), 1)
}

func TestRemoveTier(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*PricingStrategySet)
		index     int
		wantCount int
	}{
		{
			name:      "last remaining tier is never removed",
			setup:     func(p *PricingStrategySet) {},
			index:     0,
			wantCount: 1,
		},
		{
			name: "middle tier removed",
			setup: func(p *PricingStrategySet) {
				p.AddTier(StrategyWeight)
				p.AddTier(StrategyWeight)
			},
			index:     1,
			wantCount: 2,
		},
		{
			name: "negative index ignored",
			setup: func(p *PricingStrategySet) {
				p.AddTier(StrategyWeight)
			},
			index:     -1,
			wantCount: 2,
		},
		{
			name: "out of range index ignored",
			setup: func(p *PricingStrategySet) {
				p.AddTier(StrategyWeight)
			},
			index:     5,
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewPricingStrategySet()
			tt.setup(&set)

			set.RemoveTier(StrategyWeight, tt.index)

			assert.Len(t, set.Strategy(StrategyWeight).Tiers(), tt.wantCount)
		})
	}
}

func TestUpdateTierField(t *testing.T) {
	set := NewPricingStrategySet()

	set.UpdateTierField(StrategyDistance, 0, TierFieldMaxBound, "25")
	set.UpdateTierField(StrategyDistance, 0, TierFieldMinCharge, "3")

	tier := set.Strategy(StrategyDistance).Tiers()[0]
	assert.Equal(t, "25", tier.MaxBound)
	assert.Equal(t, "3", tier.MinCharge)

	// Out-of-range index is a no-op
	set.UpdateTierField(StrategyDistance, 4, TierFieldMaxBound, "99")
	assert.Equal(t, "25", set.Strategy(StrategyDistance).Tiers()[0].MaxBound)
}

func TestUpdateTierFieldCopiesTiers(t *testing.T) {
	set := NewPricingStrategySet()
	before := set.Strategy(StrategyWeight).Tiers()

	set.UpdateTierField(StrategyWeight, 0, TierFieldPerUnitCharge, "7")

	// The previously returned slice must not change underneath the caller.
	assert.Equal(t, "0", before[0].PerUnitCharge)
	assert.Equal(t, "7", set.Strategy(StrategyWeight).Tiers()[0].PerUnitCharge)
}

func TestToggleStrategyPreservesTiers(t *testing.T) {
	set := NewPricingStrategySet()
	set.ToggleStrategy(StrategyCube, true)
	set.UpdateTierField(StrategyCube, 0, TierFieldMaxBound, "50")
	set.AddTier(StrategyCube)

	set.ToggleStrategy(StrategyCube, false)
	assert.False(t, set.Strategy(StrategyCube).Enabled())
	require.Len(t, set.Strategy(StrategyCube).Tiers(), 2)
	assert.Equal(t, "50", set.Strategy(StrategyCube).Tiers()[0].MaxBound)

	set.ToggleStrategy(StrategyCube, true)
	assert.True(t, set.Strategy(StrategyCube).Enabled())
	assert.Equal(t, "50", set.Strategy(StrategyCube).Tiers()[0].MaxBound)
}

func TestWireTiers(t *testing.T) {
	t.Run("disabled strategy emits empty non-nil slice", func(t *testing.T) {
		s := DisabledStrategy([]RawTier{{MinBound: "1", MaxBound: "2", PerUnitCharge: "3", Enabled: true}})

		wire := s.WireTiers()
		assert.NotNil(t, wire)
		assert.Empty(t, wire)
	})

	t.Run("enabled strategy normalizes each tier", func(t *testing.T) {
		s := EnabledStrategy([]RawTier{
			{MinBound: "0", MaxBound: "10", PerUnitCharge: "1.5", Enabled: true},
			{MinBound: "10", MaxBound: "abc", PerUnitCharge: "", MinCharge: "2", Enabled: false},
		})

		wire := s.WireTiers()
		require.Len(t, wire, 2)
		assert.Equal(t, 10.0, wire[0].MaxBound)
		assert.Equal(t, 1.5, wire[0].PerUnitCharge)
		assert.Equal(t, 0.0, wire[1].MaxBound)
		assert.Equal(t, 0.0, wire[1].PerUnitCharge)
		require.NotNil(t, wire[1].MinCharge)
		assert.Equal(t, 2.0, *wire[1].MinCharge)
		assert.False(t, wire[1].Enabled)
	})

	t.Run("enabled strategy never has zero tiers", func(t *testing.T) {
		s := EnabledStrategy(nil)
		assert.Len(t, s.Tiers(), 1)
	})
}

func TestBuildPayload(t *testing.T) {
	set := NewPricingStrategySet()
	set.FlatBaseCharge = "12.5"
	set.ToggleStrategy(StrategyWeight, true)
	set.UpdateTierField(StrategyWeight, 0, TierFieldMaxBound, "10")
	set.UpdateTierField(StrategyWeight, 0, TierFieldPerUnitCharge, "2")
	set.AddTier(StrategyWeight)
	set.UpdateTierField(StrategyWeight, 1, TierFieldMinBound, "10")
	set.UpdateTierField(StrategyWeight, 1, TierFieldMaxBound, "100")
	set.UpdateTierField(StrategyWeight, 1, TierFieldPerUnitCharge, "1.25")
	set.UpdateTierField(StrategyWeight, 1, TierFieldMaxCharge, "80")

	// Distance was edited but then disabled, so nothing of it may serialize.
	set.ToggleStrategy(StrategyDistance, true)
	set.UpdateTierField(StrategyDistance, 0, TierFieldMaxBound, "400")
	set.ToggleStrategy(StrategyDistance, false)

	payload := set.BuildPayload()

	assert.Equal(t, 12.5, payload.FlatBaseCharge)
	assert.True(t, payload.FlatEnabled)

	require.Len(t, payload.WeightRanges, 2)
	assert.Equal(t, 10.0, payload.WeightRanges[0].MaxBound)
	assert.Equal(t, 2.0, payload.WeightRanges[0].PerUnitCharge)
	assert.Equal(t, 10.0, payload.WeightRanges[1].MinBound)
	require.NotNil(t, payload.WeightRanges[1].MaxCharge)
	assert.Equal(t, 80.0, *payload.WeightRanges[1].MaxCharge)

	assert.NotNil(t, payload.DistanceRanges)
	assert.Empty(t, payload.DistanceRanges)
	assert.NotNil(t, payload.CubeRanges)
	assert.Empty(t, payload.CubeRanges)
}

func TestBuildPayloadFlatChargeFallback(t *testing.T) {
	set := NewPricingStrategySet()
	set.FlatBaseCharge = "not-a-number"

	payload := set.BuildPayload()
	assert.Equal(t, 0.0, payload.FlatBaseCharge)
}
