package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

func TestEqualProfitStakes(t *testing.T) {
	stake1, stake2, profit := EqualProfitStakes(2.41, 2.05, 1000)

	assert.InDelta(t, 459.64, stake1, 0.01)
	assert.InDelta(t, 540.36, stake2, 0.01)
	assert.InDelta(t, 107.74, profit, 0.01)
	assert.InDelta(t, 1000.0, stake1+stake2, 1e-9)

	// Equal profit whichever side wins.
	profitIfLeg1 := stake1*2.41 - 1000
	profitIfLeg2 := stake2*2.05 - 1000
	assert.InDelta(t, profitIfLeg1, profitIfLeg2, 1e-6*math.Abs(profitIfLeg1))
}

func TestEqualProfitStakesInvariantAcrossOdds(t *testing.T) {
	pairs := [][2]float64{{2.41, 2.05}, {3.2, 1.6}, {2.0, 2.1}, {5.5, 1.3}}
	for _, p := range pairs {
		o1, o2 := p[0], p[1]
		stake1, stake2, _ := EqualProfitStakes(o1, o2, 2500)
		assert.InDelta(t, stake1*o1, stake2*o2, 1e-6*stake1*o1, "odds %v", p)
	}
}

func TestEqualProfitStakesRejectsInvalidInputs(t *testing.T) {
	for _, in := range [][3]float64{{1.0, 2.0, 100}, {2.0, 0.9, 100}, {2.0, 2.0, 0}} {
		s1, s2, p := EqualProfitStakes(in[0], in[1], in[2])
		assert.Zero(t, s1)
		assert.Zero(t, s2)
		assert.Zero(t, p)
	}
}

func TestSizerAppliesArbitrageStakes(t *testing.T) {
	s := NewSizer(1000, 0.25, testLogger())

	sized := s.Apply(domain.Arbitrage{MarketName: "m", OddsA: 2.41, OddsB: 2.05})
	arb, ok := sized.(domain.Arbitrage)
	require.True(t, ok)
	require.NotNil(t, arb.Stakes)
	assert.InDelta(t, 459.64, arb.Stakes.StakeA, 0.01)
	assert.InDelta(t, 540.36, arb.Stakes.StakeB, 0.01)
	assert.InDelta(t, 107.74, arb.Stakes.GuaranteedProfit, 0.01)
	assert.Equal(t, 1000.0, arb.Stakes.TotalCapital)
}

func TestSizerAppliesValueEdgeFraction(t *testing.T) {
	s := NewSizer(1000, 0.25, testLogger())

	sized := s.Apply(domain.ValueEdge{Team: "Lakers"})
	ve, ok := sized.(domain.ValueEdge)
	require.True(t, ok)
	assert.Equal(t, 250.0, ve.Stake)
}

func TestSizerClampsKellyFraction(t *testing.T) {
	s := NewSizer(1000, 1.7, testLogger())
	ve := s.Apply(domain.ValueEdge{}).(domain.ValueEdge)
	assert.Equal(t, 1000.0, ve.Stake)
}
