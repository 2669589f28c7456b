package engine

import (
	"log/slog"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// Sizer allocates capital to detected opportunities. Arbitrage gets the
// equal-profit two-leg split over the full bankroll; value edges get a
// single-leg fractional stake scaled by the Kelly multiplier.
type Sizer struct {
	bankroll      float64
	kellyFraction float64
	logger        *slog.Logger
}

// NewSizer creates a Sizer. kellyFraction is clamped to [0, 1].
func NewSizer(bankroll, kellyFraction float64, logger *slog.Logger) *Sizer {
	if kellyFraction < 0 {
		kellyFraction = 0
	}
	if kellyFraction > 1 {
		kellyFraction = 1
	}
	return &Sizer{
		bankroll:      bankroll,
		kellyFraction: kellyFraction,
		logger:        logger.With(slog.String("component", "sizer")),
	}
}

// EqualProfitStakes splits capital across two legs with decimal odds o1
// and o2 so the profit is identical whichever side wins:
//
//	stake1 = capital * o2 / (o1 + o2)
//	stake2 = capital * o1 / (o1 + o2)
//
// The guaranteed profit is stake1*o1 - capital (== stake2*o2 - capital).
func EqualProfitStakes(o1, o2, capital float64) (stake1, stake2, profit float64) {
	if o1 <= 1.0 || o2 <= 1.0 || capital <= 0 {
		return 0, 0, 0
	}
	stake1 = capital * o2 / (o1 + o2)
	stake2 = capital * o1 / (o1 + o2)
	profit = stake1*o1 - capital
	return stake1, stake2, profit
}

// Apply returns a copy of the opportunity with stakes filled in.
func (s *Sizer) Apply(opp domain.Opportunity) domain.Opportunity {
	switch o := opp.(type) {
	case domain.Arbitrage:
		stakeA, stakeB, profit := EqualProfitStakes(o.OddsA, o.OddsB, s.bankroll)
		o.Stakes = &domain.StakePlan{
			StakeA:           stakeA,
			StakeB:           stakeB,
			TotalCapital:     s.bankroll,
			GuaranteedProfit: profit,
		}
		s.logger.Debug("sized arbitrage",
			slog.String("market", o.MarketName),
			slog.Float64("stake_a", stakeA),
			slog.Float64("stake_b", stakeB),
			slog.Float64("guaranteed_profit", profit),
		)
		return o
	case domain.ValueEdge:
		o.Stake = s.bankroll * s.kellyFraction
		return o
	default:
		return opp
	}
}
