package autobet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// Result is the terminal state of one opportunity passing through the
// engine.
type Result string

const (
	// ResultRejected means an admission gate failed; nothing was placed or
	// marked.
	ResultRejected Result = "rejected"
	// ResultSimulated means real execution is disabled; the opportunity
	// was marked taken on approval alone.
	ResultSimulated Result = "simulated"
	// ResultAborted means the sportsbook leg failed; no position was
	// opened and nothing was marked.
	ResultAborted Result = "aborted"
	// ResultUnhedged means the sportsbook leg filled but the exchange leg
	// failed; capital is committed on one side only.
	ResultUnhedged Result = "unhedged"
	// ResultRecorded means both legs filled and the store was updated.
	ResultRecorded Result = "recorded"
)

// Config holds the autobet risk parameters.
type Config struct {
	Enabled       bool
	RealExecution bool

	// MinProfitThreshold is the minimum arbitrage profit percentage.
	MinProfitThreshold float64
	// MaxBetsPerDay caps daily executions; 0 disables the cap.
	MaxBetsPerDay int
	// DailyLossLimit stops execution once the day's accrued loss reaches
	// it; 0 disables the cap.
	DailyLossLimit float64
	// Bankroll and MaxStakeFraction bound the capital per hedge.
	Bankroll         float64
	MaxStakeFraction float64
}

// Engine places hedge bets for approved arbitrage opportunities. The
// sportsbook leg always goes first: sportsbook prices move faster than
// exchange prices, so confirming the volatile leg first minimizes the
// one-sided exposure window.
type Engine struct {
	cfg        Config
	store      domain.OpportunityStore
	exchange   domain.ExchangeExecutor
	sportsbook domain.SportsbookExecutor
	notifier   domain.Notifier
	risk       *RiskState
	logger     *slog.Logger
}

// NewEngine creates an autobet Engine.
func NewEngine(
	cfg Config,
	store domain.OpportunityStore,
	exchange domain.ExchangeExecutor,
	sportsbook domain.SportsbookExecutor,
	notifier domain.Notifier,
	risk *RiskState,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		cfg:        cfg,
		store:      store,
		exchange:   exchange,
		sportsbook: sportsbook,
		notifier:   notifier,
		risk:       risk,
		logger:     logger.With(slog.String("component", "autobet")),
	}
}

// approve runs the admission gates in order and returns the first failure
// reason, or empty when all pass.
func (e *Engine) approve(opp domain.Opportunity) string {
	if !e.cfg.Enabled {
		return "autobet disabled"
	}

	profit := 0.0
	arb, isArb := opp.(domain.Arbitrage)
	if isArb {
		profit = arb.ProfitPct
	}
	if profit < e.cfg.MinProfitThreshold {
		return fmt.Sprintf("profit %.2f%% below threshold %.2f%%", profit, e.cfg.MinProfitThreshold)
	}
	if !isArb {
		// Value edges carry no guaranteed profit and are never executed.
		return "not an arbitrage opportunity"
	}
	if e.cfg.MaxBetsPerDay > 0 && e.risk.BetsToday() >= e.cfg.MaxBetsPerDay {
		return fmt.Sprintf("max bets per day reached (%d)", e.cfg.MaxBetsPerDay)
	}
	if e.cfg.DailyLossLimit > 0 && e.risk.LossToday() <= -e.cfg.DailyLossLimit {
		return fmt.Sprintf("daily loss limit reached (%.2f)", e.cfg.DailyLossLimit)
	}
	return ""
}

// capStakes scales both legs and the expected profit down proportionally
// when the total required capital exceeds the per-bet bankroll cap. Must
// run before any execution attempt.
func (e *Engine) capStakes(arb *domain.Arbitrage) {
	if arb.Stakes == nil {
		return
	}
	maxStake := e.cfg.Bankroll * e.cfg.MaxStakeFraction
	if maxStake <= 0 || arb.Stakes.TotalCapital <= maxStake {
		return
	}
	scale := maxStake / arb.Stakes.TotalCapital
	e.logger.Info("scaling stake to bankroll cap",
		slog.Float64("total", arb.Stakes.TotalCapital),
		slog.Float64("max_stake", maxStake),
		slog.Float64("scale", scale),
	)
	arb.Stakes.StakeA *= scale
	arb.Stakes.StakeB *= scale
	arb.Stakes.GuaranteedProfit *= scale
	arb.Stakes.TotalCapital = maxStake
}

// Process runs one opportunity through the admission gates and, when
// approved, through the hedge sequence. Leg failures are not retried
// within a cycle; a retried partial hedge risks double execution.
func (e *Engine) Process(ctx context.Context, opp domain.Opportunity, recordID int64) (Result, error) {
	if reason := e.approve(opp); reason != "" {
		e.logger.Debug("opportunity rejected",
			slog.String("market", opp.Key().MarketName),
			slog.String("reason", reason),
		)
		return ResultRejected, nil
	}

	arb := opp.(domain.Arbitrage)
	e.capStakes(&arb)
	profit := 0.0
	if arb.Stakes != nil {
		profit = arb.Stakes.GuaranteedProfit
	}

	if !e.cfg.RealExecution {
		if err := e.store.MarkBetPlaced(ctx, recordID, profit); err != nil {
			return ResultSimulated, fmt.Errorf("autobet: mark simulated bet: %w", err)
		}
		e.risk.RecordBet(profit)
		e.logger.Info("autobet taken (simulation)",
			slog.String("market", arb.MarketName),
			slog.Float64("total_capital", totalCapital(arb)),
			slog.Float64("pnl", profit),
		)
		return ResultSimulated, nil
	}

	return e.executeHedge(ctx, arb, recordID, profit)
}

func (e *Engine) executeHedge(ctx context.Context, arb domain.Arbitrage, recordID int64, profit float64) (Result, error) {
	if arb.Stakes == nil {
		return ResultAborted, fmt.Errorf("autobet: opportunity %s has no stake plan", arb.ID)
	}
	if arb.SportsbookEventID == "" || arb.SportsbookSelectionID == "" {
		e.logger.Warn("aborting hedge: missing sportsbook identifiers",
			slog.String("market", arb.MarketName),
		)
		return ResultAborted, nil
	}

	// Leg B: the sportsbook side.
	legB, err := e.sportsbook.PlaceBet(ctx,
		arb.SportsbookEventID, arb.SportsbookMarketURL, arb.SportsbookSelectionID,
		arb.Stakes.StakeB, arb.OddsB,
	)
	if err != nil {
		// Hard abort: the exchange leg must not be opened unhedged.
		e.logger.Warn("sportsbook leg failed, hedge aborted",
			slog.String("market", arb.MarketName),
			slog.String("error", err.Error()),
		)
		return ResultAborted, nil
	}
	e.logger.Info("sportsbook leg placed",
		slog.String("market", arb.MarketName),
		slog.String("order_id", legB.OrderID),
		slog.Float64("stake", arb.Stakes.StakeB),
		slog.Float64("odds", arb.OddsB),
	)

	// Leg A: the exchange side, priced as an implied probability.
	price := 1.0 / arb.OddsA
	legA, err := e.exchange.PlaceOrder(ctx, arb.ExchangeTokenID, domain.SideBuy, price, arb.Stakes.StakeA)
	if err != nil {
		e.logger.Error("exchange leg failed after sportsbook fill, position is unhedged",
			slog.String("market", arb.MarketName),
			slog.String("sportsbook_order", legB.OrderID),
			slog.String("error", err.Error()),
		)
		if e.notifier != nil {
			body := fmt.Sprintf(
				"Exchange leg failed after the sportsbook leg filled.\nMarket: %s\nSportsbook order: %s (stake %.2f @ %.2f)\nError: %v\nManual hedge required.",
				arb.MarketName, legB.OrderID, arb.Stakes.StakeB, arb.OddsB, err,
			)
			if nerr := e.notifier.Critical(ctx, "UNHEDGED EXPOSURE", body); nerr != nil {
				e.logger.Error("critical alert delivery failed", slog.String("error", nerr.Error()))
			}
		}
		// Capital is genuinely committed on the sportsbook side, so the
		// opportunity is still marked taken for bookkeeping.
		if merr := e.store.MarkBetPlaced(ctx, recordID, profit); merr != nil {
			e.logger.Error("mark after unhedged fill failed", slog.String("error", merr.Error()))
		}
		e.risk.RecordBet(profit)
		return ResultUnhedged, nil
	}

	if err := e.store.MarkBetPlaced(ctx, recordID, profit); err != nil {
		return ResultRecorded, fmt.Errorf("autobet: mark bet placed: %w", err)
	}
	e.risk.RecordBet(profit)
	e.logger.Info("hedge recorded",
		slog.String("market", arb.MarketName),
		slog.String("exchange_order", legA.OrderID),
		slog.String("sportsbook_order", legB.OrderID),
		slog.Float64("guaranteed_profit", profit),
	)
	return ResultRecorded, nil
}

func totalCapital(arb domain.Arbitrage) float64 {
	if arb.Stakes == nil {
		return 0
	}
	return arb.Stakes.TotalCapital
}
