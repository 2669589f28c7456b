package domain

import (
	"context"
	"time"
)

// ExchangeSource fetches the current sports markets from the exchange
// venue. Empty results mean "no data this cycle", not an error.
type ExchangeSource interface {
	FetchMarkets(ctx context.Context) ([]RawExchangeMarket, error)
	Close() error
}

// SportsbookSource fetches the current priced selections from the
// sportsbook venue. Empty results mean "no data this cycle", not an error.
type SportsbookSource interface {
	FetchOutcomes(ctx context.Context) ([]RawSportOutcome, error)
	Close() error
}

// OrderSide is the direction of an exchange order.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// BetResult reports a placed leg.
type BetResult struct {
	OrderID     string
	Venue       Venue
	Stake       float64
	Odds        float64
	AcceptedAt  time.Time
	ReferenceID string
}

// ExchangeExecutor places the exchange leg of a hedge.
type ExchangeExecutor interface {
	PlaceOrder(ctx context.Context, tokenID string, side OrderSide, price, size float64) (BetResult, error)
}

// SportsbookExecutor places the sportsbook leg of a hedge.
type SportsbookExecutor interface {
	PlaceBet(ctx context.Context, eventID, marketURL, selectionID string, stake, odds float64) (BetResult, error)
}

// CooldownCache rate-limits repeated alerts for the same opportunity hash.
type CooldownCache interface {
	// Acquire returns true when no cooldown is active for the key, and
	// arms one for the given duration.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// SnapshotCache stores the latest fetched venue snapshots so a cycle can
// fall back to recent data when one venue errors.
type SnapshotCache interface {
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// BlobWriter archives raw venue payloads for later inspection.
type BlobWriter interface {
	Write(ctx context.Context, key string, payload []byte) error
}

// Notifier delivers opportunity and operational alerts.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
	// Critical delivers alerts that must bypass quiet hours, such as
	// unhedged exposure after a partial execution.
	Critical(ctx context.Context, subject, body string) error
}

// Clock abstracts time for components with date-sensitive state.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
