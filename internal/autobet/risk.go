package autobet

import (
	"sync"
	"time"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// RiskState tracks per-day execution counters. Counters reset when the
// clock's local date rolls over; the mutex guards against the state being
// read while a rollover is in progress.
type RiskState struct {
	clock domain.Clock

	mu        sync.Mutex
	day       string
	betsToday int
	lossToday float64
}

// NewRiskState creates a RiskState anchored to the given clock.
func NewRiskState(clock domain.Clock) *RiskState {
	if clock == nil {
		clock = domain.ClockFunc(time.Now)
	}
	return &RiskState{
		clock: clock,
		day:   clock.Now().Format(time.DateOnly),
	}
}

func (r *RiskState) rolloverLocked() {
	today := r.clock.Now().Format(time.DateOnly)
	if today != r.day {
		r.day = today
		r.betsToday = 0
		r.lossToday = 0
	}
}

// BetsToday returns the number of bets recorded for the current date.
func (r *RiskState) BetsToday() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolloverLocked()
	return r.betsToday
}

// LossToday returns the loss bucket for the current date. Only negative
// realized results accrue; a zero or positive day reads 0.
func (r *RiskState) LossToday() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolloverLocked()
	return r.lossToday
}

// RecordBet counts a placed bet and accrues its realized result into the
// loss bucket when negative.
func (r *RiskState) RecordBet(realizedPnL float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolloverLocked()
	r.betsToday++
	if realizedPnL < 0 {
		r.lossToday += realizedPnL
	}
}
