package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator manages the long-running pipeline goroutines: the scan loop
// and the cold-storage history archiver.
type Orchestrator struct {
	cycle           *Cycle
	historyArchiver *HistoryArchiver
	pollingInterval time.Duration
	logger          *slog.Logger
}

// NewOrchestrator creates an Orchestrator. historyArchiver may be nil when
// blob storage is not configured.
func NewOrchestrator(
	cycle *Cycle,
	historyArchiver *HistoryArchiver,
	pollingInterval time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cycle:           cycle,
		historyArchiver: historyArchiver,
		pollingInterval: pollingInterval,
		logger:          logger,
	}
}

// Run starts the sub-pipelines as concurrent goroutines using an errgroup.
// Each goroutine respects ctx cancellation. If any goroutine returns a
// non-context error, the errgroup cancels the shared context and Run
// returns that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline orchestrator starting",
		slog.Duration("polling_interval", o.pollingInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		o.logger.Info("starting scan loop")
		err := o.runScanLoop(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("scan loop: %w", err)
	})

	if o.historyArchiver != nil {
		g.Go(func() error {
			o.logger.Info("starting history archiver cron")
			err := o.historyArchiver.RunCron(ctx)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("history archiver: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("pipeline orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline orchestrator stopped cleanly")
	return nil
}

// runScanLoop runs one cycle immediately, then on every tick. A failed or
// panicking cycle is logged and the loop continues on the next tick. Cycles
// run on a detached context and the stop signal is only checked between
// cycles, so an in-flight hedge is never cancelled between its two legs.
func (o *Orchestrator) runScanLoop(ctx context.Context) error {
	cycleCtx := context.WithoutCancel(ctx)

	o.runCycle(cycleCtx)

	ticker := time.NewTicker(o.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			o.runCycle(cycleCtx)
		}
	}
}

func (o *Orchestrator) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("scan cycle panicked", slog.Any("panic", r))
		}
	}()

	if _, err := o.cycle.RunOnce(ctx); err != nil {
		o.logger.Error("scan cycle failed", slog.String("error", err.Error()))
	}
}
