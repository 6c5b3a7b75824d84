// Package workers holds the background loops that run alongside the HTTP
// server.
package workers

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/middleware"
)

// SettlementPoller periodically reconciles stale pending settlements against
// the gateway. It is the safety net for lost callbacks and crashed
// initiations.
type SettlementPoller struct {
	settlementSvc portssvc.SettlementSvcFacade
	interval      time.Duration
	logger        *slog.Logger
}

// NewSettlementPoller creates a poller. interval is how often a cycle runs.
func NewSettlementPoller(settlementSvc portssvc.SettlementSvcFacade, interval time.Duration, logger *slog.Logger) *SettlementPoller {
	return &SettlementPoller{
		settlementSvc: settlementSvc,
		interval:      interval,
		logger:        logger.With(slog.String("worker", "settlement_poller")),
	}
}

// Start runs the poll loop until ctx is cancelled. Call it in its own
// goroutine.
func (p *SettlementPoller) Start(ctx context.Context) {
	p.logger.Info("settlement poller started", slog.Duration("interval", p.interval))

	ctx = middleware.ContextWithLogger(ctx, p.logger)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("settlement poller stopped")
			return
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

func (p *SettlementPoller) runCycle(ctx context.Context) {
	// Bound each cycle so a hung gateway cannot stall the loop forever.
	cycleCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	resolved, err := p.settlementSvc.PollPending(cycleCtx)
	if err != nil {
		p.logger.Error("settlement poll cycle failed", slog.String("error", err.Error()))
		return
	}
	if resolved > 0 {
		p.logger.Info("settlement poll cycle resolved settlements", slog.Int("resolved", resolved))
	}
}
