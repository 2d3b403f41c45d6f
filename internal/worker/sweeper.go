// Package worker runs the background sweep over tracking records whose
// result callback never arrived.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

const staleRequestError = "result callback not received before deadline"

// StaleSweeper marks integration requests still Pending past the
// configured age as Failed. Updates stay last-write-wins, so a result
// the provider delivers late still overwrites the sweep verdict. Nothing
// is resubmitted.
type StaleSweeper struct {
	requests   application.RequestStore
	interval   time.Duration
	pendingAge time.Duration
	batchSize  int
	logger     *slog.Logger
}

func NewStaleSweeper(
	requests application.RequestStore,
	interval time.Duration,
	pendingAge time.Duration,
	batchSize int,
	logger *slog.Logger,
) *StaleSweeper {
	return &StaleSweeper{
		requests:   requests,
		interval:   interval,
		pendingAge: pendingAge,
		batchSize:  batchSize,
		logger:     logger,
	}
}

func (s *StaleSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("starting stale request sweeper",
		"interval", s.interval,
		"pending_age", s.pendingAge,
		"batch_size", s.batchSize,
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping stale request sweeper")
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

// RunOnce executes a single sweep cycle.
func (s *StaleSweeper) RunOnce(ctx context.Context) {
	s.run(ctx)
}

func (s *StaleSweeper) run(ctx context.Context) {
	cutoff := time.Now().Add(-s.pendingAge)

	stale, err := s.requests.FindStalePending(ctx, cutoff, s.batchSize)
	if err != nil {
		s.logger.Error("failed to fetch stale pending requests", "error", err)
		return
	}

	if len(stale) == 0 {
		return
	}

	s.logger.Info("sweeping stale pending requests", "count", len(stale))

	for _, req := range stale {
		err := s.requests.UpdateResult(ctx, req.ID, domain.StatusFailed, "", staleRequestError)
		if err != nil {
			s.logger.Error("failed to mark stale request failed", "id", req.ID, "error", err)
			continue
		}

		s.logger.Warn("marked stale request failed",
			"id", req.ID,
			"submitted_at", req.CreatedAt,
		)
	}
}
