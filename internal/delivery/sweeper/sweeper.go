// Package sweeper runs the periodic purge of expired and consumed reset tokens.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"credvault/config"
	"credvault/internal/delivery"
	"credvault/internal/usecase"

	"go.uber.org/fx"
)

// sweeper is a background delivery that calls the recovery cleanup on a ticker.
// The purge is idempotent, so overlapping with an on-demand cleanup is harmless.
type sweeper struct {
	recovery usecase.RecoveryUsecase
	interval time.Duration
	logger   *slog.Logger
}

// Params holds dependencies for the sweeper, injected by Fx.
type Params struct {
	fx.In

	Recovery usecase.RecoveryUsecase
	Config   *config.Config
	Logger   *slog.Logger
}

// New creates the token sweeper delivery.
func New(params Params) delivery.Delivery {
	return &sweeper{
		recovery: params.Recovery,
		interval: params.Config.Reset.SweepInterval,
		logger:   params.Logger,
	}
}

// Serve runs the sweep loop until the context is cancelled.
func (s *sweeper) Serve(ctx context.Context) error {
	s.logger.Info("Starting reset token sweeper", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping reset token sweeper")

			return nil
		case <-ticker.C:
			deleted, err := s.recovery.Cleanup(ctx)
			if err != nil {
				s.logger.Error("Reset token sweep failed", slog.Any("error", err))

				continue
			}

			s.logger.Debug("Reset token sweep completed", slog.Int64("deleted", deleted))
		}
	}
}
