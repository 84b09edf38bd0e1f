package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotcore/election-system/internal/core/ports"
)

const defaultUpdateInterval = time.Minute

// Reconciler advances stale election statuses for a given instant.
type Reconciler interface {
	Reconcile(ctx context.Context, now time.Time) (ports.ReconcileReport, error)
}

// StatusUpdater runs reconciliation on a fixed period and on demand. Runs may
// overlap; the conditional writes in Reconcile make that safe.
type StatusUpdater struct {
	reconciler Reconciler
	log        zerolog.Logger
	now        func() time.Time
}

func NewStatusUpdater(reconciler Reconciler, log zerolog.Logger) *StatusUpdater {
	return &StatusUpdater{
		reconciler: reconciler,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run reconciles against the current time once.
func (u *StatusUpdater) Run(ctx context.Context) (ports.ReconcileReport, error) {
	report, err := u.reconciler.Reconcile(ctx, u.now())
	if err != nil {
		u.log.Error().Err(err).Msg("status reconciliation failed")
		return report, err
	}
	if report.Advanced > 0 || report.Failed > 0 {
		u.log.Info().
			Int("checked", report.Checked).
			Int("advanced", report.Advanced).
			Int("failed", report.Failed).
			Msg("status reconciliation finished")
	}
	return report, nil
}

// Start runs once immediately and then every interval until ctx is cancelled.
// A failed run is logged and the next tick tries again.
func (u *StatusUpdater) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultUpdateInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		_, _ = u.Run(ctx)
		for {
			select {
			case <-ctx.Done():
				u.log.Info().Msg("status updater stopped")
				return
			case <-ticker.C:
				_, _ = u.Run(ctx)
			}
		}
	}()
}
