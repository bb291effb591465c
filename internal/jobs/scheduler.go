// Package jobs runs periodic background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	stripewebhooks "explore-aparecida/internal/api/stripewebhook"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	pendingAge   = time.Hour
	pendingBatch = 50
	jobTimeout   = 5 * time.Minute
)

type PendingReconciler interface {
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (stripewebhooks.ReconcileResult, error)
}

type Scheduler struct {
	cronEngine *cron.Cron
	reconciler PendingReconciler
	spec       string
	log        *zap.SugaredLogger
}

func NewScheduler(reconciler PendingReconciler, spec string, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		cronEngine: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		reconciler: reconciler,
		spec:       spec,
		log:        log,
	}
}

// Start registers the jobs and starts the cron goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.spec, s.ReconcilePending); err != nil {
		return fmt.Errorf("add reconcile job %q: %w", s.spec, err)
	}
	s.cronEngine.Start()
	s.log.Infow("Scheduler started", "reconcile", s.spec)
	return nil
}

// ReconcilePending settles checkouts that never produced a webhook.
func (s *Scheduler) ReconcilePending() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	res, err := s.reconciler.ReconcilePending(ctx, pendingAge, pendingBatch)
	if err != nil {
		s.log.Errorw("Pending subscription reconciliation failed", "error", err)
		return
	}
	if res.Checked == 0 {
		s.log.Debug("No stale pending subscriptions")
		return
	}
	s.log.Infow("Reconciled pending subscriptions",
		"checked", res.Checked,
		"activated", res.Activated,
		"expired", res.Expired,
		"failed", res.Failed,
	)
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cronEngine.Stop().Done():
		s.log.Info("Scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out")
	}
}
