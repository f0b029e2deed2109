package ingestion

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reaper periodically recovers jobs stuck in a non-terminal, non-queued
// status back to queued (a crashed worker leaves a
// job claimed forever without one).
type Reaper struct {
	store     *Store
	threshold time.Duration
	log       *zap.Logger
	cron      *cron.Cron
}

// NewReaper builds a Reaper that recovers jobs stuck for longer than
// threshold. The cron schedule is supplied to Start.
func NewReaper(store *Store, threshold time.Duration, log *zap.Logger) *Reaper {
	return &Reaper{
		store:     store,
		threshold: threshold,
		log:       log,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Start schedules the recovery sweep and begins running it in the
// background. schedule is a standard robfig/cron expression with seconds.
func (r *Reaper) Start(schedule string) error {
	_, err := r.cron.AddFunc(schedule, r.sweep)
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop blocks until any in-flight sweep completes.
func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Reaper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recovered, err := r.store.RecoverStaleJobs(ctx, r.threshold)
	if err != nil {
		r.log.Error("stale claim sweep failed", zap.Error(err))
		return
	}
	if recovered > 0 {
		r.log.Info("recovered stale jobs", zap.Int("count", recovered))
	}
}
