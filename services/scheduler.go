package services

import (
	"context"
	"errors"
	"fmt"

	"HibernateBot/logger"

	"github.com/robfig/cron/v3"
)

// PassScheduler triggers the automatic reconciliation pass on a cron
// schedule. A manual pass already in flight when the schedule fires makes
// the scheduled run a no-op; the next tick picks up where it left off.
type PassScheduler struct {
	reconciler *Reconciler
	schedule   string
	cron       *cron.Cron
}

func NewPassScheduler(reconciler *Reconciler, schedule string) *PassScheduler {
	return &PassScheduler{
		reconciler: reconciler,
		schedule:   schedule,
		cron:       cron.New(),
	}
}

func (p *PassScheduler) Start() error {
	if _, err := cron.ParseStandard(p.schedule); err != nil {
		return fmt.Errorf("invalid pass schedule %q: %w", p.schedule, err)
	}

	if _, err := p.cron.AddFunc(p.schedule, p.runScheduledPass); err != nil {
		return fmt.Errorf("failed to schedule reconciliation pass: %w", err)
	}

	p.cron.Start()
	logger.Log.Infof("Pass scheduler started (schedule %q)", p.schedule)
	return nil
}

func (p *PassScheduler) runScheduledPass() {
	result, err := p.reconciler.RunPass(context.Background(), false)
	if err != nil {
		if errors.Is(err, ErrPassInProgress) {
			logger.Log.Warn("Scheduled pass skipped, another pass is running")
			return
		}
		logger.Log.WithError(err).Error("Scheduled reconciliation pass failed")
		return
	}
	logger.Log.Infof("Scheduled pass finished: examined=%d updated=%d granted=%d errors=%d",
		result.Examined, result.Updated, result.Granted, result.Errors)
}

// Stop halts the scheduler and waits for a running scheduled pass to
// finish.
func (p *PassScheduler) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
	logger.Log.Info("Pass scheduler stopped")
}
