// Package retention prunes capacity-adjustment audit entries that have aged
// past the compliance window. Override expiry is deliberately not handled
// here: overrides expire lazily on read.
package retention

import (
	"context"
	"time"

	"greenpass-service/internal/capacity"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner deletes adjustment entries older than the retention window on a
// daily schedule.
type Pruner struct {
	adjustments capacity.AdjustmentRepository
	retention   time.Duration
	log         *zap.Logger
	cron        *cron.Cron
}

func NewPruner(adjustments capacity.AdjustmentRepository, retention time.Duration, log *zap.Logger) *Pruner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pruner{
		adjustments: adjustments,
		retention:   retention,
		log:         log,
		cron:        cron.New(),
	}
}

// Start schedules the daily prune run. It returns immediately; the cron
// scheduler runs in its own goroutine until Stop is called.
func (p *Pruner) Start() error {
	_, err := p.cron.AddFunc("@daily", p.RunOnce)
	if err != nil {
		return err
	}
	p.cron.Start()
	p.log.Info("adjustment retention pruner started",
		zap.Duration("retention", p.retention))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (p *Pruner) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// RunOnce executes a single prune pass.
func (p *Pruner) RunOnce() {
	cutoff := time.Now().Add(-p.retention)
	removed, err := p.adjustments.PruneBefore(context.Background(), cutoff)
	if err != nil {
		p.log.Error("adjustment prune failed", zap.Error(err))
		return
	}
	if removed > 0 {
		p.log.Info("adjustment entries pruned",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff))
	}
}
