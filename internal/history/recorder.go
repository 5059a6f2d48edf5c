package history

import (
	"context"
	"sync"
	"time"

	"sud/internal/models"
	"sud/internal/providers"
	"sud/internal/services"
	"sud/internal/structures"
	"sud/internal/usage/interfaces"
)

// Recorder turns counter changes into per-day history rows. It subscribes
// to the timer and writes the delta between consecutive totals onto
// today's row. The baseline must be seeded with the restored total before
// recovery runs, otherwise the whole restored counter would be credited
// to today.
type Recorder struct {
	conf    *structures.Config
	repo    RepositoryInterface
	archive ArchiveInterface
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	mu       sync.Mutex
	baseline int
	unsub    func()
}

func NewRecorder(conf *structures.Config, service services.UsageTimerServiceInterface, repo RepositoryInterface, archive ArchiveInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) interfaces.MaintainerInterface {
	r := &Recorder{
		conf:    conf,
		repo:    repo,
		archive: archive,
		logger:  logger,
		metrics: metrics,
	}
	r.unsub = service.Subscribe(r.onChange)
	return r
}

// Restore seeds the delta baseline and rebuilds the archive index.
func (r *Recorder) Restore(totalMinutes int) error {
	r.mu.Lock()
	r.baseline = totalMinutes
	r.mu.Unlock()

	if err := r.archive.RestoreIndex(); err != nil {
		return err
	}
	r.updateHistoryGauge()
	return nil
}

// Maintain archives and prunes rows older than the retention window.
// Rows are written to the archive before they are deleted, a failed
// archive write leaves the database untouched.
func (r *Recorder) Maintain(now time.Time) {
	retention := r.conf.History.RetentionDays
	if retention <= 0 {
		return
	}
	cutoff := models.DateKey(now.AddDate(0, 0, -retention))
	ctx := context.Background()

	rows, err := r.repo.Before(ctx, cutoff)
	if err != nil {
		r.logger.Errorf(providers.TypeApp, "Failed to list history before %s: %s", cutoff, err)
		return
	}
	if len(rows) == 0 {
		return
	}
	for _, row := range rows {
		r.archive.Store(row.Date, row.Minutes)
	}
	if err := r.archive.Flush(); err != nil {
		r.logger.Errorf(providers.TypeApp, "Failed to flush archive: %s", err)
		return
	}

	deleted, err := r.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		r.logger.Errorf(providers.TypeApp, "Failed to prune history before %s: %s", cutoff, err)
		return
	}
	r.logger.Infof(providers.TypeApp, "Archived and pruned %d day(s) of history", deleted)
	r.updateHistoryGauge()
}

// Flush drains the archive write buffer.
func (r *Recorder) Flush() error {
	return r.archive.Flush()
}

func (r *Recorder) onChange(total int) {
	r.mu.Lock()
	delta := total - r.baseline
	r.baseline = total
	r.mu.Unlock()

	// A reset drops the total below the baseline, nothing to record then.
	if delta <= 0 {
		return
	}

	date := models.DateKey(time.Now())
	if err := r.repo.AddMinutes(context.Background(), date, delta); err != nil {
		r.logger.Errorf(providers.TypeApp, "Failed to record %d minute(s) for %s: %s", delta, date, err)
		return
	}
	r.updateHistoryGauge()
}

func (r *Recorder) updateHistoryGauge() {
	count, err := r.repo.Count(context.Background())
	if err != nil {
		return
	}
	r.metrics.SetHistoryDays(int(count))
}
