package usage

import (
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"sud/internal/providers"
	"sud/internal/services"
	"sud/internal/structures"
	"sud/internal/usage/interfaces"
)

// Ticker drives the timer clock. One cron job advances the counter every
// tick, one persists the state on the save interval, one runs the daily
// history maintenance. All jobs share opsMu so a tick never interleaves
// with a persist.
type Ticker struct {
	config     *structures.Config
	logger     providers.Logger
	service    services.UsageTimerServiceInterface
	maintainer interfaces.MaintainerInterface
	metrics    providers.MetricsProviderInterface
	cron       *gron.Cron
	opsMu      sync.Mutex
}

func (t *Ticker) Init() {
	t.cron = gron.New()
	tickInterval := t.config.Usage.TickInterval
	saveInterval := t.config.Persistence.SaveInterval

	t.cron.AddFunc(gron.Every(tickInterval), func() {
		t.opsMu.Lock()
		defer t.opsMu.Unlock()

		t.service.Tick(time.Now())
	})

	t.cron.AddFunc(gron.Every(saveInterval), func() {
		t.opsMu.Lock()
		defer t.opsMu.Unlock()

		start := time.Now()
		err := t.service.Persist()
		if err != nil {
			t.logger.Errorf(providers.TypeTimer, "Error while persisting state: %s", err)
			return
		}
		t.metrics.ObservePersistenceDuration(time.Since(start))
		t.logger.Infof(providers.TypeTimer, "Persisted state to file %s", t.config.Persistence.FilePath)
	})

	t.cron.AddFunc(gron.Every(24*time.Hour), func() {
		t.opsMu.Lock()
		defer t.opsMu.Unlock()

		t.logger.Infof(providers.TypeTimer, "Running history maintenance...")
		t.maintainer.Maintain(time.Now())
		t.logger.Infof(providers.TypeTimer, "History maintenance done")
	})

	t.cron.Start()
}

func (t *Ticker) Stop() {
	if t.cron != nil {
		t.cron.Stop()
	}
}

// Restore loads the persisted counter, seeds the history baseline with it
// and then credits the offline gap. The baseline must be seeded first so
// the recovered minutes fan out to the history recorder as a delta.
func (t *Ticker) Restore() error {
	err := t.service.LoadState()
	if err != nil {
		return err
	}
	err = t.maintainer.Restore(t.service.GetCurrentMinutes())
	if err != nil {
		return err
	}
	recovered := t.service.RecoverGap(time.Now())
	if recovered > 0 {
		t.logger.Infof(providers.TypeTimer, "Recovered %d minute(s) from the previous session", recovered)
	}
	return nil
}

// Persist commits the open interval, writes the state file and drains the
// history buffers. Called on shutdown.
func (t *Ticker) Persist() error {
	t.opsMu.Lock()
	defer t.opsMu.Unlock()

	t.logger.Infof(providers.TypeTimer, "Persisting usage state to file...")
	start := time.Now()
	err := t.service.Shutdown(time.Now())
	if err != nil {
		t.logger.Errorf(providers.TypeTimer, "Error while persisting state: %s", err)
		return err
	}
	t.metrics.ObservePersistenceDuration(time.Since(start))
	err = t.maintainer.Flush()
	if err != nil {
		t.logger.Errorf(providers.TypeTimer, "Error while flushing history: %s", err)
		return err
	}
	return nil
}

func NewTicker(config *structures.Config, logger providers.Logger, service services.UsageTimerServiceInterface, maintainer interfaces.MaintainerInterface, metrics providers.MetricsProviderInterface) interfaces.TickerInterface {
	return &Ticker{
		config:     config,
		logger:     logger,
		service:    service,
		maintainer: maintainer,
		metrics:    metrics,
	}
}
