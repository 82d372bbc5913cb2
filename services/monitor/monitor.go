package monitor

import (
	"context"
	"time"

	"hotelintel/pricewatcher/internal/batch"
	"hotelintel/pricewatcher/internal/store"
	"hotelintel/pricewatcher/logger"
	"hotelintel/pricewatcher/services/publisher"
)

// Monitor periodically re-scrapes every tracked hotel as one batch.
type Monitor struct {
	orchestrator *batch.Orchestrator
	store        store.PriceStore
	publisher    publisher.Publisher
	interval     time.Duration
}

// NewMonitor creates a monitor over the given orchestrator and store.
func NewMonitor(orch *batch.Orchestrator, st store.PriceStore, pub publisher.Publisher, interval time.Duration) *Monitor {
	return &Monitor{
		orchestrator: orch,
		store:        st,
		publisher:    pub,
		interval:     interval,
	}
}

// Start runs monitoring rounds until the context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	log := logger.ForMonitor()
	for {
		start := time.Now()
		m.runRound(ctx)
		log.Info().Dur("elapsed", time.Since(start)).Msg("Monitoring round finished")

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.interval):
		}
	}
}

// runRound scrapes all tracked hotels sequentially through the orchestrator.
func (m *Monitor) runRound(ctx context.Context) {
	log := logger.ForMonitor()

	hotels, err := m.store.Hotels(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list hotels")
		return
	}
	if len(hotels) == 0 {
		log.Info().Msg("No hotels to monitor")
		return
	}

	urls := make([]string, len(hotels))
	for i, hotel := range hotels {
		urls[i] = hotel.URL
	}

	summary := m.orchestrator.Scrape(ctx, urls)
	log.Info().
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("Round summary")

	// Keep the price-change streams bounded
	if m.publisher != nil {
		if err := m.publisher.TrimStreams(); err != nil {
			log.Error().Err(err).Msg("Failed to trim streams")
		}
	}
}
