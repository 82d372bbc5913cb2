package batch

import (
	"context"
	"fmt"
	"time"

	"hotelintel/pricewatcher/config"
	"hotelintel/pricewatcher/internal/scrape"
	"hotelintel/pricewatcher/internal/store"
	"hotelintel/pricewatcher/logger"
)

// Scraper performs one end-to-end hotel scrape.
type Scraper interface {
	ScrapeHotel(ctx context.Context, url string) scrape.ScrapeResult
}

// Summary is the final accounting of a batch run. Succeeded and Failed
// always sum to Total.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []scrape.ScrapeResult
}

// item is one batch entry after resolution. resolveErr carries a resolution
// failure that should be recorded without visiting anything.
type item struct {
	label      string
	url        string
	resolveErr error
}

// Orchestrator sequences hotel visits: strictly one at a time, a fixed delay
// between completions, one item's failure never aborting the batch.
type Orchestrator struct {
	scraper Scraper
	store   store.PriceStore
	delay   time.Duration
	runs    *RunStore
}

// NewOrchestrator creates an orchestrator over the given scraper. The store
// is only used to resolve hotel IDs for async runs and may be nil when only
// URL batches are submitted.
func NewOrchestrator(scraper Scraper, st store.PriceStore, cfg config.Config) *Orchestrator {
	return &Orchestrator{
		scraper: scraper,
		store:   st,
		delay:   cfg.BatchDelay,
		runs:    NewRunStore(cfg.RunTTL),
	}
}

// Scrape runs a URL batch synchronously and returns the full summary.
func (o *Orchestrator) Scrape(ctx context.Context, urls []string) Summary {
	items := make([]item, len(urls))
	for i, url := range urls {
		items[i] = item{label: url, url: url}
	}

	runID := o.runs.Create(len(items))
	o.process(ctx, runID, items)
	return summarize(o.runs.Take(runID))
}

// ScrapeAsync starts a hotel-ID batch in the background and returns the run
// ID for progress polling.
func (o *Orchestrator) ScrapeAsync(ctx context.Context, hotelIDs []int64) string {
	items := make([]item, len(hotelIDs))
	for i, id := range hotelIDs {
		items[i] = o.resolve(ctx, id)
	}

	runID := o.runs.Create(len(items))
	go o.process(ctx, runID, items)
	return runID
}

// Progress returns a snapshot of the run, or nil when the run is unknown or
// already evicted.
func (o *Orchestrator) Progress(runID string) *Run {
	return o.runs.Get(runID)
}

// Summary returns the final accounting of a finished run and evicts its
// progress record. It returns nil while the run is still going or unknown.
func (o *Orchestrator) Summary(runID string) *Summary {
	run := o.runs.Take(runID)
	if run == nil || !run.Done {
		return nil
	}
	s := summarize(run)
	return &s
}

// resolve maps a hotel ID to its canonical URL.
func (o *Orchestrator) resolve(ctx context.Context, id int64) item {
	label := fmt.Sprintf("hotel:%d", id)
	if o.store == nil {
		return item{label: label, resolveErr: fmt.Errorf("hotel %d not found: no store configured", id)}
	}
	hotel, err := o.store.HotelByID(ctx, id)
	if err != nil {
		return item{label: label, resolveErr: err}
	}
	if hotel == nil {
		return item{label: label, resolveErr: fmt.Errorf("hotel %d not found", id)}
	}
	return item{label: label, url: hotel.URL}
}

func (o *Orchestrator) process(ctx context.Context, runID string, items []item) {
	log := logger.ForBatch(runID)
	log.Info().Int("total", len(items)).Msg("Batch started")

	for i, it := range items {
		// Delay between completions, never before the first item
		if i > 0 {
			o.wait(ctx)
		}
		o.runs.SetCurrent(runID, it.label)

		var result scrape.ScrapeResult
		if it.resolveErr != nil {
			result = scrape.ScrapeResult{URL: it.label, Error: it.resolveErr.Error()}
			log.Warn().Str("item", it.label).Err(it.resolveErr).Msg("Resolution failed")
		} else {
			result = o.scraper.ScrapeHotel(ctx, it.url)
			if !result.Success {
				log.Warn().Str("item", it.label).Str("error", result.Error).Msg("Item failed")
			}
		}
		o.runs.Complete(runID, result)
	}

	o.runs.Finish(runID)
	log.Info().Msg("Batch finished")
}

func (o *Orchestrator) wait(ctx context.Context) {
	if o.delay <= 0 {
		return
	}
	timer := time.NewTimer(o.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func summarize(run *Run) Summary {
	s := Summary{Total: run.Total, Results: run.Results}
	for _, result := range run.Results {
		if result.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
