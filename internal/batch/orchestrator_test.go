package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelintel/pricewatcher/config"
	"hotelintel/pricewatcher/internal/scrape"
	"hotelintel/pricewatcher/internal/store"
)

// fakeScraper returns scripted results per URL.
type fakeScraper struct {
	mu      sync.Mutex
	failing map[string]string
	perItem time.Duration
	calls   []string
}

func (f *fakeScraper) ScrapeHotel(ctx context.Context, url string) scrape.ScrapeResult {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.perItem > 0 {
		time.Sleep(f.perItem)
	}
	if message, ok := f.failing[url]; ok {
		return scrape.ScrapeResult{URL: url, Error: message}
	}
	return scrape.ScrapeResult{
		URL:     url,
		Success: true,
		Hotel:   &store.Hotel{Name: "Hotel " + url, URL: url},
		Observations: []store.Observation{
			{Date: "2026-09-01", Price: 100, Currency: "EUR", Available: true},
		},
	}
}

func testConfig() config.Config {
	cfg := config.LoadConfig()
	cfg.BatchDelay = 0
	return cfg
}

func TestBatchIsolation(t *testing.T) {
	urls := []string{"https://a", "https://b", "https://c"}
	scraper := &fakeScraper{failing: map[string]string{
		"https://b": "navigation failed: timed out after 30s",
	}}
	orchestrator := NewOrchestrator(scraper, nil, testConfig())

	summary := orchestrator.Scrape(context.Background(), urls)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 3)

	// Completion order matches submission order
	assert.Equal(t, urls, scraper.calls)

	assert.True(t, summary.Results[0].Success)
	assert.NotNil(t, summary.Results[0].Hotel)
	assert.False(t, summary.Results[1].Success)
	assert.Contains(t, summary.Results[1].Error, "timed out")
	assert.True(t, summary.Results[2].Success)
}

func TestProgressMonotonicity(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	var ids []int64
	for _, url := range []string{"https://a", "https://b", "https://c"} {
		hotel := &store.Hotel{Name: "Hotel", URL: url}
		require.NoError(t, memStore.UpsertHotel(ctx, hotel))
		ids = append(ids, hotel.ID)
	}

	scraper := &fakeScraper{perItem: 10 * time.Millisecond}
	orchestrator := NewOrchestrator(scraper, memStore, testConfig())

	runID := orchestrator.ScrapeAsync(ctx, ids)

	lastCompleted := 0
	deadline := time.Now().Add(5 * time.Second)
	for {
		run := orchestrator.Progress(runID)
		require.NotNil(t, run)
		assert.GreaterOrEqual(t, run.Completed, lastCompleted)
		assert.LessOrEqual(t, run.Completed, run.Total)
		lastCompleted = run.Completed
		if run.Done {
			break
		}
		require.True(t, time.Now().Before(deadline), "run did not finish in time")
		time.Sleep(2 * time.Millisecond)
	}

	summary := orchestrator.Summary(runID)
	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)

	// The progress record is evicted once the summary has been retrieved
	assert.Nil(t, orchestrator.Progress(runID))
	assert.Nil(t, orchestrator.Summary(runID))
}

func TestResolutionFailure(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	hotel := &store.Hotel{Name: "Known", URL: "https://known"}
	require.NoError(t, memStore.UpsertHotel(ctx, hotel))

	scraper := &fakeScraper{}
	orchestrator := NewOrchestrator(scraper, memStore, testConfig())

	runID := orchestrator.ScrapeAsync(ctx, []int64{hotel.ID, 999})

	var summary *Summary
	deadline := time.Now().Add(5 * time.Second)
	for summary == nil {
		require.True(t, time.Now().Before(deadline))
		time.Sleep(2 * time.Millisecond)
		summary = orchestrator.Summary(runID)
	}

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Results[1].Error, "not found")

	// The unknown hotel was never visited
	assert.Equal(t, []string{"https://known"}, scraper.calls)
}

func TestBatchDelayNotBeforeFirstItem(t *testing.T) {
	cfg := testConfig()
	cfg.BatchDelay = 50 * time.Millisecond
	scraper := &fakeScraper{}
	orchestrator := NewOrchestrator(scraper, nil, cfg)

	start := time.Now()
	summary := orchestrator.Scrape(context.Background(), []string{"https://a"})
	elapsed := time.Since(start)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Less(t, elapsed, 40*time.Millisecond)
}

func TestRunStoreTTLSweep(t *testing.T) {
	runs := NewRunStore(10 * time.Millisecond)
	id := runs.Create(1)
	runs.Complete(id, scrape.ScrapeResult{URL: "https://a", Success: true})
	runs.Finish(id)

	require.NotNil(t, runs.Get(id))
	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, runs.Get(id))
}
