package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelintel/pricewatcher/config"
	"hotelintel/pricewatcher/internal/batch"
	"hotelintel/pricewatcher/internal/browser"
	"hotelintel/pricewatcher/internal/scrape"
	"hotelintel/pricewatcher/internal/store"
)

const testHotelPage = `<!DOCTYPE html>
<html>
<head>
	<script>var booking = {"b_hotel_name": 'Hotel Am Markt', "env": "prod"};</script>
</head>
<body>
	<h2 data-testid="title">wrong name</h2>
	<div data-testid="address">Marktplatz 2, 80331 Munich</div>
	<div data-testid="rating-stars"><span></span><span></span><span></span></div>
	<span data-testid="price-and-discounted-price">€ 149</span>
	<span data-testid="price-and-discounted-price">€ 189</span>
</body>
</html>`

// End-to-end over the static backend: fetch, extract, persist, repeat.
func TestScrapePipelineIntegration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(testHotelPage))
	}))
	defer server.Close()

	cfg := config.LoadConfig()
	cfg.Backend = config.BackendStatic
	cfg.SettleWait = 0
	cfg.BatchDelay = 0

	memStore := store.NewMemoryStore()
	service := scrape.NewService(browser.NewStaticLauncher(), memStore, nil, nil, cfg)

	ctx := context.Background()
	result := service.ScrapeHotel(ctx, server.URL)
	require.True(t, result.Success, result.Error)
	require.NotNil(t, result.Hotel)

	// The structured-data tier wins over the title selector
	assert.Equal(t, "Hotel Am Markt", result.Hotel.Name)
	assert.Equal(t, "Marktplatz 2, 80331 Munich", result.Hotel.Address)
	assert.Equal(t, "Munich", result.Hotel.City)
	assert.Equal(t, 3, result.Hotel.StarRating)

	// The static backend captures nothing, so both visible prices come in
	// page-sourced
	assert.Equal(t, 2, result.Inserted)
	for _, obs := range result.Observations {
		assert.Equal(t, store.SourcePage, obs.Source)
	}

	// A repeat scrape of unchanged prices inserts zero rows
	repeat := service.ScrapeHotel(ctx, server.URL)
	require.True(t, repeat.Success, repeat.Error)
	assert.Equal(t, 0, repeat.Inserted)
	assert.Equal(t, result.Hotel.ID, repeat.Hotel.ID)

	latest, err := memStore.LatestPrice(ctx, result.Hotel.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, latest)
}

func TestBatchPipelineIntegration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(testHotelPage))
	}))
	defer server.Close()

	cfg := config.LoadConfig()
	cfg.Backend = config.BackendStatic
	cfg.SettleWait = 0
	cfg.BatchDelay = 0

	memStore := store.NewMemoryStore()
	service := scrape.NewService(browser.NewStaticLauncher(), memStore, nil, nil, cfg)
	orchestrator := batch.NewOrchestrator(service, memStore, cfg)

	summary := orchestrator.Scrape(context.Background(), []string{
		server.URL + "/one",
		server.URL + "/two",
	})

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)

	hotels, err := memStore.Hotels(context.Background())
	require.NoError(t, err)
	assert.Len(t, hotels, 2)
}
