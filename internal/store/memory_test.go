package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertHotelByURL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	hotel := &Hotel{Name: "Grand Hotel", URL: "https://example.com/hotel/de/grand.html", City: "Berlin"}
	require.NoError(t, s.UpsertHotel(ctx, hotel))
	assert.Equal(t, int64(1), hotel.ID)

	// Same URL updates in place, keeps the ID
	updated := &Hotel{Name: "Grand Hotel Berlin", URL: hotel.URL, City: "Berlin"}
	require.NoError(t, s.UpsertHotel(ctx, updated))
	assert.Equal(t, hotel.ID, updated.ID)

	loaded, err := s.HotelByID(ctx, hotel.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Grand Hotel Berlin", loaded.Name)

	hotels, err := s.Hotels(ctx)
	require.NoError(t, err)
	assert.Len(t, hotels, 1)
}

func TestHotelByIDUnknown(t *testing.T) {
	s := NewMemoryStore()
	hotel, err := s.HotelByID(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, hotel)
}

func TestInsertPriceIfChangedDedup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	obs := Observation{HotelID: 1, Date: "2026-09-01", Price: 120, Currency: "EUR", Available: true, RoomCategory: "Standard", Source: SourceCalendar}

	inserted, err := s.InsertPriceIfChanged(ctx, obs)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Identical triple is a no-op
	inserted, err = s.InsertPriceIfChanged(ctx, obs)
	require.NoError(t, err)
	assert.False(t, inserted)

	// Same date, different price is a new row
	obs.Price = 135
	inserted, err = s.InsertPriceIfChanged(ctx, obs)
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestLatestAndPreviousPrice(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Now().Add(-time.Hour)
	first := Observation{HotelID: 1, Date: "2026-09-01", Price: 120, Currency: "EUR", Available: true, ScrapedAt: base}
	second := Observation{HotelID: 1, Date: "2026-09-01", Price: 135, Currency: "EUR", Available: true, ScrapedAt: base.Add(time.Minute)}
	other := Observation{HotelID: 1, Date: "2026-09-02", Price: 99, Currency: "EUR", Available: true, ScrapedAt: base.Add(2 * time.Minute)}

	for _, obs := range []Observation{first, second, other} {
		_, err := s.InsertPriceIfChanged(ctx, obs)
		require.NoError(t, err)
	}

	latest, err := s.LatestPrice(ctx, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 99.0, latest.Price)

	prev, err := s.PreviousPrice(ctx, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, 135.0, prev.Price)

	// Scoped to a calendar date
	date := "2026-09-01"
	latest, err = s.LatestPrice(ctx, 1, &date)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 135.0, latest.Price)

	prev, err = s.PreviousPrice(ctx, 1, &date)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, 120.0, prev.Price)
}

func TestSingleRowLatestAndPrevious(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	obs := Observation{HotelID: 1, Date: "2026-09-01", Price: 120, Currency: "EUR", Available: true}
	inserted, err := s.InsertPriceIfChanged(ctx, obs)
	require.NoError(t, err)
	require.True(t, inserted)

	// A repeat scrape with the same price inserts nothing
	inserted, err = s.InsertPriceIfChanged(ctx, obs)
	require.NoError(t, err)
	require.False(t, inserted)

	latest, err := s.LatestPrice(ctx, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 120.0, latest.Price)

	// With one stored row, previous resolves to the same row
	prev, err := s.PreviousPrice(ctx, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, latest.ID, prev.ID)
}
