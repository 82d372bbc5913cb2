package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements PriceStore in memory. Used in tests and when no
// database is configured.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	hotels   map[int64]*Hotel
	byURL    map[string]int64
	prices   []Observation
	priceSeq int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		hotels: make(map[int64]*Hotel),
		byURL:  make(map[string]int64),
	}
}

func (s *MemoryStore) UpsertHotel(ctx context.Context, hotel *Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if id, ok := s.byURL[hotel.URL]; ok {
		existing := s.hotels[id]
		hotel.ID = id
		hotel.CreatedAt = existing.CreatedAt
		hotel.UpdatedAt = now
	} else {
		hotel.ID = s.nextID
		s.nextID++
		hotel.CreatedAt = now
		hotel.UpdatedAt = now
		s.byURL[hotel.URL] = hotel.ID
	}

	copy := *hotel
	s.hotels[hotel.ID] = &copy
	return nil
}

func (s *MemoryStore) HotelByID(ctx context.Context, id int64) (*Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hotel, ok := s.hotels[id]
	if !ok {
		return nil, nil
	}
	copy := *hotel
	return &copy, nil
}

func (s *MemoryStore) Hotels(ctx context.Context) ([]Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hotels := make([]Hotel, 0, len(s.hotels))
	for _, h := range s.hotels {
		hotels = append(hotels, *h)
	}
	sort.Slice(hotels, func(i, j int) bool { return hotels[i].ID < hotels[j].ID })
	return hotels, nil
}

func (s *MemoryStore) InsertPriceIfChanged(ctx context.Context, obs Observation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.prices {
		if existing.HotelID == obs.HotelID && existing.Date == obs.Date && existing.Price == obs.Price {
			return false, nil
		}
	}

	s.priceSeq++
	obs.ID = s.priceSeq
	if obs.ScrapedAt.IsZero() {
		obs.ScrapedAt = time.Now()
	}
	s.prices = append(s.prices, obs)
	return true, nil
}

func (s *MemoryStore) LatestPrice(ctx context.Context, hotelID int64, asOfDate *string) (*Observation, error) {
	return s.priceAt(hotelID, asOfDate, 0)
}

func (s *MemoryStore) PreviousPrice(ctx context.Context, hotelID int64, asOfDate *string) (*Observation, error) {
	prev, err := s.priceAt(hotelID, asOfDate, 1)
	if err != nil || prev != nil {
		return prev, err
	}
	// With a single observation the previous price is the latest one
	return s.priceAt(hotelID, asOfDate, 0)
}

func (s *MemoryStore) priceAt(hotelID int64, asOfDate *string, offset int) (*Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []Observation
	for _, obs := range s.prices {
		if obs.HotelID != hotelID {
			continue
		}
		if asOfDate != nil && obs.Date != *asOfDate {
			continue
		}
		matches = append(matches, obs)
	}

	// Most recent scrape first, insertion order breaks ties
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].ScrapedAt.Equal(matches[j].ScrapedAt) {
			return matches[i].ScrapedAt.After(matches[j].ScrapedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	if offset >= len(matches) {
		return nil, nil
	}
	obs := matches[offset]
	return &obs, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
