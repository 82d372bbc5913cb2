package scrape

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"hash/fnv"
	"time"

	"hotelintel/pricewatcher/config"
	"hotelintel/pricewatcher/internal/browser"
	"hotelintel/pricewatcher/internal/store"
	"hotelintel/pricewatcher/logger"
	"hotelintel/pricewatcher/pkg/errors"
	"hotelintel/pricewatcher/services/cache"
	"hotelintel/pricewatcher/services/publisher"
)

// ScrapeResult is the per-URL outcome of a scrape, echoed back with the
// source URL regardless of success.
type ScrapeResult struct {
	URL          string
	Success      bool
	Hotel        *store.Hotel
	Observations []store.Observation
	Inserted     int
	Error        string
}

// priceChange is the event payload published for every newly inserted
// observation.
type priceChange struct {
	HotelID      int64   `json:"hotel_id"`
	HotelName    string  `json:"hotel_name"`
	URL          string  `json:"url"`
	Date         string  `json:"date"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	RoomCategory string  `json:"room_category"`
	Source       string  `json:"source"`
	ScrapedAt    string  `json:"scraped_at"`
}

// Service ties one visit together with persistence, the scrape cooldown and
// price-change publication. Store, cache and publisher are all optional; a
// nil collaborator just disables that concern.
type Service struct {
	navigator *Navigator
	store     store.PriceStore
	cache     cache.CacheService
	publisher publisher.Publisher
	blockTime time.Duration
}

// NewService creates the scrape service over the given backend.
func NewService(launcher browser.Launcher, st store.PriceStore, cacheSvc cache.CacheService, pub publisher.Publisher, cfg config.Config) *Service {
	return &Service{
		navigator: NewNavigator(launcher, cfg),
		store:     st,
		cache:     cacheSvc,
		publisher: pub,
		blockTime: cfg.BlockTime,
	}
}

// ScrapeHotel performs one end-to-end scrape of a hotel URL: visit, persist,
// publish. Failures are returned as data, never panics.
func (s *Service) ScrapeHotel(ctx context.Context, url string) ScrapeResult {
	result := ScrapeResult{URL: url}
	log := logger.ForVisit(url)

	if s.cache != nil {
		if _, err := s.cache.Get(blockKey(url)); err == nil {
			result.Error = errors.NewRateLimit(url, s.blockTime).Error()
			return result
		}
	}

	visit, err := s.navigator.Visit(ctx, url)
	if err != nil {
		var scrapeErr *errors.ScrapeError
		if stderrors.As(err, &scrapeErr) && scrapeErr.Type == errors.ErrorTypeRateLimit {
			s.block(url, log)
		}
		result.Error = err.Error()
		return result
	}

	hotel := hotelFromMetadata(visit.Metadata, url)
	result.Observations = visit.Observations

	if s.store != nil {
		if err := s.store.UpsertHotel(ctx, hotel); err != nil {
			result.Error = err.Error()
			return result
		}
		for _, obs := range visit.Observations {
			obs.HotelID = hotel.ID
			inserted, err := s.store.InsertPriceIfChanged(ctx, obs)
			if err != nil {
				result.Error = err.Error()
				return result
			}
			if inserted {
				result.Inserted++
				s.publish(hotel, obs, log)
			}
		}
	}

	result.Hotel = hotel
	result.Success = true
	log.Info().
		Str("hotel", hotel.Name).
		Int("observations", len(result.Observations)).
		Int("inserted", result.Inserted).
		Msg("Scrape complete")
	return result
}

func (s *Service) block(url string, log *logger.Logger) {
	if s.cache == nil {
		return
	}
	value := fmt.Sprintf("%d", int(s.blockTime.Seconds()))
	if err := s.cache.Set(blockKey(url), []byte(value), s.blockTime); err != nil {
		log.Warn().Err(err).Msg("Failed to set scrape block")
	}
}

func (s *Service) publish(hotel *store.Hotel, obs store.Observation, log *logger.Logger) {
	if s.publisher == nil {
		return
	}
	scrapedAt := obs.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}
	event := priceChange{
		HotelID:      hotel.ID,
		HotelName:    hotel.Name,
		URL:          hotel.URL,
		Date:         obs.Date,
		Price:        obs.Price,
		Currency:     obs.Currency,
		RoomCategory: obs.RoomCategory,
		Source:       string(obs.Source),
		ScrapedAt:    scrapedAt.Format(time.RFC3339),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode price change")
		return
	}
	if err := s.publisher.Publish("b64_price_change", payload); err != nil {
		log.Warn().Err(err).Msg("Failed to publish price change")
	}
}

func hotelFromMetadata(meta Metadata, url string) *store.Hotel {
	return &store.Hotel{
		Name:        meta.Name,
		URL:         url,
		City:        meta.City,
		Address:     meta.Address,
		StarRating:  meta.StarRating,
		UserRating:  meta.UserRating,
		ReviewCount: meta.ReviewCount,
		Description: meta.Description,
		Amenities:   meta.Amenities,
		Images:      meta.Images,
	}
}

func blockKey(url string) string {
	h := fnv.New32a()
	h.Write([]byte(url))
	return fmt.Sprintf("scrape_block_%x", h.Sum32())
}
