package store

import "time"

// Source marks where an observation came from. Calendar observations are
// parsed from the site's pricing endpoint; page observations are scraped
// from visible text and are lower confidence.
type Source string

const (
	SourceCalendar Source = "calendar"
	SourcePage     Source = "page"
)

// Hotel is the identity record for one tracked property. URL is the
// canonical source URL and the unique upsert key.
type Hotel struct {
	ID           int64
	Name         string
	URL          string
	City         string
	Address      string
	StarRating   int
	UserRating   float64
	ReviewCount  int
	Description  string
	Amenities    []string
	Images       []string
	IsCompetitor bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Observation is one (hotel, calendar date, price) record. Date is the
// quoted calendar day in YYYY-MM-DD form; ScrapedAt is when it was captured.
type Observation struct {
	ID           int64
	HotelID      int64
	Date         string
	Price        float64
	Currency     string
	Available    bool
	RoomCategory string
	MinStay      int
	Source       Source
	ScrapedAt    time.Time
}
