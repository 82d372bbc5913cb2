package store

import "context"

// PriceStore is the price-history persistence contract. Implementations
// deduplicate observations on the (hotel, date, price) triple so only actual
// price changes create new rows.
type PriceStore interface {
	// UpsertHotel creates or updates a hotel keyed by its canonical URL and
	// fills in the assigned ID.
	UpsertHotel(ctx context.Context, hotel *Hotel) error

	// HotelByID returns the hotel with the given ID, or nil when unknown.
	HotelByID(ctx context.Context, id int64) (*Hotel, error)

	// Hotels returns all tracked hotels.
	Hotels(ctx context.Context) ([]Hotel, error)

	// InsertPriceIfChanged inserts the observation unless an identical
	// (hotel, date, price) triple already exists. Returns whether a row was
	// inserted.
	InsertPriceIfChanged(ctx context.Context, obs Observation) (bool, error)

	// LatestPrice returns the most recently scraped observation for the
	// hotel. A non-nil asOfDate (YYYY-MM-DD) scopes the lookup to that
	// calendar date.
	LatestPrice(ctx context.Context, hotelID int64, asOfDate *string) (*Observation, error)

	// PreviousPrice returns the second most recently scraped observation,
	// with the same optional calendar-date scope.
	PreviousPrice(ctx context.Context, hotelID int64, asOfDate *string) (*Observation, error)

	// Close releases the underlying connection.
	Close() error
}
