package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"hotelintel/pricewatcher/pkg/errors"
)

// PostgresStore implements PriceStore on Postgres via database/sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to Postgres and bootstraps the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.NewStorage("failed to open database", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewStorage("failed to connect to database", err)
	}

	s := &PostgresStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) createTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS hotels (
			id            BIGSERIAL PRIMARY KEY,
			name          TEXT NOT NULL,
			url           TEXT NOT NULL UNIQUE,
			city          TEXT NOT NULL DEFAULT '',
			address       TEXT NOT NULL DEFAULT '',
			star_rating   INT NOT NULL DEFAULT 0,
			user_rating   DOUBLE PRECISION NOT NULL DEFAULT 0,
			review_count  INT NOT NULL DEFAULT 0,
			description   TEXT NOT NULL DEFAULT '',
			amenities     TEXT[] NOT NULL DEFAULT '{}',
			images        TEXT[] NOT NULL DEFAULT '{}',
			is_competitor BOOLEAN NOT NULL DEFAULT FALSE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS prices (
			id            BIGSERIAL PRIMARY KEY,
			hotel_id      BIGINT NOT NULL REFERENCES hotels(id) ON DELETE CASCADE,
			date          DATE NOT NULL,
			price         DOUBLE PRECISION NOT NULL,
			currency      TEXT NOT NULL,
			available     BOOLEAN NOT NULL DEFAULT TRUE,
			room_category TEXT NOT NULL DEFAULT 'Standard',
			min_stay      INT NOT NULL DEFAULT 0,
			source        TEXT NOT NULL DEFAULT 'calendar',
			scraped_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_prices_triple ON prices (hotel_id, date, price);
		CREATE INDEX IF NOT EXISTS idx_prices_scraped ON prices (hotel_id, scraped_at DESC);
	`)
	if err != nil {
		return errors.NewStorage("failed to create tables", err)
	}
	return nil
}

// UpsertHotel creates or updates a hotel keyed by URL and fills in its ID.
func (s *PostgresStore) UpsertHotel(ctx context.Context, hotel *Hotel) error {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO hotels (name, url, city, address, star_rating, user_rating,
			review_count, description, amenities, images, is_competitor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (url) DO UPDATE SET
			name          = EXCLUDED.name,
			city          = EXCLUDED.city,
			address       = EXCLUDED.address,
			star_rating   = EXCLUDED.star_rating,
			user_rating   = EXCLUDED.user_rating,
			review_count  = EXCLUDED.review_count,
			description   = EXCLUDED.description,
			amenities     = EXCLUDED.amenities,
			images        = EXCLUDED.images,
			updated_at    = now()
		RETURNING id, created_at, updated_at`,
		hotel.Name, hotel.URL, hotel.City, hotel.Address, hotel.StarRating,
		hotel.UserRating, hotel.ReviewCount, hotel.Description,
		pq.Array(hotel.Amenities), pq.Array(hotel.Images), hotel.IsCompetitor,
	)
	if err := row.Scan(&hotel.ID, &hotel.CreatedAt, &hotel.UpdatedAt); err != nil {
		return errors.NewStorage("failed to upsert hotel", err)
	}
	return nil
}

// HotelByID returns the hotel with the given ID, or nil when unknown.
func (s *PostgresStore) HotelByID(ctx context.Context, id int64) (*Hotel, error) {
	row := s.db.QueryRowContext(ctx, hotelSelect+` WHERE id = $1`, id)
	hotel, err := scanHotel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorage("failed to load hotel", err)
	}
	return hotel, nil
}

// Hotels returns all tracked hotels ordered by ID.
func (s *PostgresStore) Hotels(ctx context.Context) ([]Hotel, error) {
	rows, err := s.db.QueryContext(ctx, hotelSelect+` ORDER BY id`)
	if err != nil {
		return nil, errors.NewStorage("failed to list hotels", err)
	}
	defer rows.Close()

	var hotels []Hotel
	for rows.Next() {
		hotel, err := scanHotel(rows)
		if err != nil {
			return nil, errors.NewStorage("failed to scan hotel", err)
		}
		hotels = append(hotels, *hotel)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage("failed to list hotels", err)
	}
	return hotels, nil
}

const hotelSelect = `
	SELECT id, name, url, city, address, star_rating, user_rating,
		review_count, description, amenities, images, is_competitor,
		created_at, updated_at
	FROM hotels`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHotel(row rowScanner) (*Hotel, error) {
	var h Hotel
	err := row.Scan(&h.ID, &h.Name, &h.URL, &h.City, &h.Address, &h.StarRating,
		&h.UserRating, &h.ReviewCount, &h.Description,
		pq.Array(&h.Amenities), pq.Array(&h.Images), &h.IsCompetitor,
		&h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// InsertPriceIfChanged inserts the observation unless the same
// (hotel, date, price) triple is already stored.
func (s *PostgresStore) InsertPriceIfChanged(ctx context.Context, obs Observation) (bool, error) {
	scrapedAt := obs.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO prices (hotel_id, date, price, currency, available,
			room_category, min_stay, source, scraped_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		WHERE NOT EXISTS (
			SELECT 1 FROM prices WHERE hotel_id = $1 AND date = $2 AND price = $3
		)`,
		obs.HotelID, obs.Date, obs.Price, obs.Currency, obs.Available,
		obs.RoomCategory, obs.MinStay, string(obs.Source), scrapedAt,
	)
	if err != nil {
		return false, errors.NewStorage("failed to insert price", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewStorage("failed to read insert result", err)
	}
	return affected > 0, nil
}

// LatestPrice returns the most recently scraped observation for the hotel.
func (s *PostgresStore) LatestPrice(ctx context.Context, hotelID int64, asOfDate *string) (*Observation, error) {
	return s.priceAt(ctx, hotelID, asOfDate, 0)
}

// PreviousPrice returns the second most recently scraped observation. With a
// single stored observation it resolves to that one, so callers comparing
// latest against previous read "no change".
func (s *PostgresStore) PreviousPrice(ctx context.Context, hotelID int64, asOfDate *string) (*Observation, error) {
	prev, err := s.priceAt(ctx, hotelID, asOfDate, 1)
	if err != nil || prev != nil {
		return prev, err
	}
	return s.priceAt(ctx, hotelID, asOfDate, 0)
}

func (s *PostgresStore) priceAt(ctx context.Context, hotelID int64, asOfDate *string, offset int) (*Observation, error) {
	query := `
		SELECT id, hotel_id, to_char(date, 'YYYY-MM-DD'), price, currency,
			available, room_category, min_stay, source, scraped_at
		FROM prices
		WHERE hotel_id = $1`
	args := []interface{}{hotelID}
	if asOfDate != nil {
		query += ` AND date = $2`
		args = append(args, *asOfDate)
		query += ` ORDER BY scraped_at DESC, id DESC LIMIT 1 OFFSET $3`
	} else {
		query += ` ORDER BY scraped_at DESC, id DESC LIMIT 1 OFFSET $2`
	}
	args = append(args, offset)

	var o Observation
	var source string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&o.ID, &o.HotelID, &o.Date, &o.Price, &o.Currency,
		&o.Available, &o.RoomCategory, &o.MinStay, &source, &o.ScrapedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorage("failed to load price", err)
	}
	o.Source = Source(source)
	return &o, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
