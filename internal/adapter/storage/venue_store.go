package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/jwi5433/happy-hour/internal/domain/venue"
)

// VenueStore implements venue.Store over the happy_venue table.
type VenueStore struct {
	db *pgxpool.Pool
}

// NewVenueStore creates a new venue store.
func NewVenueStore(db *pgxpool.Pool) *VenueStore {
	return &VenueStore{
		db: db,
	}
}

const venueColumns = `
	id, name, address,
	latitude::float8, longitude::float8,
	time_frames, deals,
	website, phone_number, description, image_url,
	created_at, updated_at
`

// ListVenues returns the full venue set.
func (s *VenueStore) ListVenues(ctx context.Context) ([]venue.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM happy_venue ORDER BY name`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying venues: %w", err)
	}
	defer rows.Close()

	return scanVenues(rows)
}

// GetVenue retrieves a venue by ID.
func (s *VenueStore) GetVenue(ctx context.Context, id string) (*venue.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM happy_venue WHERE id = $1`

	v, err := scanVenue(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("error querying venue: %w", err)
	}

	return v, nil
}

// SearchByName finds venues whose name contains the given term,
// case-insensitively.
func (s *VenueStore) SearchByName(ctx context.Context, term string) ([]venue.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM happy_venue WHERE name ILIKE '%' || $1 || '%' ORDER BY name`

	rows, err := s.db.Query(ctx, query, term)
	if err != nil {
		return nil, fmt.Errorf("error searching venues: %w", err)
	}
	defer rows.Close()

	return scanVenues(rows)
}

// SaveVenue inserts or updates a venue, assigning a fresh UUID when the ID
// is empty.
func (s *VenueStore) SaveVenue(ctx context.Context, v *venue.Venue) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	scheduleJSON, err := json.Marshal(v.Schedule)
	if err != nil {
		return fmt.Errorf("error marshaling schedule: %w", err)
	}

	dealsJSON, err := json.Marshal(v.Deals)
	if err != nil {
		return fmt.Errorf("error marshaling deals: %w", err)
	}

	query := `
		INSERT INTO happy_venue (
			id, name, address, latitude, longitude,
			time_frames, deals,
			website, phone_number, description, image_url,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7,
			$8, $9, $10, $11,
			$12, now()
		)
		ON CONFLICT (id) DO UPDATE
		SET
			name = $2,
			address = $3,
			latitude = $4,
			longitude = $5,
			time_frames = $6,
			deals = $7,
			website = $8,
			phone_number = $9,
			description = $10,
			image_url = $11,
			updated_at = now()
	`

	_, err = s.db.Exec(
		ctx,
		query,
		v.ID,
		v.Name,
		v.Address,
		v.Latitude,
		v.Longitude,
		scheduleJSON,
		dealsJSON,
		v.Website,
		v.PhoneNumber,
		v.Description,
		v.ImageURL,
		v.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

func scanVenues(rows pgx.Rows) ([]venue.Venue, error) {
	var venues []venue.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return venues, nil
}

func scanVenue(row pgx.Row) (*venue.Venue, error) {
	var v venue.Venue
	var scheduleJSON, dealsJSON []byte

	if err := row.Scan(
		&v.ID,
		&v.Name,
		&v.Address,
		&v.Latitude,
		&v.Longitude,
		&scheduleJSON,
		&dealsJSON,
		&v.Website,
		&v.PhoneNumber,
		&v.Description,
		&v.ImageURL,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}

	// Lenient decode: malformed schedule or deal rows drop silently rather
	// than failing the venue.
	v.Schedule = venue.DecodeSchedule(scheduleJSON)
	v.Deals = venue.DecodeDeals(dealsJSON)

	return &v, nil
}
