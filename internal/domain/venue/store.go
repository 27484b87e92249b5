package venue

import "context"

// Store is the read/write surface over the venue table. There is no
// subscription contract here; refresh notifications travel over the event
// bus instead.
type Store interface {
	// ListVenues returns the full venue set.
	ListVenues(ctx context.Context) ([]Venue, error)

	// GetVenue retrieves a venue by ID.
	GetVenue(ctx context.Context, id string) (*Venue, error)

	// SearchByName finds venues whose name contains the given term.
	SearchByName(ctx context.Context, term string) ([]Venue, error)

	// SaveVenue inserts or updates a venue, assigning an ID when missing.
	SaveVenue(ctx context.Context, v *Venue) error
}
