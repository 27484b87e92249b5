package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v4"
	"github.com/nats-io/nats.go"

	"github.com/jwi5433/happy-hour/internal/domain/geo"
	"github.com/jwi5433/happy-hour/internal/domain/venue"
	"github.com/jwi5433/happy-hour/internal/service/deals"
	"github.com/jwi5433/happy-hour/internal/service/declutter"
	"github.com/jwi5433/happy-hour/internal/service/relevance"
	"github.com/jwi5433/happy-hour/internal/service/schedule"
)

// minSearchLength is the shortest name search the API accepts.
const minSearchLength = 2

// defaultNearbyLimit caps the nearest-first listing when the client does not
// ask for a specific count.
const defaultNearbyLimit = 20

// VenueHandler handles venue-related HTTP requests.
type VenueHandler struct {
	store        venue.Store
	engine       *declutter.Engine
	ranker       *relevance.Ranker
	events       *nats.Conn
	refreshTopic string
}

// NewVenueHandler creates a new venue handler.
func NewVenueHandler(
	store venue.Store,
	engine *declutter.Engine,
	ranker *relevance.Ranker,
	events *nats.Conn,
	refreshTopic string,
) *VenueHandler {
	return &VenueHandler{
		store:        store,
		engine:       engine,
		ranker:       ranker,
		events:       events,
		refreshTopic: refreshTopic,
	}
}

// ListVenues returns the full venue set.
func (h *VenueHandler) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.store.ListVenues(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list venues", err)
		return
	}

	respondWithJSON(w, http.StatusOK, venues)
}

// venueDetail is the detail-panel payload: the venue plus its consolidated
// schedule and curated, partitioned deals.
type venueDetail struct {
	Venue         venue.Venue       `json:"venue"`
	ScheduleLines []schedule.Line   `json:"schedule_lines"`
	ScheduleText  string            `json:"schedule_text"`
	DrinkDeals    []venue.DealEntry `json:"drink_deals"`
	FoodDeals     []venue.DealEntry `json:"food_deals"`
	DealsText     string            `json:"deals_text,omitempty"`
}

// GetVenue returns one venue with its rendered schedule and deals.
func (h *VenueHandler) GetVenue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing venue ID", nil)
		return
	}

	v, err := h.store.GetVenue(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "Venue not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to get venue", err)
		}
		return
	}

	detail := venueDetail{
		Venue:         *v,
		ScheduleLines: schedule.Consolidate(v.Schedule),
		ScheduleText:  schedule.Render(v.Schedule),
	}

	curated := deals.Curate(v.Deals)
	if len(curated) == 0 {
		detail.DealsText = deals.NoDeals
	} else {
		detail.DrinkDeals, detail.FoodDeals = deals.Partition(curated)
	}

	respondWithJSON(w, http.StatusOK, detail)
}

// SearchVenues finds venues by name substring.
func (h *VenueHandler) SearchVenues(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if len(term) < minSearchLength {
		respondWithError(w, http.StatusBadRequest, "Search term too short", nil)
		return
	}

	venues, err := h.store.SearchByName(r.Context(), term)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to search venues", err)
		return
	}

	respondWithJSON(w, http.StatusOK, venues)
}

// GetNearbyVenues returns venues ranked by distance from a reference point.
func (h *VenueHandler) GetNearbyVenues(w http.ResponseWriter, r *http.Request) {
	ref, err := parsePoint(r, "lat", "lng")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	limit := defaultNearbyLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	venues, err := h.store.ListVenues(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list venues", err)
		return
	}

	ranked := h.ranker.RankByDistance(venues, *ref)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	respondWithJSON(w, http.StatusOK, ranked)
}

// GetVisibleVenues returns the decluttered marker set for a viewport.
func (h *VenueHandler) GetVisibleVenues(w http.ResponseWriter, r *http.Request) {
	bounds, err := parseBounds(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	zoomStr := r.URL.Query().Get("zoom")
	zoom, err := strconv.Atoi(zoomStr)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid zoom", err)
		return
	}

	venues, err := h.store.ListVenues(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list venues", err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.engine.SelectVisible(venues, *bounds, zoom))
}

// CreateVenue saves a venue and notifies listeners that the venue set
// changed.
func (h *VenueHandler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var v venue.Venue
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if v.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Missing venue name", nil)
		return
	}

	if err := h.store.SaveVenue(r.Context(), &v); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save venue", err)
		return
	}

	if h.events != nil {
		if err := h.events.Publish(h.refreshTopic, []byte(v.ID)); err != nil {
			log.Printf("Failed to publish venue refresh: %v", err)
		}
	}

	respondWithJSON(w, http.StatusCreated, v)
}

// parsePoint reads a lat/lng pair from query parameters.
func parsePoint(r *http.Request, latKey, lngKey string) (*geo.Point, error) {
	latStr := r.URL.Query().Get(latKey)
	lngStr := r.URL.Query().Get(lngKey)

	if latStr == "" || lngStr == "" {
		return nil, errors.New("Missing location parameters")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errors.New("Invalid latitude")
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, errors.New("Invalid longitude")
	}

	return &geo.Point{Lat: lat, Lng: lng}, nil
}

// parseBounds reads a south/west/north/east viewport from query parameters.
func parseBounds(r *http.Request) (*geo.BoundingBox, error) {
	var bounds geo.BoundingBox

	for _, p := range []struct {
		key  string
		dest *float64
	}{
		{"south", &bounds.South},
		{"west", &bounds.West},
		{"north", &bounds.North},
		{"east", &bounds.East},
	} {
		raw := r.URL.Query().Get(p.key)
		if raw == "" {
			return nil, errors.New("Missing bounds parameters")
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("Invalid bounds parameter " + p.key)
		}
		*p.dest = v
	}

	return &bounds, nil
}
