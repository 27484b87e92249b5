package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jwi5433/happy-hour/internal/domain/geo"
	"github.com/jwi5433/happy-hour/internal/domain/venue"
	"github.com/jwi5433/happy-hour/internal/service/assistant"
)

// fallbackReply is returned when the assistant backend fails; the chat view
// stays usable even when the model is unreachable.
const fallbackReply = "Sorry, I had trouble responding. Please try again."

// AssistantHandler handles conversational-assistant requests.
type AssistantHandler struct {
	service *assistant.Service
	store   venue.Store
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(service *assistant.Service, store venue.Store) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		store:   store,
	}
}

type chatRequest struct {
	Query string   `json:"query"`
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat answers a free-text query grounded on the venue set.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Query == "" {
		respondWithError(w, http.StatusBadRequest, "Missing query", nil)
		return
	}

	var ref *geo.Point
	if req.Lat != nil && req.Lng != nil {
		ref = &geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	}

	venues, err := h.store.ListVenues(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list venues", err)
		return
	}

	reply, err := h.service.Reply(r.Context(), req.Query, venues, ref)
	if err != nil {
		log.Printf("Assistant error: %v", err)
		respondWithJSON(w, http.StatusOK, chatResponse{Reply: fallbackReply})
		return
	}

	respondWithJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
