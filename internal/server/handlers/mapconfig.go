package handlers

import (
	"net/http"

	"github.com/jwi5433/happy-hour/internal/config"
)

// MapHandler serves the initial map view settings.
type MapHandler struct {
	cfg config.MapConfig
}

// NewMapHandler creates a new map handler.
func NewMapHandler(cfg config.MapConfig) *MapHandler {
	return &MapHandler{cfg: cfg}
}

type mapConfigResponse struct {
	CenterLat   float64 `json:"center_lat"`
	CenterLng   float64 `json:"center_lng"`
	InitialZoom int     `json:"initial_zoom"`
}

// GetConfig returns the default center and zoom for the map client.
func (h *MapHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, mapConfigResponse{
		CenterLat:   h.cfg.CenterLat,
		CenterLng:   h.cfg.CenterLng,
		InitialZoom: h.cfg.InitialZoom,
	})
}
