package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"

	"github.com/jwi5433/happy-hour/internal/config"
	"github.com/jwi5433/happy-hour/internal/domain/venue"
	"github.com/jwi5433/happy-hour/internal/server/handlers"
	"github.com/jwi5433/happy-hour/internal/service/assistant"
	"github.com/jwi5433/happy-hour/internal/service/declutter"
	"github.com/jwi5433/happy-hour/internal/service/relevance"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	store venue.Store,
	natsConn *nats.Conn,
	engine *declutter.Engine,
	ranker *relevance.Ranker,
	assistantService *assistant.Service,
	refreshTopic string,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	venueHandler := handlers.NewVenueHandler(store, engine, ranker, natsConn, refreshTopic)
	assistantHandler := handlers.NewAssistantHandler(assistantService, store)
	mapHandler := handlers.NewMapHandler(cfg.Map)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Venues API
			r.Route("/venues", func(r chi.Router) {
				r.Get("/", venueHandler.ListVenues)
				r.Post("/", venueHandler.CreateVenue)
				r.Get("/search", venueHandler.SearchVenues)
				r.Get("/nearby", venueHandler.GetNearbyVenues)
				r.Get("/visible", venueHandler.GetVisibleVenues)
				r.Get("/{id}", venueHandler.GetVenue)
			})

			// Assistant API
			r.Route("/assistant", func(r chi.Router) {
				r.Post("/chat", assistantHandler.Chat)
			})

			// Map client defaults
			r.Get("/map/config", mapHandler.GetConfig)
		})
	})

	// WebSocket endpoint for live viewport updates
	router.Get("/ws/viewport", handlers.ViewportWebSocketHandler(store, engine, ranker, natsConn, refreshTopic))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
