package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"

	"github.com/jwi5433/happy-hour/internal/domain/geo"
	"github.com/jwi5433/happy-hour/internal/domain/venue"
	"github.com/jwi5433/happy-hour/internal/service/declutter"
	"github.com/jwi5433/happy-hour/internal/service/relevance"
)

// ViewportClient is one connected map view. Each client owns a declutter
// controller so rapid pan/zoom events coalesce per connection.
type ViewportClient struct {
	conn       *websocket.Conn
	send       chan []byte
	controller *declutter.Controller
	ranker     *relevance.Ranker
	store      venue.Store
	refreshSub *nats.Subscription
	closeOnce  sync.Once

	mu      sync.Mutex
	closed  bool
	dropped []byte
}

// trySend queues a payload unless the connection is closed. When the buffer
// is full the payload is kept as the dropped-latest and resent from the
// write pump's ticker; without that, a drop on the final recompute would
// leave the client stale with nothing left to supersede it.
func (c *ViewportClient) trySend(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- payload:
		c.dropped = nil
	default:
		c.dropped = payload
	}
}

// resendDropped re-queues the latest dropped payload once the buffer has
// drained.
func (c *ViewportClient) resendDropped() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.dropped == nil {
		return
	}

	select {
	case c.send <- c.dropped:
		c.dropped = nil
	default:
	}
}

// ViewportConfig contains configuration for viewport WebSocket connections.
type ViewportConfig struct {
	// Time allowed to write a message to the peer.
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration

	// Send pings to peer with this period.
	PingPeriod time.Duration

	// Maximum message size allowed from peer.
	MaxMessageSize int64
}

// DefaultViewportConfig returns the default WebSocket configuration.
func DefaultViewportConfig() ViewportConfig {
	return ViewportConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 64 * 1024,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// viewportEvent is the client-to-server message envelope.
type viewportEvent struct {
	Type  string   `json:"type"`
	South *float64 `json:"south,omitempty"`
	West  *float64 `json:"west,omitempty"`
	North *float64 `json:"north,omitempty"`
	East  *float64 `json:"east,omitempty"`
	Zoom  *int     `json:"zoom,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
}

// ViewportWebSocketHandler serves live marker updates: the client streams
// viewport changes, the server pushes back the decluttered visible set. A
// NATS subscription re-pulls the venue set when the store changes.
func ViewportWebSocketHandler(
	store venue.Store,
	engine *declutter.Engine,
	ranker *relevance.Ranker,
	natsConn *nats.Conn,
	refreshTopic string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade to WebSocket: %v", err)
			return
		}

		client := &ViewportClient{
			conn:   conn,
			send:   make(chan []byte, 256),
			ranker: ranker,
			store:  store,
		}
		client.controller = declutter.NewController(engine, client.pushVisible)

		// Load the initial venue snapshot.
		venues, err := store.ListVenues(r.Context())
		if err != nil {
			log.Printf("Failed to load venues for viewport: %v", err)
			conn.Close()
			return
		}
		client.controller.SetVenues(venues)

		if natsConn != nil {
			sub, err := natsConn.Subscribe(refreshTopic, func(msg *nats.Msg) {
				client.refreshVenues()
			})
			if err != nil {
				log.Printf("Failed to subscribe to venue refresh: %v", err)
			} else {
				client.refreshSub = sub
			}
		}

		go client.writePump()
		go client.readPump()

		welcome, err := json.Marshal(map[string]interface{}{
			"type": "welcome",
			"time": time.Now(),
		})
		if err != nil {
			log.Printf("Failed to marshal welcome message: %v", err)
		} else {
			client.trySend(welcome)
		}
	}
}

// pushVisible is the controller's update callback; it queues the new marker
// set for the write pump.
func (c *ViewportClient) pushVisible(visible []venue.Venue) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":   "visible",
		"venues": visible,
	})
	if err != nil {
		log.Printf("Failed to marshal visible set: %v", err)
		return
	}

	c.trySend(payload)
}

// refreshVenues re-pulls the venue set after a store change.
func (c *ViewportClient) refreshVenues() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	venues, err := c.store.ListVenues(ctx)
	if err != nil {
		log.Printf("Failed to refresh venues: %v", err)
		return
	}

	c.controller.SetVenues(venues)
}

// readPump pumps viewport events from the WebSocket connection into the
// declutter controller.
func (c *ViewportClient) readPump() {
	config := DefaultViewportConfig()

	defer c.closeConnection()

	c.conn.SetReadLimit(config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		c.processEvent(message)
	}
}

// writePump pumps queued payloads to the WebSocket connection.
func (c *ViewportClient) writePump() {
	config := DefaultViewportConfig()
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.resendDropped()

			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processEvent dispatches one client event.
func (c *ViewportClient) processEvent(message []byte) {
	var event viewportEvent
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("Failed to parse viewport event: %v", err)
		return
	}

	switch event.Type {
	case "viewport":
		c.handleViewport(event)

	case "locate":
		c.handleLocate(event)

	default:
		log.Printf("Unknown viewport event type: %s", event.Type)
	}
}

// handleViewport feeds a bounds/zoom change into the controller.
func (c *ViewportClient) handleViewport(event viewportEvent) {
	if event.South == nil || event.West == nil || event.North == nil ||
		event.East == nil || event.Zoom == nil {
		log.Printf("Incomplete viewport event")
		return
	}

	bounds := geo.BoundingBox{
		South: *event.South,
		West:  *event.West,
		North: *event.North,
		East:  *event.East,
	}

	c.controller.SetViewport(bounds, *event.Zoom)
}

// handleLocate answers a reference-location update with the nearest venues.
func (c *ViewportClient) handleLocate(event viewportEvent) {
	if event.Lat == nil || event.Lng == nil {
		log.Printf("Incomplete locate event")
		return
	}

	ref := geo.Point{Lat: *event.Lat, Lng: *event.Lng}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	venues, err := c.store.ListVenues(ctx)
	if err != nil {
		log.Printf("Failed to list venues for locate: %v", err)
		return
	}

	ranked := c.ranker.RankByDistance(venues, ref)
	if len(ranked) > defaultNearbyLimit {
		ranked = ranked[:defaultNearbyLimit]
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":   "nearby",
		"venues": ranked,
	})
	if err != nil {
		log.Printf("Failed to marshal nearby set: %v", err)
		return
	}

	c.trySend(payload)
}

// closeConnection tears down the connection and its NATS subscription.
func (c *ViewportClient) closeConnection() {
	c.closeOnce.Do(func() {
		if c.refreshSub != nil {
			c.refreshSub.Unsubscribe()
		}

		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.conn.Close()
		close(c.send)

		log.Printf("Viewport WebSocket connection closed")
	})
}
