package declutter

import (
	"sync"

	"github.com/jwi5433/happy-hour/internal/domain/geo"
	"github.com/jwi5433/happy-hour/internal/domain/venue"
)

// Selector picks the visible subset for a viewport. Implemented by Engine.
type Selector interface {
	SelectVisible(venues []venue.Venue, bounds geo.BoundingBox, zoom int) []venue.Venue
}

// Controller binds a Selector to a stream of viewport and venue-set changes,
// holding the current visible set. Rapid successive events coalesce: at most
// one recomputation runs at a time, with at most one trailing run queued, so
// a pan burst never piles up unbounded work. The visible set is replaced
// atomically on each pass.
type Controller struct {
	selector Selector
	onUpdate func([]venue.Venue)

	mu          sync.RWMutex
	venues      []venue.Venue
	bounds      geo.BoundingBox
	zoom        int
	hasViewport bool
	visible     []venue.Venue
	running     bool
	pending     bool
}

// NewController creates a controller. onUpdate, if non-nil, is invoked with
// the new visible set after each recomputation, in compute order; a slow
// callback delays the next pass but never reorders deliveries.
func NewController(selector Selector, onUpdate func([]venue.Venue)) *Controller {
	return &Controller{
		selector: selector,
		onUpdate: onUpdate,
	}
}

// SetVenues replaces the venue snapshot and triggers a recomputation.
func (c *Controller) SetVenues(venues []venue.Venue) {
	c.mu.Lock()
	c.venues = venues
	c.mu.Unlock()

	c.schedule()
}

// SetViewport records a viewport change and triggers a recomputation.
func (c *Controller) SetViewport(bounds geo.BoundingBox, zoom int) {
	c.mu.Lock()
	c.bounds = bounds
	c.zoom = zoom
	c.hasViewport = true
	c.mu.Unlock()

	c.schedule()
}

// Visible returns the current visible set.
func (c *Controller) Visible() []venue.Venue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visible
}

// schedule starts a recomputation, or marks one pending when a pass is
// already in flight. Events arriving mid-pass coalesce into a single
// trailing run that sees the latest inputs.
func (c *Controller) schedule() {
	c.mu.Lock()
	if c.running {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	go c.run()
}

func (c *Controller) run() {
	for {
		c.mu.Lock()
		c.pending = false
		venues := c.venues
		bounds := c.bounds
		zoom := c.zoom
		ready := c.hasViewport
		c.mu.Unlock()

		var visible []venue.Venue
		if ready {
			visible = c.selector.SelectVisible(venues, bounds, zoom)
		}

		c.mu.Lock()
		c.visible = visible
		c.mu.Unlock()

		// Deliver before giving up the run slot: while this goroutine holds
		// it no later pass can start, so updates always reach the callback
		// in compute order and the last one delivered is the newest.
		if ready && c.onUpdate != nil {
			c.onUpdate(visible)
		}

		c.mu.Lock()
		if !c.pending {
			c.running = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}
