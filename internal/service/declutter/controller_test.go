package declutter

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwi5433/happy-hour/internal/domain/geo"
	"github.com/jwi5433/happy-hour/internal/domain/venue"
)

// gatedSelector blocks inside SelectVisible until released, so tests can
// hold a recomputation in flight while queueing more events.
type gatedSelector struct {
	inner   Selector
	entered chan struct{}
	proceed chan struct{}

	mu       sync.Mutex
	calls    int
	lastZoom int
}

func newGatedSelector(inner Selector) *gatedSelector {
	return &gatedSelector{
		inner:   inner,
		entered: make(chan struct{}),
		proceed: make(chan struct{}),
	}
}

func (s *gatedSelector) SelectVisible(venues []venue.Venue, bounds geo.BoundingBox, zoom int) []venue.Venue {
	s.mu.Lock()
	s.calls++
	s.lastZoom = zoom
	s.mu.Unlock()

	s.entered <- struct{}{}
	<-s.proceed

	return s.inner.SelectVisible(venues, bounds, zoom)
}

func (s *gatedSelector) stats() (calls, lastZoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.lastZoom
}

func waitSignal(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for selector")
	}
}

func TestControllerComputesVisibleSet(t *testing.T) {
	updates := make(chan []venue.Venue, 8)
	ctrl := NewController(NewEngine(DefaultConfig()), func(vs []venue.Venue) {
		updates <- vs
	})

	ctrl.SetVenues([]venue.Venue{
		testVenue("a", 30.27, -97.74),
		testVenue("b", 30.40, -97.70),
	})
	ctrl.SetViewport(austinBounds, 16)

	select {
	case visible := <-updates:
		assert.Len(t, visible, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}
}

func TestControllerNoUpdateBeforeViewport(t *testing.T) {
	updates := make(chan []venue.Venue, 8)
	ctrl := NewController(NewEngine(DefaultConfig()), func(vs []venue.Venue) {
		updates <- vs
	})

	ctrl.SetVenues([]venue.Venue{testVenue("a", 30.27, -97.74)})

	select {
	case <-updates:
		t.Fatal("update pushed without a viewport")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(t, ctrl.Visible())
}

func TestControllerCoalescesBursts(t *testing.T) {
	sel := newGatedSelector(NewEngine(DefaultConfig()))
	updates := make(chan []venue.Venue, 8)
	ctrl := NewController(sel, func(vs []venue.Venue) {
		updates <- vs
	})

	ctrl.SetVenues([]venue.Venue{
		testVenue("a", 30.27, -97.74),
		testVenue("b", 30.40, -97.70),
	})

	// First viewport starts a pass; the selector now blocks mid-flight.
	ctrl.SetViewport(austinBounds, 10)
	waitSignal(t, sel.entered)

	// A pan burst while the pass is in flight must coalesce into a single
	// trailing recomputation seeing only the final viewport.
	for zoom := 11; zoom <= 15; zoom++ {
		ctrl.SetViewport(austinBounds, zoom)
	}

	sel.proceed <- struct{}{}
	waitSignal(t, sel.entered)
	sel.proceed <- struct{}{}

	// Drain the two updates produced by the two passes.
	for i := 0; i < 2; i++ {
		select {
		case <-updates:
		case <-time.After(2 * time.Second):
			t.Fatal("missing update")
		}
	}

	calls, lastZoom := sel.stats()
	assert.Equal(t, 2, calls)
	assert.Equal(t, 15, lastZoom)
	require.Len(t, ctrl.Visible(), 2)
}

func TestControllerDeliversInComputeOrder(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	deliveries := make(chan []venue.Venue, 8)

	var calls int32
	ctrl := NewController(NewEngine(DefaultConfig()), func(vs []venue.Venue) {
		if atomic.AddInt32(&calls, 1) == 1 {
			entered <- struct{}{}
			<-release
		}
		deliveries <- vs
	})

	ctrl.SetVenues([]venue.Venue{testVenue("a", 30.27, -97.74)})
	ctrl.SetViewport(austinBounds, 16)

	// The first delivery is now stalled inside the callback. A venue refresh
	// arriving mid-delivery must not publish ahead of it.
	waitSignal(t, entered)
	ctrl.SetVenues([]venue.Venue{
		testVenue("a", 30.27, -97.74),
		testVenue("b", 30.40, -97.70),
	})
	close(release)

	var got [][]venue.Venue
	for i := 0; i < 2; i++ {
		select {
		case vs := <-deliveries:
			got = append(got, vs)
		case <-time.After(2 * time.Second):
			t.Fatal("missing delivery")
		}
	}

	require.Len(t, got, 2)
	assert.Len(t, got[0], 1)
	// The last delivery must be the refreshed 2-venue set, never the stale one.
	assert.Len(t, got[1], 2)
}

func TestControllerVenueRefreshRecomputes(t *testing.T) {
	updates := make(chan []venue.Venue, 8)
	ctrl := NewController(NewEngine(DefaultConfig()), func(vs []venue.Venue) {
		updates <- vs
	})

	ctrl.SetVenues([]venue.Venue{testVenue("a", 30.27, -97.74)})
	ctrl.SetViewport(austinBounds, 16)

	select {
	case visible := <-updates:
		require.Len(t, visible, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial update")
	}

	ctrl.SetVenues([]venue.Venue{
		testVenue("a", 30.27, -97.74),
		testVenue("b", 30.40, -97.70),
	})

	select {
	case visible := <-updates:
		assert.Len(t, visible, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh update")
	}
}
