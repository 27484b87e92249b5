package declutter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwi5433/happy-hour/internal/domain/geo"
	"github.com/jwi5433/happy-hour/internal/domain/venue"
)

func testVenue(id string, lat, lng float64) venue.Venue {
	return venue.Venue{ID: id, Name: "Venue " + id, Latitude: &lat, Longitude: &lng}
}

var austinBounds = geo.BoundingBox{South: 30.0, West: -98.0, North: 30.5, East: -97.5}

func TestSelectVisibleFiltering(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	t.Run("venues without coordinates excluded", func(t *testing.T) {
		venues := []venue.Venue{
			{ID: "no-coords", Name: "Ghost"},
			testVenue("a", 30.2672, -97.7431),
		}
		visible := engine.SelectVisible(venues, austinBounds, 16)
		require.Len(t, visible, 1)
		assert.Equal(t, "a", visible[0].ID)
	})

	t.Run("venues outside bounds excluded", func(t *testing.T) {
		venues := []venue.Venue{
			testVenue("inside", 30.2672, -97.7431),
			testVenue("north", 31.0, -97.7431),
			testVenue("west", 30.2672, -99.0),
		}
		visible := engine.SelectVisible(venues, austinBounds, 16)
		require.Len(t, visible, 1)
		assert.Equal(t, "inside", visible[0].ID)
	})

	t.Run("result preserves input order", func(t *testing.T) {
		venues := []venue.Venue{
			testVenue("b", 30.40, -97.70),
			testVenue("a", 30.27, -97.74),
		}
		visible := engine.SelectVisible(venues, austinBounds, 10)
		require.Len(t, visible, 2)
		assert.Equal(t, "b", visible[0].ID)
		assert.Equal(t, "a", visible[1].ID)
	})
}

func TestSelectVisibleDetailZoom(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DetailCap = 3
	engine := NewEngine(cfg)

	venues := make([]venue.Venue, 0, 5)
	for i := 0; i < 5; i++ {
		// Spread far enough apart that any grid would keep them all.
		venues = append(venues, testVenue(fmt.Sprintf("v%d", i), 30.05+float64(i)*0.08, -97.9))
	}

	visible := engine.SelectVisible(venues, austinBounds, 16)
	require.Len(t, visible, 3)
	assert.Equal(t, "v0", visible[0].ID)
	assert.Equal(t, "v2", visible[2].ID)
}

func TestSelectVisibleGrid(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	t.Run("distant venues keep separate markers", func(t *testing.T) {
		venues := []venue.Venue{
			testVenue("downtown", 30.27, -97.74),
			testVenue("domain", 30.40, -97.70),
		}
		visible := engine.SelectVisible(venues, austinBounds, 10)
		assert.Len(t, visible, 2)
	})

	t.Run("near-coincident venues merge, first wins", func(t *testing.T) {
		venues := []venue.Venue{
			testVenue("first", 30.2701, -97.7401),
			testVenue("second", 30.2702, -97.7403),
		}
		visible := engine.SelectVisible(venues, austinBounds, 10)
		require.Len(t, visible, 1)
		assert.Equal(t, "first", visible[0].ID)
	})

	t.Run("finer zoom separates what coarse zoom merged", func(t *testing.T) {
		venues := []venue.Venue{
			testVenue("a", 30.2701, -97.7401),
			testVenue("b", 30.2721, -97.7401),
		}
		assert.Len(t, engine.SelectVisible(venues, austinBounds, 10), 1)
		assert.Len(t, engine.SelectVisible(venues, austinBounds, 15), 2)
	})
}

func TestSelectVisibleTierCaps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CoarseCap = 2
	cfg.MidCap = 3
	cfg.FineCap = 4
	engine := NewEngine(cfg)

	venues := make([]venue.Venue, 0, 6)
	for i := 0; i < 6; i++ {
		venues = append(venues, testVenue(fmt.Sprintf("v%d", i), 30.05+float64(i)*0.07, -97.9))
	}

	assert.Len(t, engine.SelectVisible(venues, austinBounds, 12), 2)
	assert.Len(t, engine.SelectVisible(venues, austinBounds, 14), 3)
	assert.Len(t, engine.SelectVisible(venues, austinBounds, 15), 4)
}

func TestSelectVisibleEmpty(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	assert.Empty(t, engine.SelectVisible(nil, austinBounds, 12))
	assert.Empty(t, engine.SelectVisible([]venue.Venue{}, austinBounds, 16))
}
