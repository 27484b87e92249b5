package declutter

import (
	"math"

	"github.com/jwi5433/happy-hour/internal/domain/geo"
	"github.com/jwi5433/happy-hour/internal/domain/venue"
)

// Config contains the tuning knobs for marker decluttering. Zoom tiers get
// coarser grids and tighter caps as the user zooms out.
type Config struct {
	// DetailZoom is the zoom level at or above which the grid is skipped
	// and everything in view is shown, up to DetailCap.
	DetailZoom int
	DetailCap  int

	// Grid cell sizes in degrees per zoom tier.
	CoarseCell float64 // zoom <= 12
	MidCell    float64 // zoom <= 14
	FineCell   float64 // zoom 15

	// Marker caps per zoom tier.
	CoarseCap int
	MidCap    int
	FineCap   int
}

// DefaultConfig returns the tuning used by the map view.
func DefaultConfig() Config {
	return Config{
		DetailZoom: 16,
		DetailCap:  300,
		CoarseCell: 0.006,
		MidCell:    0.003,
		FineCell:   0.0015,
		CoarseCap:  100,
		MidCap:     150,
		FineCap:    200,
	}
}

// Engine selects which subset of venues to surface as markers for a given
// viewport and zoom level.
type Engine struct {
	cfg Config
}

// NewEngine creates a declutter engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

type cellKey struct {
	x, y int
}

// SelectVisible returns the venues to render for the given bounds and zoom.
// Venues without coordinates or outside the bounds are excluded. At detail
// zoom everything in view is returned up to a cap; below it, venues are
// bucketed into a zoom-sized grid keeping the first venue per cell, then
// capped per tier. The result is always a subset of the input in input
// order, and never exceeds the applicable cap.
func (e *Engine) SelectVisible(venues []venue.Venue, bounds geo.BoundingBox, zoom int) []venue.Venue {
	var inBounds []venue.Venue
	for _, v := range venues {
		p, ok := v.Point()
		if !ok || !bounds.Contains(p) {
			continue
		}
		inBounds = append(inBounds, v)
	}

	if zoom >= e.cfg.DetailZoom {
		return capped(inBounds, e.cfg.DetailCap)
	}

	cellSize := e.cellSize(zoom)

	// One venue per occupied cell, first wins. First-wins is an intentional
	// simplification over nearest-to-cell-center; it keeps the pass O(n).
	occupied := make(map[cellKey]struct{})
	var filtered []venue.Venue
	for _, v := range inBounds {
		p, _ := v.Point()
		key := cellKey{
			x: int(math.Floor(p.Lng / cellSize)),
			y: int(math.Floor(p.Lat / cellSize)),
		}
		if _, taken := occupied[key]; taken {
			continue
		}
		occupied[key] = struct{}{}
		filtered = append(filtered, v)
	}

	return capped(filtered, e.maxMarkers(zoom))
}

func (e *Engine) cellSize(zoom int) float64 {
	switch {
	case zoom <= 12:
		return e.cfg.CoarseCell
	case zoom <= 14:
		return e.cfg.MidCell
	default:
		return e.cfg.FineCell
	}
}

func (e *Engine) maxMarkers(zoom int) int {
	switch {
	case zoom <= 12:
		return e.cfg.CoarseCap
	case zoom <= 14:
		return e.cfg.MidCap
	default:
		return e.cfg.FineCap
	}
}

func capped(venues []venue.Venue, max int) []venue.Venue {
	if len(venues) > max {
		return venues[:max]
	}
	return venues
}
