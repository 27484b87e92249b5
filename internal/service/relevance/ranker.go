package relevance

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jwi5433/happy-hour/internal/domain/geo"
	"github.com/jwi5433/happy-hour/internal/domain/venue"
	"github.com/jwi5433/happy-hour/internal/service/schedule"
)

const (
	// maxContextVenues caps the subset handed to the assistant.
	maxContextVenues = 20

	// minContextVenues is the padding floor: when intent filtering leaves
	// fewer venues, the remainder is sampled randomly up to this count.
	minContextVenues = 10
)

// Ranker orders and filters venues by proximity and schedule relevance.
type Ranker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRanker creates a ranker with a process-local random source for context
// padding. Determinism is not required.
func NewRanker() *Ranker {
	return &Ranker{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RankByDistance returns the venues sorted ascending by great-circle
// distance from the reference point. Venues without coordinates rank last.
// The input slice is not modified.
func (r *Ranker) RankByDistance(venues []venue.Venue, ref geo.Point) []venue.Venue {
	ranked := make([]venue.Venue, len(venues))
	copy(ranked, venues)

	sort.SliceStable(ranked, func(i, j int) bool {
		return distanceFrom(ranked[i], ref) < distanceFrom(ranked[j], ref)
	})

	return ranked
}

func distanceFrom(v venue.Venue, ref geo.Point) float64 {
	p, ok := v.Point()
	if !ok {
		return math.Inf(1)
	}
	return geo.DistanceKm(ref, p)
}

// IsCurrentlyActive reports whether any valid schedule entry covers the
// given weekday name and minutes-of-day, endpoints inclusive. Times parse
// leniently (malformed strings read as 00:00).
func IsCurrentlyActive(v venue.Venue, dayName string, minutesOfDay int) bool {
	for _, e := range v.Schedule {
		if !e.Valid() || e.Day != dayName {
			continue
		}
		start := schedule.ParseClock(e.Start)
		end := schedule.ParseClock(e.End)
		if minutesOfDay >= start && minutesOfDay <= end {
			return true
		}
	}
	return false
}

// Intent keywords for narrowing assistant context. Matching is substring
// based over the lowercased query.
var (
	timeKeywords     = []string{"now", "tonight", "open", "currently", "right now"}
	locationKeywords = []string{"near", "nearby", "close", "closest", "around me", "walking"}
	tasteKeywords    = []string{
		"food", "eat", "snack", "appetizer", "taco", "pizza", "wings",
		"drink", "beer", "wine", "cocktail", "margarita", "whiskey",
	}
)

// SelectContext curates the venue subset handed to the assistant for a
// free-text query. Keyword intents narrow the candidates: a time intent
// keeps venues active right now, a taste intent keeps venues with matching
// deals, and a location intent (or no match at all) falls back to distance
// ranking from the reference point. The result is capped at 20 and padded
// to at least 10 by random sampling when filtering was too aggressive.
func (r *Ranker) SelectContext(venues []venue.Venue, query string, ref *geo.Point, now time.Time) []venue.Venue {
	q := strings.ToLower(query)

	candidates := venues
	matched := false

	if containsAny(q, timeKeywords) {
		candidates = filterActive(candidates, now)
		matched = true
	}

	if words := matchedKeywords(q, tasteKeywords); len(words) > 0 {
		candidates = filterByDeals(candidates, words)
		matched = true
	}

	if containsAny(q, locationKeywords) && ref != nil {
		candidates = r.RankByDistance(candidates, *ref)
		matched = true
	}

	// Plain distance ranking when no intent applied or filtering emptied
	// the set.
	if !matched || len(candidates) == 0 {
		if ref != nil {
			candidates = r.RankByDistance(venues, *ref)
		} else {
			candidates = venues
		}
	}

	if len(candidates) > maxContextVenues {
		candidates = candidates[:maxContextVenues]
	}

	return r.pad(candidates, venues)
}

// pad tops the selection up to minContextVenues with random venues from the
// remainder so the assistant always has enough to talk about.
func (r *Ranker) pad(selected, all []venue.Venue) []venue.Venue {
	if len(selected) >= minContextVenues || len(all) <= len(selected) {
		return selected
	}

	chosen := make(map[string]struct{}, len(selected))
	for _, v := range selected {
		chosen[v.ID] = struct{}{}
	}

	var remainder []venue.Venue
	for _, v := range all {
		if _, ok := chosen[v.ID]; !ok {
			remainder = append(remainder, v)
		}
	}

	r.mu.Lock()
	r.rnd.Shuffle(len(remainder), func(i, j int) {
		remainder[i], remainder[j] = remainder[j], remainder[i]
	})
	r.mu.Unlock()

	padded := make([]venue.Venue, len(selected), minContextVenues)
	copy(padded, selected)
	for _, v := range remainder {
		if len(padded) >= minContextVenues {
			break
		}
		padded = append(padded, v)
	}

	return padded
}

func filterActive(venues []venue.Venue, now time.Time) []venue.Venue {
	day := now.Weekday().String()
	minutes := now.Hour()*60 + now.Minute()

	var active []venue.Venue
	for _, v := range venues {
		if IsCurrentlyActive(v, day, minutes) {
			active = append(active, v)
		}
	}
	return active
}

func filterByDeals(venues []venue.Venue, words []string) []venue.Venue {
	var matching []venue.Venue
	for _, v := range venues {
		if dealsMention(v, words) {
			matching = append(matching, v)
		}
	}
	return matching
}

func dealsMention(v venue.Venue, words []string) bool {
	for _, d := range v.Deals {
		text := strings.ToLower(d.Name + " " + d.Category)
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
	}
	return false
}

func containsAny(q string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

func matchedKeywords(q string, keywords []string) []string {
	var matched []string
	for _, k := range keywords {
		if strings.Contains(q, k) {
			matched = append(matched, k)
		}
	}
	return matched
}
