package venue

import (
	"encoding/json"
	"time"

	"github.com/jwi5433/happy-hour/internal/domain/geo"
)

// Venue is a happy-hour venue as served to the map client. Coordinates are
// optional; a venue without them is excluded from all spatial operations.
type Venue struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Address     *string         `json:"address,omitempty"`
	Latitude    *float64        `json:"latitude,omitempty"`
	Longitude   *float64        `json:"longitude,omitempty"`
	Schedule    []ScheduleEntry `json:"time_frames"`
	Deals       []DealEntry     `json:"deals"`
	Website     *string         `json:"website,omitempty"`
	PhoneNumber *string         `json:"phone_number,omitempty"`
	Description *string         `json:"description,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// HasCoordinates reports whether the venue carries a usable location.
func (v *Venue) HasCoordinates() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// Point returns the venue's location. The second return value is false when
// coordinates are missing.
func (v *Venue) Point() (geo.Point, bool) {
	if !v.HasCoordinates() {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *v.Latitude, Lng: *v.Longitude}, true
}

// ScheduleEntry is one weekly happy-hour time window. Upstream data is noisy:
// entries missing any field are invalid and dropped before rendering.
type ScheduleEntry struct {
	Day   string `json:"day"`
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// Valid reports whether the entry has all three fields.
func (e ScheduleEntry) Valid() bool {
	return e.Day != "" && e.Start != "" && e.End != ""
}

// DealEntry is one priced offer. Entries missing name or price are invalid.
type DealEntry struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category,omitempty"`
}

// Valid reports whether the entry has a name and a price.
func (d DealEntry) Valid() bool {
	return d.Name != "" && d.Price != ""
}

// rawScheduleEntry mirrors the loose jsonb shape stored upstream, where any
// field may be null or absent.
type rawScheduleEntry struct {
	Day   *string `json:"day"`
	Start *string `json:"start_time"`
	End   *string `json:"end_time"`
}

type rawDealEntry struct {
	Name     *string `json:"name"`
	Price    *string `json:"price"`
	Category *string `json:"category"`
}

// DecodeSchedule parses the raw time_frames jsonb column. Rows with missing
// or null fields are dropped silently rather than surfaced as errors; the
// upstream scrape quality is uncontrolled and a bad row must never take down
// the venue.
func DecodeSchedule(raw []byte) []ScheduleEntry {
	if len(raw) == 0 {
		return nil
	}

	var rows []rawScheduleEntry
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil
	}

	var entries []ScheduleEntry
	for _, r := range rows {
		if r.Day == nil || r.Start == nil || r.End == nil {
			continue
		}
		e := ScheduleEntry{Day: *r.Day, Start: *r.Start, End: *r.End}
		if e.Valid() {
			entries = append(entries, e)
		}
	}

	return entries
}

// DecodeDeals parses the raw deals jsonb column with the same drop-silently
// policy as DecodeSchedule. A missing category is kept as empty (the curator
// treats it as a non-food deal).
func DecodeDeals(raw []byte) []DealEntry {
	if len(raw) == 0 {
		return nil
	}

	var rows []rawDealEntry
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil
	}

	var deals []DealEntry
	for _, r := range rows {
		if r.Name == nil || r.Price == nil {
			continue
		}
		d := DealEntry{Name: *r.Name, Price: *r.Price}
		if r.Category != nil {
			d.Category = *r.Category
		}
		if d.Valid() {
			deals = append(deals, d)
		}
	}

	return deals
}
