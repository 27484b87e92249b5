package schedule

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jwi5433/happy-hour/internal/domain/venue"
)

// NoHappyHours is the display sentinel for venues with no valid schedule.
const NoHappyHours = "No happy hours listed"

// dayOrder is the canonical weekday ordering used for grouping and range
// collapsing. Unknown day names get unknownDayWeight and sort after Sunday.
var dayOrder = map[string]int{
	"Monday":    1,
	"Tuesday":   2,
	"Wednesday": 3,
	"Thursday":  4,
	"Friday":    5,
	"Saturday":  6,
	"Sunday":    7,
}

const unknownDayWeight = 8

// DayOrder returns the canonical weight of a weekday name, Monday=1 through
// Sunday=7. Unrecognized names sort last.
func DayOrder(day string) int {
	if w, ok := dayOrder[day]; ok {
		return w
	}
	return unknownDayWeight
}

// Line is one consolidated schedule row: a day-range label and the time
// windows those days share.
type Line struct {
	Days  string `json:"days"`
	Times string `json:"times"`
}

// Consolidate collapses raw weekly entries into the minimal set of lines,
// one per distinct group of days sharing an identical set of time windows.
// Invalid entries are dropped. A day with split hours contributes a combined
// time set, so "Monday 17-19" plus "Monday 21-23" groups separately from a
// plain "Tuesday 17-19".
//
// Output lines are sorted by the earliest day in each group so the result is
// deterministic regardless of input order.
func Consolidate(entries []venue.ScheduleEntry) []Line {
	// Per-day set of distinct "start-end" windows.
	dayWindows := make(map[string]map[string]struct{})
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		if dayWindows[e.Day] == nil {
			dayWindows[e.Day] = make(map[string]struct{})
		}
		dayWindows[e.Day][e.Start+"-"+e.End] = struct{}{}
	}

	if len(dayWindows) == 0 {
		return nil
	}

	// Reverse map: sorted comma-joined window set -> days sharing it.
	groups := make(map[string][]string)
	for day, windows := range dayWindows {
		keys := make([]string, 0, len(windows))
		for w := range windows {
			keys = append(keys, w)
		}
		sort.Strings(keys)
		timeKey := strings.Join(keys, ", ")
		groups[timeKey] = append(groups[timeKey], day)
	}

	lines := make([]Line, 0, len(groups))
	for timeKey, days := range groups {
		sort.Slice(days, func(i, j int) bool {
			oi, oj := DayOrder(days[i]), DayOrder(days[j])
			if oi != oj {
				return oi < oj
			}
			return days[i] < days[j]
		})
		lines = append(lines, Line{
			Days:  collapseDays(days),
			Times: timeKey,
		})
	}

	sort.Slice(lines, func(i, j int) bool {
		oi, oj := firstDayWeight(lines[i].Days), firstDayWeight(lines[j].Days)
		if oi != oj {
			return oi < oj
		}
		return lines[i].Times < lines[j].Times
	})

	return lines
}

// Render formats the consolidated lines as display text, one "days • times"
// row per line. Returns the sentinel when nothing is listed.
func Render(entries []venue.ScheduleEntry) string {
	lines := Consolidate(entries)
	if len(lines) == 0 {
		return NoHappyHours
	}

	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = l.Days + " • " + l.Times
	}
	return strings.Join(rows, "\n")
}

// collapseDays merges runs of consecutive days (by canonical order) into
// "First-Last" labels; non-consecutive days stay comma-separated.
func collapseDays(days []string) string {
	if len(days) == 1 {
		return days[0]
	}

	var ranges []string
	rangeStart := days[0]
	prev := days[0]

	flush := func() {
		if rangeStart == prev {
			ranges = append(ranges, rangeStart)
		} else {
			ranges = append(ranges, rangeStart+"-"+prev)
		}
	}

	for _, day := range days[1:] {
		if DayOrder(day)-DayOrder(prev) == 1 {
			prev = day
			continue
		}
		flush()
		rangeStart = day
		prev = day
	}
	flush()

	return strings.Join(ranges, ", ")
}

func firstDayWeight(label string) int {
	first := label
	if i := strings.IndexAny(label, ",-"); i >= 0 {
		first = label[:i]
	}
	return DayOrder(strings.TrimSpace(first))
}

// ParseClock converts an "HH:MM" string to minutes since midnight. Malformed
// strings parse as 0 rather than erroring; the upstream data favors
// availability over strictness, which can make a venue look open at midnight.
func ParseClock(s string) int {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0
	}

	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || h < 0 {
		return 0
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || m < 0 {
		return 0
	}

	return h*60 + m
}
