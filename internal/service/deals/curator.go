package deals

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jwi5433/happy-hour/internal/domain/venue"
)

// NoDeals is the display sentinel for venues with no surviving deals.
const NoDeals = "No deals listed"

// maxPlausibleDiscount is the cutoff above which a percentage deal is
// treated as scrape noise rather than a real offer.
const maxPlausibleDiscount = 80

// FoodCategory marks deals shown in the food section; everything else is
// grouped under drinks.
const FoodCategory = "Food"

var percentPattern = regexp.MustCompile(`(\d+)%`)

// Curate filters a venue's raw deals down to the plausible, unique set:
// entries missing a name or price are dropped, discounts over 80% and
// "free"/"100% off" offers are treated as erroneous, and exact
// (category, name, price) duplicates keep only their first occurrence.
// Input order of survivors is preserved.
func Curate(raw []venue.DealEntry) []venue.DealEntry {
	var curated []venue.DealEntry
	seen := make(map[[3]string]struct{})

	for _, d := range raw {
		if !d.Valid() {
			continue
		}
		if implausiblePrice(d.Price) {
			continue
		}

		key := [3]string{d.Category, d.Name, d.Price}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		curated = append(curated, d)
	}

	return curated
}

// Partition splits curated deals into the two display sections: drinks
// (anything not categorized as food) and food. It is a pure filter and does
// no further curation.
func Partition(curated []venue.DealEntry) (drinks, food []venue.DealEntry) {
	for _, d := range curated {
		if d.Category == FoodCategory {
			food = append(food, d)
		} else {
			drinks = append(drinks, d)
		}
	}
	return drinks, food
}

func implausiblePrice(price string) bool {
	if m := percentPattern.FindStringSubmatch(price); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxPlausibleDiscount {
			return true
		}
	}

	lower := strings.ToLower(price)
	return strings.Contains(lower, "free") || strings.Contains(lower, "100% off")
}
