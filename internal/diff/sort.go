package diff

import (
	"sort"
	"time"

	"unit-watcher/internal/models"
)

// DaysEarlier returns how many whole days before the primary check-in a
// suggested check-in falls. Secondary queries are defined as the primary
// date minus a delta, so the result is non-negative for well-formed
// configurations.
func DaysEarlier(primaryCheckIn, suggestedCheckIn time.Time) int {
	return int(primaryCheckIn.Sub(suggestedCheckIn).Hours() / 24)
}

// SortSuggestions orders suggestion rows for presentation: smallest
// compromise first (days earlier ascending), then price ascending with
// unknown prices last, then size descending as the final tie-break.
func SortSuggestions(rows []Row, primaryCheckIn time.Time) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := DaysEarlier(primaryCheckIn, out[i].CheckInDate), DaysEarlier(primaryCheckIn, out[j].CheckInDate)
		if di != dj {
			return di < dj
		}
		if PriceLess(out[i].PriceJPY, out[j].PriceJPY) {
			return true
		}
		if PriceLess(out[j].PriceJPY, out[i].PriceJPY) {
			return false
		}
		return sizeOrZero(out[i].SizeSquareMeters) > sizeOrZero(out[j].SizeSquareMeters)
	})

	return out
}

// SortByPrice orders rows by price ascending with unknown prices last,
// then size descending. Used for the roundup's primary unit listing.
func SortByPrice(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		if PriceLess(out[i].PriceJPY, out[j].PriceJPY) {
			return true
		}
		if PriceLess(out[j].PriceJPY, out[i].PriceJPY) {
			return false
		}
		return sizeOrZero(out[i].SizeSquareMeters) > sizeOrZero(out[j].SizeSquareMeters)
	})

	return out
}

func sizeOrZero(size *float64) float64 {
	if size == nil {
		return 0
	}
	return *size
}

// FilterFirstFloor drops rows whose inferred floor is 1. Rows with an
// unknown floor are kept. The filter must be applied to both snapshots
// before diffing so that a first-floor unit never shows up as a
// phantom new or removed entry.
func FilterFirstFloor(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if isFirstFloor(row.UnitNumber) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// FilterFirstFloorMap is FilterFirstFloor over a keyed snapshot.
func FilterFirstFloorMap(rows map[int64]Row) map[int64]Row {
	out := make(map[int64]Row, len(rows))
	for id, row := range rows {
		if isFirstFloor(row.UnitNumber) {
			continue
		}
		out[id] = row
	}
	return out
}

func isFirstFloor(unitNumber string) bool {
	floor := models.InferFloor(unitNumber)
	return floor != nil && *floor == 1
}
