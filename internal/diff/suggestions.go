package diff

// SuggestionPriceChange pairs the latest and previous observation of a
// suggestion whose price differs between the two snapshots.
type SuggestionPriceChange struct {
	Latest   Row
	Previous Row
}

// CompareSuggestions diffs two secondary-aggregate sets.
//
// Removal is stability-aware: a unit that vanished from the secondary
// aggregate is reported as removed only when it is also absent from the
// latest primary result. A unit that graduated into the primary set
// became available for the actual target dates, and reporting it as a
// removed suggestion would contradict the primary "new unit" signal
// already covering it.
func CompareSuggestions(latest, previous map[int64]Row, latestPrimaryUnits map[int64]bool) (newSuggestions, removedSuggestions map[int64]Row, priceChanges []SuggestionPriceChange) {
	newSuggestions = make(map[int64]Row)
	removedSuggestions = make(map[int64]Row)

	for id, row := range latest {
		if _, ok := previous[id]; !ok {
			newSuggestions[id] = row
		}
	}

	for id, row := range previous {
		if _, ok := latest[id]; ok {
			continue
		}
		if latestPrimaryUnits[id] {
			continue
		}
		removedSuggestions[id] = row
	}

	for id, latestRow := range latest {
		prevRow, ok := previous[id]
		if !ok {
			continue
		}
		if !PriceEqual(latestRow.PriceJPY, prevRow.PriceJPY) {
			priceChanges = append(priceChanges, SuggestionPriceChange{
				Latest:   latestRow,
				Previous: prevRow,
			})
		}
	}

	return newSuggestions, removedSuggestions, priceChanges
}
