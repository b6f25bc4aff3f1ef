package diff

import (
	"sort"
	"time"
)

// Row is one availability observation joined with its unit's display
// fields. Rows are built once at the store boundary; the engines never
// touch raw database records.
type Row struct {
	UnitID           int64
	PropertyID       int64
	PropertyNameEN   string
	Layout           string
	CityEN           string
	UnitNumber       string
	SizeSquareMeters *float64
	PriceJPY         *int

	// Query context. For secondary rows CheckInDate is the check-in of
	// the query the row was observed under.
	QueryID     uint
	CheckInDate time.Time
}

// PriceChange records a unit whose price differs between two snapshots.
// Latest carries the unit's current row so the composer can render it
// without a second lookup.
type PriceChange struct {
	UnitID   int64
	OldPrice *int
	NewPrice *int
	Latest   Row
}

// ChangeSet is the result of diffing two primary-query snapshots.
// New, Removed and PriceChanged are disjoint by construction: the first
// two are set differences, the third only considers the intersection.
type ChangeSet struct {
	New          map[int64]Row
	Removed      map[int64]Row
	PriceChanged map[int64]PriceChange
}

// ComparePrimary diffs two primary-query snapshots keyed by unit ID.
// Unit ID equality is the sole identity criterion and prices compare by
// exact integer equality through PriceEqual. The returned sets are
// unordered; presentation ordering belongs to the composer.
func ComparePrimary(latest, previous map[int64]Row) ChangeSet {
	cs := ChangeSet{
		New:          make(map[int64]Row),
		Removed:      make(map[int64]Row),
		PriceChanged: make(map[int64]PriceChange),
	}

	for id, row := range latest {
		if _, ok := previous[id]; !ok {
			cs.New[id] = row
		}
	}
	for id, row := range previous {
		if _, ok := latest[id]; !ok {
			cs.Removed[id] = row
		}
	}
	for id, latestRow := range latest {
		prevRow, ok := previous[id]
		if !ok {
			continue
		}
		if !PriceEqual(latestRow.PriceJPY, prevRow.PriceJPY) {
			cs.PriceChanged[id] = PriceChange{
				UnitID:   id,
				OldPrice: prevRow.PriceJPY,
				NewPrice: latestRow.PriceJPY,
				Latest:   latestRow,
			}
		}
	}

	return cs
}

// IsEmpty reports whether the change set contains no changes at all.
func (cs ChangeSet) IsEmpty() bool {
	return len(cs.New) == 0 && len(cs.Removed) == 0 && len(cs.PriceChanged) == 0
}

// SortedNew returns the new rows ordered by unit ID ascending.
func (cs ChangeSet) SortedNew() []Row {
	return sortedByUnitID(cs.New)
}

// SortedRemoved returns the removed rows ordered by unit ID ascending.
func (cs ChangeSet) SortedRemoved() []Row {
	return sortedByUnitID(cs.Removed)
}

// SortedPriceChanged returns the price changes ordered by unit ID ascending.
func (cs ChangeSet) SortedPriceChanged() []PriceChange {
	out := make([]PriceChange, 0, len(cs.PriceChanged))
	for _, pc := range cs.PriceChanged {
		out = append(out, pc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out
}

func sortedByUnitID(rows map[int64]Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out
}

// PriceEqual compares two nullable prices. A nil price carries no
// information, so nil never equals anything, including another nil.
// Real prices compare by exact integer equality, no tolerance.
func PriceEqual(a, b *int) bool {
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// PriceLess is the total-order comparator used for presentation sorting:
// real prices ascend, nil sorts after every real price.
func PriceLess(a, b *int) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return *a < *b
}
