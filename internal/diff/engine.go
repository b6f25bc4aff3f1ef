package diff

import (
	"sort"
	"time"
)

// Options configures the engine. It is an explicit value passed in at
// call time; the engine keeps no ambient state.
type Options struct {
	// ExcludeFirstFloor drops first-floor units from both snapshots,
	// primary and secondary alike, before any diffing happens.
	ExcludeFirstFloor bool
}

// Engine runs the primary diff, the secondary aggregation and the
// suggestion diff as one unit, so the alert path, the roundup path and
// any future caller share a single implementation.
type Engine struct {
	opts Options
}

// NewEngine creates an engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Report is the engine's complete output for one snapshot pair, handed
// to the composer fully resolved and presentation-ordered. The composer
// never re-derives aggregation or stability.
type Report struct {
	LatestAt   time.Time
	PreviousAt time.Time

	Primary ChangeSet

	// Suggestions, ordered by days-earlier ascending, then price
	// ascending with unknown last, then size descending.
	NewSuggestions         []Row
	RemovedSuggestions     []Row
	SuggestionPriceChanges []SuggestionPriceChange
}

// HasChanges is the single gate callers use to decide whether any
// outward notification happens. It is the OR across all six collections
// of the report itself, never a recomputation.
func (r *Report) HasChanges() bool {
	return !r.Primary.IsEmpty() ||
		len(r.NewSuggestions) > 0 ||
		len(r.RemovedSuggestions) > 0 ||
		len(r.SuggestionPriceChanges) > 0
}

// Compare produces the full change report between two snapshots.
//
// latestPrimary/previousPrimary are the primary-query rows keyed by
// unit ID. latestSecondary/previousSecondary are the raw per-query
// secondary rows for each snapshot; aggregation happens here.
func (e *Engine) Compare(
	latestAt, previousAt time.Time,
	latestPrimary, previousPrimary map[int64]Row,
	latestSecondary, previousSecondary []Row,
	primaryCheckIn time.Time,
) Report {
	if e.opts.ExcludeFirstFloor {
		latestPrimary = FilterFirstFloorMap(latestPrimary)
		previousPrimary = FilterFirstFloorMap(previousPrimary)
		latestSecondary = FilterFirstFloor(latestSecondary)
		previousSecondary = FilterFirstFloor(previousSecondary)
	}

	latestPrimaryUnits := unitIDSet(latestPrimary)
	previousPrimaryUnits := unitIDSet(previousPrimary)

	latestAggregate := AggregateSecondary(latestSecondary, latestPrimaryUnits)
	previousAggregate := AggregateSecondary(previousSecondary, previousPrimaryUnits)

	newSugg, removedSugg, priceChanges := CompareSuggestions(latestAggregate, previousAggregate, latestPrimaryUnits)

	sort.SliceStable(priceChanges, func(i, j int) bool {
		di := DaysEarlier(primaryCheckIn, priceChanges[i].Latest.CheckInDate)
		dj := DaysEarlier(primaryCheckIn, priceChanges[j].Latest.CheckInDate)
		if di != dj {
			return di < dj
		}
		return PriceLess(priceChanges[i].Latest.PriceJPY, priceChanges[j].Latest.PriceJPY)
	})

	return Report{
		LatestAt:               latestAt,
		PreviousAt:             previousAt,
		Primary:                ComparePrimary(latestPrimary, previousPrimary),
		NewSuggestions:         SortSuggestions(rowsOf(newSugg), primaryCheckIn),
		RemovedSuggestions:     SortSuggestions(rowsOf(removedSugg), primaryCheckIn),
		SuggestionPriceChanges: priceChanges,
	}
}

// Roundup resolves the latest snapshot into presentation-ordered
// listings without diffing: all primary units by price, all aggregated
// suggestions by compromise. Used when no prior snapshot is needed.
type Roundup struct {
	SnapshotAt   time.Time
	PrimaryUnits []Row
	Suggestions  []Row
}

// Roundup builds a roundup view over a single snapshot.
func (e *Engine) Roundup(snapshotAt time.Time, primary map[int64]Row, secondary []Row, primaryCheckIn time.Time) Roundup {
	if e.opts.ExcludeFirstFloor {
		primary = FilterFirstFloorMap(primary)
		secondary = FilterFirstFloor(secondary)
	}

	aggregate := AggregateSecondary(secondary, unitIDSet(primary))

	return Roundup{
		SnapshotAt:   snapshotAt,
		PrimaryUnits: SortByPrice(rowsOf(primary)),
		Suggestions:  SortSuggestions(rowsOf(aggregate), primaryCheckIn),
	}
}

func unitIDSet(rows map[int64]Row) map[int64]bool {
	set := make(map[int64]bool, len(rows))
	for id := range rows {
		set[id] = true
	}
	return set
}

func rowsOf(rows map[int64]Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	return out
}
