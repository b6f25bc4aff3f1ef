package diff

import "testing"

func TestEngineCompareGateCondition(t *testing.T) {
	engine := NewEngine(Options{})
	latestAt, previousAt := date("2026-08-30"), date("2026-08-29")
	primaryCheckIn := date("2026-09-29")

	same := map[int64]Row{1: primaryRow(1, price(100000))}

	report := engine.Compare(latestAt, previousAt, same, same, nil, nil, primaryCheckIn)
	if report.HasChanges() {
		t.Fatalf("identical snapshots must not trigger the notification gate")
	}

	latest := map[int64]Row{
		1: primaryRow(1, price(100000)),
		2: primaryRow(2, price(90000)),
	}
	report = engine.Compare(latestAt, previousAt, latest, same, nil, nil, primaryCheckIn)
	if !report.HasChanges() {
		t.Fatalf("a new primary unit must trigger the notification gate")
	}
}

func TestEngineGateFiresOnSuggestionOnlyChange(t *testing.T) {
	engine := NewEngine(Options{})
	latestAt, previousAt := date("2026-08-30"), date("2026-08-29")
	primaryCheckIn := date("2026-09-29")

	primary := map[int64]Row{1: primaryRow(1, price(100000))}
	latestSecondary := []Row{secondaryRow(9, 2, "2026-09-26", price(80000))}

	report := engine.Compare(latestAt, previousAt, primary, primary, latestSecondary, nil, primaryCheckIn)

	if !report.HasChanges() {
		t.Fatalf("a new suggestion alone must trigger the gate")
	}
	if len(report.NewSuggestions) != 1 || report.NewSuggestions[0].UnitID != 9 {
		t.Fatalf("new suggestions = %+v, want unit 9", report.NewSuggestions)
	}
}

// A first-floor unit that disappears between snapshots must not produce
// a phantom removal when the first-floor filter is on: the filter
// applies to both sides before diffing.
func TestEngineFirstFloorFilterAppliedToBothSides(t *testing.T) {
	engine := NewEngine(Options{ExcludeFirstFloor: true})
	latestAt, previousAt := date("2026-08-30"), date("2026-08-29")
	primaryCheckIn := date("2026-09-29")

	previous := map[int64]Row{
		1: {UnitID: 1, UnitNumber: "102", PriceJPY: price(100000)}, // first floor
		2: {UnitID: 2, UnitNumber: "502", PriceJPY: price(150000)},
	}
	latest := map[int64]Row{
		2: {UnitID: 2, UnitNumber: "502", PriceJPY: price(150000)},
	}

	report := engine.Compare(latestAt, previousAt, latest, previous, nil, nil, primaryCheckIn)

	if len(report.Primary.Removed) != 0 {
		t.Fatalf("first-floor disappearance leaked into the diff: %+v", report.Primary.Removed)
	}
	if report.HasChanges() {
		t.Fatalf("no visible change expected once floor filtering is symmetric")
	}
}

func TestEngineStabilityThroughFullCompare(t *testing.T) {
	engine := NewEngine(Options{})
	latestAt, previousAt := date("2026-08-30"), date("2026-08-29")
	primaryCheckIn := date("2026-09-29")

	// Unit 5 was a suggestion; in the latest snapshot it appears in the
	// primary result instead.
	previousSecondary := []Row{secondaryRow(5, 2, "2026-09-20", price(150000))}
	latestPrimary := map[int64]Row{5: primaryRow(5, price(150000))}

	report := engine.Compare(latestAt, previousAt, latestPrimary, map[int64]Row{}, nil, previousSecondary, primaryCheckIn)

	if len(report.RemovedSuggestions) != 0 {
		t.Fatalf("graduated unit reported as removed suggestion: %+v", report.RemovedSuggestions)
	}
	if _, ok := report.Primary.New[5]; !ok {
		t.Fatalf("graduated unit must surface as a new primary unit")
	}
}

func TestEngineRoundupOrdering(t *testing.T) {
	engine := NewEngine(Options{})
	primaryCheckIn := date("2026-09-29")

	primary := map[int64]Row{
		1: {UnitID: 1, UnitNumber: "502", PriceJPY: price(200000)},
		2: {UnitID: 2, UnitNumber: "502", PriceJPY: price(100000)},
	}
	secondary := []Row{
		secondaryRow(10, 2, "2026-09-26", price(100000)),
		secondaryRow(11, 3, "2026-09-28", price(300000)),
	}

	roundup := engine.Roundup(date("2026-08-30"), primary, secondary, primaryCheckIn)

	if roundup.PrimaryUnits[0].UnitID != 2 {
		t.Errorf("primary units not ordered by price: %+v", roundup.PrimaryUnits)
	}
	if roundup.Suggestions[0].UnitID != 11 {
		t.Errorf("suggestions not ordered by days earlier: %+v", roundup.Suggestions)
	}
}
