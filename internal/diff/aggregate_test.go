package diff

import "testing"

func secondaryRow(id int64, queryID uint, checkIn string, priceJPY *int) Row {
	return Row{
		UnitID:      id,
		QueryID:     queryID,
		CheckInDate: date(checkIn),
		PriceJPY:    priceJPY,
		UnitNumber:  "502",
	}
}

func TestAggregateSecondaryPicksClosestCheckIn(t *testing.T) {
	rows := []Row{
		secondaryRow(10, 2, "2026-09-15", price(120000)),
		secondaryRow(10, 3, "2026-09-25", price(125000)),
		secondaryRow(10, 4, "2026-09-01", price(110000)),
	}

	out := AggregateSecondary(rows, nil)

	row, ok := out[10]
	if !ok {
		t.Fatalf("unit 10 missing from aggregate")
	}
	if !row.CheckInDate.Equal(date("2026-09-25")) {
		t.Errorf("check-in = %s, want 2026-09-25", row.CheckInDate.Format("2006-01-02"))
	}
	if *row.PriceJPY != 125000 {
		t.Errorf("price = %d, want the price of the winning row (125000)", *row.PriceJPY)
	}
}

func TestAggregateSecondaryExcludesPrimaryUnits(t *testing.T) {
	rows := []Row{
		secondaryRow(10, 2, "2026-09-15", price(120000)),
		secondaryRow(11, 2, "2026-09-15", price(130000)),
	}
	primary := map[int64]bool{10: true}

	out := AggregateSecondary(rows, primary)

	if _, ok := out[10]; ok {
		t.Errorf("unit 10 is in the primary snapshot and must not be suggested")
	}
	if _, ok := out[11]; !ok {
		t.Errorf("unit 11 missing from aggregate")
	}
}

func TestAggregateSecondaryUniqueness(t *testing.T) {
	rows := []Row{
		secondaryRow(1, 2, "2026-09-10", price(1)),
		secondaryRow(1, 3, "2026-09-20", price(2)),
		secondaryRow(2, 2, "2026-09-10", price(3)),
		secondaryRow(2, 3, "2026-09-20", price(4)),
		secondaryRow(2, 4, "2026-09-05", price(5)),
	}

	out := AggregateSecondary(rows, nil)

	// The map shape enforces one row per unit; what matters is that
	// every qualifying unit survives exactly once.
	if len(out) != 2 {
		t.Fatalf("aggregate holds %d units, want 2", len(out))
	}
}

func TestAggregateSecondaryTieBreakIsDeterministic(t *testing.T) {
	forward := []Row{
		secondaryRow(5, 3, "2026-09-20", price(100)),
		secondaryRow(5, 2, "2026-09-20", price(200)),
	}
	reversed := []Row{forward[1], forward[0]}

	a := AggregateSecondary(forward, nil)
	b := AggregateSecondary(reversed, nil)

	if a[5].QueryID != b[5].QueryID {
		t.Fatalf("tie-break depends on input order: %d vs %d", a[5].QueryID, b[5].QueryID)
	}
	if a[5].QueryID != 2 {
		t.Errorf("tie-break winner = query %d, want the lowest query ID (2)", a[5].QueryID)
	}
}
