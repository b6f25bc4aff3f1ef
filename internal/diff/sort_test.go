package diff

import (
	"testing"
	"time"
)

func TestSortSuggestionsByDaysEarlier(t *testing.T) {
	primaryCheckIn := date("2026-09-29")
	rows := []Row{
		secondaryRow(1, 2, "2026-09-26", price(100000)), // 3 days earlier
		secondaryRow(2, 3, "2026-09-28", price(200000)), // 1 day earlier
	}

	sorted := SortSuggestions(rows, primaryCheckIn)

	if sorted[0].UnitID != 2 || sorted[1].UnitID != 1 {
		t.Fatalf("order = [%d %d], want the smaller compromise first [2 1]", sorted[0].UnitID, sorted[1].UnitID)
	}
}

func TestSortSuggestionsPriceThenSize(t *testing.T) {
	primaryCheckIn := date("2026-09-29")
	rows := []Row{
		{UnitID: 1, CheckInDate: date("2026-09-26"), PriceJPY: nil, UnitNumber: "502"},
		{UnitID: 2, CheckInDate: date("2026-09-26"), PriceJPY: price(150000), SizeSquareMeters: size(30), UnitNumber: "502"},
		{UnitID: 3, CheckInDate: date("2026-09-26"), PriceJPY: price(150000), SizeSquareMeters: size(45), UnitNumber: "502"},
		{UnitID: 4, CheckInDate: date("2026-09-26"), PriceJPY: price(120000), UnitNumber: "502"},
	}

	sorted := SortSuggestions(rows, primaryCheckIn)

	want := []int64{4, 3, 2, 1}
	for i, id := range want {
		if sorted[i].UnitID != id {
			t.Fatalf("position %d = unit %d, want %d (full order %v)", i, sorted[i].UnitID, id, sorted)
		}
	}
}

func TestDaysEarlier(t *testing.T) {
	if d := DaysEarlier(date("2026-09-29"), date("2026-09-26")); d != 3 {
		t.Errorf("DaysEarlier = %d, want 3", d)
	}
	if d := DaysEarlier(date("2026-09-29"), date("2026-09-29")); d != 0 {
		t.Errorf("DaysEarlier same day = %d, want 0", d)
	}
}

func TestFilterFirstFloor(t *testing.T) {
	rows := []Row{
		{UnitID: 1, UnitNumber: "101"}, // floor 1
		{UnitID: 2, UnitNumber: "7"},   // single digit, floor 1
		{UnitID: 3, UnitNumber: "502"}, // floor 5
		{UnitID: 4, UnitNumber: ""},    // unknown, kept
		{UnitID: 5, UnitNumber: "B1"},  // unknown, kept
	}

	out := FilterFirstFloor(rows)

	if len(out) != 3 {
		t.Fatalf("filtered to %d rows, want 3", len(out))
	}
	for _, row := range out {
		if row.UnitID == 1 || row.UnitID == 2 {
			t.Errorf("first-floor unit %d survived the filter", row.UnitID)
		}
	}
}

func TestFilterFirstFloorMapMatchesSlice(t *testing.T) {
	rows := map[int64]Row{
		1: {UnitID: 1, UnitNumber: "103"},
		2: {UnitID: 2, UnitNumber: "203"},
	}

	out := FilterFirstFloorMap(rows)

	if _, ok := out[1]; ok {
		t.Errorf("unit 1 on floor 1 survived the filter")
	}
	if _, ok := out[2]; !ok {
		t.Errorf("unit 2 on floor 2 dropped by the filter")
	}
}

func TestSortByPrice(t *testing.T) {
	rows := []Row{
		{UnitID: 1, PriceJPY: nil},
		{UnitID: 2, PriceJPY: price(200000)},
		{UnitID: 3, PriceJPY: price(100000)},
	}

	sorted := SortByPrice(rows)

	want := []int64{3, 2, 1}
	for i, id := range want {
		if sorted[i].UnitID != id {
			t.Fatalf("position %d = unit %d, want %d", i, sorted[i].UnitID, id)
		}
	}
}

func TestSortSuggestionsDoesNotMutateInput(t *testing.T) {
	rows := []Row{
		secondaryRow(1, 2, "2026-09-26", price(1)),
		secondaryRow(2, 3, "2026-09-28", price(2)),
	}
	_ = SortSuggestions(rows, time.Date(2026, 9, 29, 0, 0, 0, 0, time.UTC))

	if rows[0].UnitID != 1 || rows[1].UnitID != 2 {
		t.Fatalf("input slice reordered in place")
	}
}
