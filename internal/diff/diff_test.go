package diff

import (
	"testing"
	"time"
)

func price(v int) *int {
	return &v
}

func size(v float64) *float64 {
	return &v
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func primaryRow(id int64, priceJPY *int) Row {
	return Row{UnitID: id, PriceJPY: priceJPY, UnitNumber: "502"}
}

func TestComparePrimaryScenario(t *testing.T) {
	previous := map[int64]Row{
		1: primaryRow(1, price(100000)),
		2: primaryRow(2, price(200000)),
	}
	latest := map[int64]Row{
		2: primaryRow(2, price(210000)),
		3: primaryRow(3, price(150000)),
	}

	cs := ComparePrimary(latest, previous)

	if len(cs.New) != 1 {
		t.Fatalf("new = %d rows, want 1", len(cs.New))
	}
	if _, ok := cs.New[3]; !ok {
		t.Errorf("unit 3 should be new")
	}
	if len(cs.Removed) != 1 {
		t.Fatalf("removed = %d rows, want 1", len(cs.Removed))
	}
	if _, ok := cs.Removed[1]; !ok {
		t.Errorf("unit 1 should be removed")
	}
	if len(cs.PriceChanged) != 1 {
		t.Fatalf("price changed = %d rows, want 1", len(cs.PriceChanged))
	}
	pc, ok := cs.PriceChanged[2]
	if !ok {
		t.Fatalf("unit 2 should have a price change")
	}
	if *pc.OldPrice != 200000 || *pc.NewPrice != 210000 {
		t.Errorf("price change = %d -> %d, want 200000 -> 210000", *pc.OldPrice, *pc.NewPrice)
	}
}

func TestComparePrimaryPartition(t *testing.T) {
	previous := map[int64]Row{
		1: primaryRow(1, price(100000)),
		2: primaryRow(2, price(200000)),
		4: primaryRow(4, price(90000)),
	}
	latest := map[int64]Row{
		2: primaryRow(2, price(210000)),
		3: primaryRow(3, price(150000)),
		4: primaryRow(4, price(90000)),
	}

	cs := ComparePrimary(latest, previous)

	for id := range cs.New {
		if _, ok := cs.Removed[id]; ok {
			t.Errorf("unit %d in both new and removed", id)
		}
		if _, ok := cs.PriceChanged[id]; ok {
			t.Errorf("unit %d in both new and price changed", id)
		}
	}
	for id := range cs.Removed {
		if _, ok := cs.PriceChanged[id]; ok {
			t.Errorf("unit %d in both removed and price changed", id)
		}
	}
	if _, ok := cs.PriceChanged[4]; ok {
		t.Errorf("unit 4 price unchanged, should not be reported")
	}
}

func TestComparePrimaryIdempotence(t *testing.T) {
	snapshot := map[int64]Row{
		1: primaryRow(1, price(100000)),
		2: primaryRow(2, nil),
	}

	cs := ComparePrimary(snapshot, snapshot)

	if len(cs.New) != 0 || len(cs.Removed) != 0 {
		t.Fatalf("self-diff produced new=%d removed=%d, want 0/0", len(cs.New), len(cs.Removed))
	}
	// A nil price never equals another nil, so the self-diff of a
	// priceless unit still reports it.
	if len(cs.PriceChanged) != 1 {
		t.Fatalf("price changed = %d, want 1 (nil price unit)", len(cs.PriceChanged))
	}
	if cs.IsEmpty() {
		t.Fatalf("change set with a price change must not be empty")
	}
}

func TestPriceEqual(t *testing.T) {
	if !PriceEqual(price(100), price(100)) {
		t.Errorf("equal real prices must compare equal")
	}
	if PriceEqual(price(100), price(101)) {
		t.Errorf("different prices must not compare equal")
	}
	if PriceEqual(nil, price(100)) || PriceEqual(price(100), nil) {
		t.Errorf("nil must not equal a real price")
	}
	if PriceEqual(nil, nil) {
		t.Errorf("two nil prices must not compare equal")
	}
}

func TestPriceLessPlacesNilLast(t *testing.T) {
	if !PriceLess(price(1), nil) {
		t.Errorf("real price must sort before nil")
	}
	if PriceLess(nil, price(1)) {
		t.Errorf("nil must not sort before a real price")
	}
	if PriceLess(nil, nil) {
		t.Errorf("nil is never less than nil")
	}
}

func TestChangeSetSortedAccessors(t *testing.T) {
	cs := ComparePrimary(
		map[int64]Row{9: primaryRow(9, price(1)), 3: primaryRow(3, price(1)), 7: primaryRow(7, price(1))},
		map[int64]Row{},
	)

	sorted := cs.SortedNew()
	if len(sorted) != 3 {
		t.Fatalf("sorted new = %d rows, want 3", len(sorted))
	}
	for i, want := range []int64{3, 7, 9} {
		if sorted[i].UnitID != want {
			t.Errorf("sorted[%d] = %d, want %d", i, sorted[i].UnitID, want)
		}
	}
}
