package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"unit-watcher/internal/fetcher"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	size := 32.5
	price := 150000
	units := []fetcher.UnitPayload{
		{
			UnitID:             502,
			PropertyID:         5,
			PropertyNameEN:     "Azabu Court",
			UnitNumber:         "502",
			Layout:             "1LDK",
			SizeSquareMeters:   &size,
			CityEN:             "Tokyo",
			Coordinates:        "POINT(35.65 139.70)",
			ListPrice:          &price,
			EarliestMoveInDate: "2026-10-01",
		},
		{UnitID: 101, PropertyID: 1, PropertyNameEN: "Shibuya Heights"},
	}

	snapshotAt := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	path, err := w.Write(snapshotAt, units)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if filepath.Base(path) != "units_2026-08-30.csv" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}

	// Rows are ordered by unit ID regardless of input order.
	if records[1][0] != "101" || records[2][0] != "502" {
		t.Errorf("rows not sorted by unit ID: %v, %v", records[1][0], records[2][0])
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[name] = i
	}
	row := records[2]
	if row[cols["latitude"]] != "35.65" || row[cols["longitude"]] != "139.7" {
		t.Errorf("coordinates not split: lat=%q lon=%q", row[cols["latitude"]], row[cols["longitude"]])
	}
	if row[cols["list_price"]] != "150000" {
		t.Errorf("price: got %q", row[cols["list_price"]])
	}
	if row[cols["earliest_move_in_date"]] != "2026-10-01 00:00:00" {
		t.Errorf("move-in: got %q", row[cols["earliest_move_in_date"]])
	}
	if row[cols["snapshot_datetime"]] != "2026-08-30 09:00:00" {
		t.Errorf("snapshot: got %q", row[cols["snapshot_datetime"]])
	}

	// Nullable fields export as empty strings.
	empty := records[1]
	if empty[cols["list_price"]] != "" || empty[cols["latitude"]] != "" {
		t.Errorf("expected empty nullables, got price=%q lat=%q",
			empty[cols["list_price"]], empty[cols["latitude"]])
	}
}
