package snapshot

import (
	"testing"

	"unit-watcher/internal/models"
)

func TestDetectNew(t *testing.T) {
	latest := []models.PropertySnapshot{
		{PropertyID: 10, PropertyNameEN: "Azabu Court"},
		{PropertyID: 20, PropertyNameEN: "Shibuya Heights"},
		{PropertyID: 30, PropertyNameEN: "Meguro Terrace"},
	}

	fresh := DetectNew(latest, []int64{10, 30})
	if len(fresh) != 1 {
		t.Fatalf("expected 1 new property, got %d", len(fresh))
	}
	if fresh[0].PropertyID != 20 {
		t.Errorf("expected property 20, got %d", fresh[0].PropertyID)
	}
}

func TestDetectNewNoHistory(t *testing.T) {
	latest := []models.PropertySnapshot{
		{PropertyID: 10},
		{PropertyID: 20},
	}

	fresh := DetectNew(latest, nil)
	if len(fresh) != 2 {
		t.Fatalf("with no history every property is new, got %d", len(fresh))
	}
}

func TestDetectNewAllKnown(t *testing.T) {
	latest := []models.PropertySnapshot{{PropertyID: 10}}
	if fresh := DetectNew(latest, []int64{10}); len(fresh) != 0 {
		t.Fatalf("expected no new properties, got %d", len(fresh))
	}
}

func TestBuildPropertyRows(t *testing.T) {
	units := []models.Unit{
		{UnitID: 101, PropertyID: 1, PropertyNameEN: "Azabu Court"},
		{UnitID: 102, PropertyID: 1, PropertyNameEN: "Azabu Court"},
		{UnitID: 103, PropertyID: 1, PropertyNameEN: "Azabu Court"},
		{UnitID: 201, PropertyID: 2, PropertyNameEN: "Shibuya Heights"},
	}
	p1, p2, p3 := 150000, 120000, 180000
	prices := map[int64]*int{
		101: &p1,
		102: &p2,
		103: nil,
		201: &p3,
	}

	rows := BuildPropertyRows(units, prices)
	if len(rows) != 2 {
		t.Fatalf("expected 2 property rows, got %d", len(rows))
	}

	azabu := rows[0]
	if azabu.PropertyID != 1 {
		t.Fatalf("expected property 1 first (input order), got %d", azabu.PropertyID)
	}
	if azabu.AvailableRoomCount != 3 {
		t.Errorf("expected 3 rooms, got %d", azabu.AvailableRoomCount)
	}
	if azabu.MinimumListPrice == nil || *azabu.MinimumListPrice != 120000 {
		t.Errorf("expected minimum price 120000, got %v", azabu.MinimumListPrice)
	}

	shibuya := rows[1]
	if shibuya.AvailableRoomCount != 1 {
		t.Errorf("expected 1 room, got %d", shibuya.AvailableRoomCount)
	}
	if shibuya.MinimumListPrice == nil || *shibuya.MinimumListPrice != 180000 {
		t.Errorf("expected minimum price 180000, got %v", shibuya.MinimumListPrice)
	}
}

func TestBuildPropertyRowsAllPricesNil(t *testing.T) {
	units := []models.Unit{{UnitID: 101, PropertyID: 1}}
	rows := BuildPropertyRows(units, map[int64]*int{101: nil})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].MinimumListPrice != nil {
		t.Errorf("expected nil minimum price, got %v", *rows[0].MinimumListPrice)
	}
}
