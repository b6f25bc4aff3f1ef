package models

import "time"

// AvailabilitySnapshot is one availability fact: at SnapshotAt, the unit
// satisfied the query's date filter at the given price. A unit may appear
// once per query at the same snapshot time, never twice for one query.
type AvailabilitySnapshot struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SnapshotAt time.Time `gorm:"type:datetime;not null;uniqueIndex:idx_snapshot_query_unit;index:idx_snapshot_at" json:"snapshot_at"`
	QueryID    uint      `gorm:"not null;uniqueIndex:idx_snapshot_query_unit,priority:2" json:"query_id"`
	UnitID     int64     `gorm:"not null;uniqueIndex:idx_snapshot_query_unit,priority:3;index" json:"unit_id"`

	PriceJPY       *int       `gorm:"type:int" json:"price_jpy,omitempty"`
	EarliestMoveIn *time.Time `gorm:"type:datetime" json:"earliest_move_in,omitempty"`
	Reviews        *int       `gorm:"type:int" json:"reviews,omitempty"`
	Rating         *float64   `gorm:"type:decimal(4,2)" json:"rating,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName はテーブル名を明示的に指定
func (AvailabilitySnapshot) TableName() string {
	return "availability_snapshots"
}

// PropertySnapshot is a property-level capture used only for appearance
// detection (new buildings). No price or removal tracking happens here.
type PropertySnapshot struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SnapshotAt time.Time `gorm:"type:datetime;not null;uniqueIndex:idx_property_snapshot;index" json:"snapshot_at"`
	PropertyID int64     `gorm:"not null;uniqueIndex:idx_property_snapshot,priority:2;index" json:"property_id"`

	PropertyNameEN     string `gorm:"type:varchar(200)" json:"property_name_en,omitempty"`
	PropertyNameJA     string `gorm:"type:varchar(200)" json:"property_name_ja,omitempty"`
	AvailableRoomCount int    `gorm:"type:int" json:"available_room_count"`
	MinimumListPrice   *int   `gorm:"type:int" json:"minimum_list_price,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName はテーブル名を明示的に指定
func (PropertySnapshot) TableName() string {
	return "property_snapshots"
}
