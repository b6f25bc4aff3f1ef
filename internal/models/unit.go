package models

import "time"

type Unit struct {
	// 基本情報
	UnitID     int64  `gorm:"primaryKey" json:"unit_id"`
	PropertyID int64  `gorm:"not null;index" json:"property_id"`
	UnitNumber string `gorm:"type:varchar(20)" json:"unit_number,omitempty"`

	// 表示用属性
	PropertyNameEN string `gorm:"type:varchar(200)" json:"property_name_en,omitempty"`
	PropertyNameJA string `gorm:"type:varchar(200)" json:"property_name_ja,omitempty"`
	Layout         string `gorm:"type:varchar(20);index" json:"layout,omitempty"`
	CityEN         string `gorm:"type:varchar(100);index" json:"city_en,omitempty"`
	CityJA         string `gorm:"type:varchar(100)" json:"city_ja,omitempty"`

	SizeSquareMeters *float64 `gorm:"type:decimal(10,2)" json:"size_square_meters,omitempty"`

	// 位置情報 (WKT POINT + parsed coordinates)
	Coordinates string   `gorm:"type:text" json:"coordinates,omitempty"`
	Latitude    *float64 `gorm:"type:decimal(10,7)" json:"latitude,omitempty"`
	Longitude   *float64 `gorm:"type:decimal(10,7)" json:"longitude,omitempty"`

	// タイムスタンプ
	FetchedAt time.Time `gorm:"type:datetime;not null" json:"fetched_at"`
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName はテーブル名を明示的に指定
func (Unit) TableName() string {
	return "units"
}

// Floor returns the building floor inferred from the unit number.
func (u *Unit) Floor() *int {
	return InferFloor(u.UnitNumber)
}
