package models

import "time"

// Query is a named date-range filter. Exactly one query is primary;
// secondary queries carry progressively earlier check-in dates used to
// surface near-miss suggestions.
type Query struct {
	QueryID      uint      `gorm:"primaryKey;autoIncrement" json:"query_id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	CheckInDate  time.Time `gorm:"type:date;not null" json:"check_in_date"`
	CheckOutDate time.Time `gorm:"type:date;not null" json:"check_out_date"`
	IsPrimary    bool      `gorm:"type:boolean;not null;default:false;index" json:"is_primary"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName はテーブル名を明示的に指定
func (Query) TableName() string {
	return "queries"
}

// DaysBefore returns how many whole days earlier this query's check-in
// is relative to the given primary check-in date.
func (q *Query) DaysBefore(primaryCheckIn time.Time) int {
	return int(primaryCheckIn.Sub(q.CheckInDate).Hours() / 24)
}
