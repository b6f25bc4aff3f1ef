package database

import (
	"fmt"
	"time"

	"unit-watcher/internal/diff"
	"unit-watcher/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.Unit{},
		&models.Query{},
		&models.AvailabilitySnapshot{},
		&models.PropertySnapshot{},
	)
}

// SyncQueries reconciles the stored query list with the configured one,
// matching by name. Removed queries stay in place so historical snapshot
// rows keep their foreign reference.
func (gdb *GormDB) SyncQueries(queries []models.Query) error {
	for i := range queries {
		q := queries[i]
		var existing models.Query
		result := gdb.db.Where("name = ?", q.Name).First(&existing)

		if result.Error == gorm.ErrRecordNotFound {
			if err := gdb.db.Create(&q).Error; err != nil {
				return fmt.Errorf("failed to create query %q: %w", q.Name, err)
			}
			continue
		} else if result.Error != nil {
			return result.Error
		}

		q.QueryID = existing.QueryID
		q.CreatedAt = existing.CreatedAt
		if err := gdb.db.Save(&q).Error; err != nil {
			return fmt.Errorf("failed to update query %q: %w", q.Name, err)
		}
	}
	return nil
}

// Queries returns all stored queries.
func (gdb *GormDB) Queries() ([]models.Query, error) {
	var queries []models.Query
	err := gdb.db.Order("check_in_date ASC").Find(&queries).Error
	return queries, err
}

// PrimaryQuery returns the query marked primary.
func (gdb *GormDB) PrimaryQuery() (*models.Query, error) {
	var q models.Query
	err := gdb.db.Where("is_primary = ?", true).First(&q).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNoPrimaryQuery
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpsertUnits inserts or refreshes unit metadata by unit ID.
func (gdb *GormDB) UpsertUnits(units []models.Unit) error {
	if len(units) == 0 {
		return nil
	}
	return gdb.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "unit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"property_id", "unit_number", "property_name_en", "property_name_ja",
			"layout", "city_en", "city_ja", "size_square_meters",
			"coordinates", "latitude", "longitude", "fetched_at", "updated_at",
		}),
	}).Create(&units).Error
}

// InsertAvailability records availability facts for one snapshot run.
// Re-running a snapshot at the same timestamp overwrites in place.
func (gdb *GormDB) InsertAvailability(rows []models.AvailabilitySnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	return gdb.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "snapshot_at"}, {Name: "query_id"}, {Name: "unit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price_jpy", "earliest_move_in", "reviews", "rating",
		}),
	}).Create(&rows).Error
}

// InsertPropertySnapshots records property-level captures for one run.
func (gdb *GormDB) InsertPropertySnapshots(rows []models.PropertySnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	return gdb.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "snapshot_at"}, {Name: "property_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"property_name_en", "property_name_ja", "available_room_count", "minimum_list_price",
		}),
	}).Create(&rows).Error
}

// LastTwoSnapshotTimes returns the two most recent distinct snapshot
// timestamps, latest first. ErrInsufficientHistory when fewer exist.
func (gdb *GormDB) LastTwoSnapshotTimes() (latest, previous time.Time, err error) {
	var times []time.Time
	err = gdb.db.Model(&models.AvailabilitySnapshot{}).
		Distinct("snapshot_at").
		Order("snapshot_at DESC").
		Limit(2).
		Pluck("snapshot_at", &times).Error
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(times) < 2 {
		return time.Time{}, time.Time{}, ErrInsufficientHistory
	}
	return times[0], times[1], nil
}

// LatestSnapshotTime returns the most recent snapshot timestamp.
func (gdb *GormDB) LatestSnapshotTime() (time.Time, error) {
	var times []time.Time
	err := gdb.db.Model(&models.AvailabilitySnapshot{}).
		Distinct("snapshot_at").
		Order("snapshot_at DESC").
		Limit(1).
		Pluck("snapshot_at", &times).Error
	if err != nil {
		return time.Time{}, err
	}
	if len(times) == 0 {
		return time.Time{}, ErrNoSnapshots
	}
	return times[0], nil
}

// availabilityRow is the scan target for the joined snapshot queries.
type availabilityRow struct {
	UnitID           int64
	PropertyID       int64
	PropertyNameEN   string `gorm:"column:property_name_en"`
	Layout           string
	CityEN           string `gorm:"column:city_en"`
	UnitNumber       string
	SizeSquareMeters *float64
	PriceJPY         *int `gorm:"column:price_jpy"`
	QueryID          uint
	CheckInDate      time.Time
}

func (r availabilityRow) toDiffRow() diff.Row {
	return diff.Row{
		UnitID:           r.UnitID,
		PropertyID:       r.PropertyID,
		PropertyNameEN:   r.PropertyNameEN,
		Layout:           r.Layout,
		CityEN:           r.CityEN,
		UnitNumber:       r.UnitNumber,
		SizeSquareMeters: r.SizeSquareMeters,
		PriceJPY:         r.PriceJPY,
		QueryID:          r.QueryID,
		CheckInDate:      r.CheckInDate,
	}
}

// PrimaryRowsForSnapshot returns the primary-query availability rows at
// one snapshot timestamp, keyed by unit ID, as typed records.
func (gdb *GormDB) PrimaryRowsForSnapshot(at time.Time, primaryQueryID uint) (map[int64]diff.Row, error) {
	var scanned []availabilityRow
	err := gdb.db.Table("availability_snapshots AS s").
		Select("s.unit_id, s.price_jpy, s.query_id, q.check_in_date, u.property_id, u.property_name_en, u.layout, u.city_en, u.unit_number, u.size_square_meters").
		Joins("JOIN units u ON u.unit_id = s.unit_id").
		Joins("JOIN queries q ON q.query_id = s.query_id").
		Where("s.snapshot_at = ? AND s.query_id = ?", at, primaryQueryID).
		Scan(&scanned).Error
	if err != nil {
		return nil, err
	}

	out := make(map[int64]diff.Row, len(scanned))
	for _, r := range scanned {
		out[r.UnitID] = r.toDiffRow()
	}
	return out, nil
}

// SecondaryRowsForSnapshot returns every non-primary availability row at
// one snapshot timestamp, each carrying its query's check-in date. The
// per-unit aggregation happens in the diff engine, not in SQL.
func (gdb *GormDB) SecondaryRowsForSnapshot(at time.Time) ([]diff.Row, error) {
	var scanned []availabilityRow
	err := gdb.db.Table("availability_snapshots AS s").
		Select("s.unit_id, s.price_jpy, s.query_id, q.check_in_date, u.property_id, u.property_name_en, u.layout, u.city_en, u.unit_number, u.size_square_meters").
		Joins("JOIN units u ON u.unit_id = s.unit_id").
		Joins("JOIN queries q ON q.query_id = s.query_id").
		Where("s.snapshot_at = ? AND q.is_primary = ?", at, false).
		Scan(&scanned).Error
	if err != nil {
		return nil, err
	}

	out := make([]diff.Row, 0, len(scanned))
	for _, r := range scanned {
		out = append(out, r.toDiffRow())
	}
	return out, nil
}

// GetUnitByID retrieves a unit by ID
func (gdb *GormDB) GetUnitByID(id int64) (*models.Unit, error) {
	var unit models.Unit
	err := gdb.db.Where("unit_id = ?", id).First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// GetAllUnits retrieves all known units
func (gdb *GormDB) GetAllUnits() ([]models.Unit, error) {
	var units []models.Unit
	err := gdb.db.Order("fetched_at DESC").Find(&units).Error
	return units, err
}
