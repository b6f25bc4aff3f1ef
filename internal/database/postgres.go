package database

import (
	"database/sql"
	"fmt"
	"time"

	"unit-watcher/internal/models"

	_ "github.com/lib/pq"
)

// DB is the legacy PostgreSQL path. It covers ingestion and the basic
// read API; the diff pipeline and admin features require MySQL/GORM.
type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the tables if they don't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS units (
		unit_id BIGINT PRIMARY KEY,
		property_id BIGINT NOT NULL,
		unit_number VARCHAR(20),
		property_name_en VARCHAR(200),
		property_name_ja VARCHAR(200),
		layout VARCHAR(20),
		city_en VARCHAR(100),
		city_ja VARCHAR(100),
		size_square_meters DECIMAL(10, 2),
		coordinates TEXT,
		latitude DECIMAL(10, 7),
		longitude DECIMAL(10, 7),
		fetched_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS queries (
		query_id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		check_in_date DATE NOT NULL,
		check_out_date DATE NOT NULL,
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS availability_snapshots (
		id SERIAL PRIMARY KEY,
		snapshot_at TIMESTAMP NOT NULL,
		query_id INTEGER NOT NULL REFERENCES queries(query_id),
		unit_id BIGINT NOT NULL REFERENCES units(unit_id),
		price_jpy INTEGER,
		earliest_move_in TIMESTAMP,
		reviews INTEGER,
		rating DECIMAL(4, 2),
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE (snapshot_at, query_id, unit_id)
	);

	CREATE TABLE IF NOT EXISTS property_snapshots (
		id SERIAL PRIMARY KEY,
		snapshot_at TIMESTAMP NOT NULL,
		property_id BIGINT NOT NULL,
		property_name_en VARCHAR(200),
		property_name_ja VARCHAR(200),
		available_room_count INTEGER,
		minimum_list_price INTEGER,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE (snapshot_at, property_id)
	);

	CREATE INDEX IF NOT EXISTS idx_availability_snapshot_at ON availability_snapshots(snapshot_at);
	CREATE INDEX IF NOT EXISTS idx_availability_unit ON availability_snapshots(unit_id);
	`

	_, err := db.conn.Exec(query)
	return err
}

// UpsertUnits inserts or refreshes unit metadata by unit ID
func (db *DB) UpsertUnits(units []models.Unit) error {
	query := `
	INSERT INTO units (
		unit_id, property_id, unit_number, property_name_en, property_name_ja,
		layout, city_en, city_ja, size_square_meters,
		coordinates, latitude, longitude, fetched_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (unit_id) DO UPDATE SET
		property_id = EXCLUDED.property_id,
		unit_number = EXCLUDED.unit_number,
		property_name_en = EXCLUDED.property_name_en,
		property_name_ja = EXCLUDED.property_name_ja,
		layout = EXCLUDED.layout,
		city_en = EXCLUDED.city_en,
		city_ja = EXCLUDED.city_ja,
		size_square_meters = EXCLUDED.size_square_meters,
		coordinates = EXCLUDED.coordinates,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		fetched_at = EXCLUDED.fetched_at,
		updated_at = NOW()
	`

	for _, u := range units {
		_, err := db.conn.Exec(query,
			u.UnitID, u.PropertyID, u.UnitNumber, u.PropertyNameEN, u.PropertyNameJA,
			u.Layout, u.CityEN, u.CityJA, u.SizeSquareMeters,
			u.Coordinates, u.Latitude, u.Longitude, u.FetchedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert unit %d: %w", u.UnitID, err)
		}
	}

	return nil
}

// InsertAvailability records availability facts for one snapshot run
func (db *DB) InsertAvailability(rows []models.AvailabilitySnapshot) error {
	query := `
	INSERT INTO availability_snapshots (
		snapshot_at, query_id, unit_id, price_jpy, earliest_move_in, reviews, rating
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (snapshot_at, query_id, unit_id) DO UPDATE SET
		price_jpy = EXCLUDED.price_jpy,
		earliest_move_in = EXCLUDED.earliest_move_in,
		reviews = EXCLUDED.reviews,
		rating = EXCLUDED.rating
	`

	for _, r := range rows {
		_, err := db.conn.Exec(query,
			r.SnapshotAt, r.QueryID, r.UnitID, r.PriceJPY, r.EarliestMoveIn, r.Reviews, r.Rating,
		)
		if err != nil {
			return fmt.Errorf("failed to insert availability row for unit %d: %w", r.UnitID, err)
		}
	}

	return nil
}

// LastTwoSnapshotTimes returns the two most recent distinct snapshot
// timestamps, latest first
func (db *DB) LastTwoSnapshotTimes() (latest, previous time.Time, err error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT snapshot_at
		FROM availability_snapshots
		ORDER BY snapshot_at DESC
		LIMIT 2
	`)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return time.Time{}, time.Time{}, err
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return time.Time{}, time.Time{}, err
	}

	if len(times) < 2 {
		return time.Time{}, time.Time{}, ErrInsufficientHistory
	}
	return times[0], times[1], nil
}

// GetAllUnits retrieves all known units
func (db *DB) GetAllUnits() ([]models.Unit, error) {
	rows, err := db.conn.Query(`
		SELECT unit_id, property_id, unit_number, property_name_en, property_name_ja,
		       layout, city_en, city_ja, size_square_meters, fetched_at
		FROM units
		ORDER BY fetched_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []models.Unit
	for rows.Next() {
		var u models.Unit
		if err := rows.Scan(
			&u.UnitID, &u.PropertyID, &u.UnitNumber, &u.PropertyNameEN, &u.PropertyNameJA,
			&u.Layout, &u.CityEN, &u.CityJA, &u.SizeSquareMeters, &u.FetchedAt,
		); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// GetUnitByID retrieves a unit by ID
func (db *DB) GetUnitByID(id int64) (*models.Unit, error) {
	row := db.conn.QueryRow(`
		SELECT unit_id, property_id, unit_number, property_name_en, property_name_ja,
		       layout, city_en, city_ja, size_square_meters, fetched_at
		FROM units
		WHERE unit_id = $1
	`, id)

	var u models.Unit
	if err := row.Scan(
		&u.UnitID, &u.PropertyID, &u.UnitNumber, &u.PropertyNameEN, &u.PropertyNameJA,
		&u.Layout, &u.CityEN, &u.CityJA, &u.SizeSquareMeters, &u.FetchedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
