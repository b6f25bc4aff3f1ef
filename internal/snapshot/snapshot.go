package snapshot

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"unit-watcher/internal/models"
)

// Service handles property snapshot operations: recording property-level
// captures and detecting buildings that appeared for the first time.
type Service struct {
	db *gorm.DB
}

// NewService creates a new snapshot service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RecordProperties writes property-level snapshot rows for the given
// snapshot time, derived from the unit rows of the same run. Re-running
// for the same time updates the existing rows instead of duplicating.
func (s *Service) RecordProperties(snapshotAt time.Time, rows []models.PropertySnapshot) error {
	for i := range rows {
		rows[i].SnapshotAt = snapshotAt

		var existing models.PropertySnapshot
		result := s.db.Where("snapshot_at = ? AND property_id = ?", snapshotAt, rows[i].PropertyID).First(&existing)

		if result.Error == gorm.ErrRecordNotFound {
			if err := s.db.Create(&rows[i]).Error; err != nil {
				return fmt.Errorf("failed to create property snapshot: %w", err)
			}
			continue
		} else if result.Error != nil {
			return result.Error
		}

		rows[i].ID = existing.ID
		rows[i].CreatedAt = existing.CreatedAt
		if err := s.db.Save(&rows[i]).Error; err != nil {
			return fmt.Errorf("failed to update property snapshot: %w", err)
		}
	}
	return nil
}

// NewProperties returns the properties present in the latest snapshot but
// absent from every earlier one. Appearance detection only: no price or
// removal tracking exists at the property level.
func (s *Service) NewProperties(latestAt time.Time) ([]models.PropertySnapshot, error) {
	var latest []models.PropertySnapshot
	if err := s.db.Where("snapshot_at = ?", latestAt).Find(&latest).Error; err != nil {
		return nil, err
	}

	var earlierIDs []int64
	if err := s.db.Model(&models.PropertySnapshot{}).
		Where("snapshot_at < ?", latestAt).
		Distinct().
		Pluck("property_id", &earlierIDs).Error; err != nil {
		return nil, err
	}

	return DetectNew(latest, earlierIDs), nil
}

// PropertiesOpenedThisWeek is the weekly variant: "earlier" is restricted
// to snapshots older than 7 days, so a building first seen five days ago
// still counts as opened this week.
func (s *Service) PropertiesOpenedThisWeek(latestAt time.Time) ([]models.PropertySnapshot, error) {
	var latest []models.PropertySnapshot
	if err := s.db.Where("snapshot_at = ?", latestAt).Find(&latest).Error; err != nil {
		return nil, err
	}

	cutoff := latestAt.AddDate(0, 0, -7)
	var earlierIDs []int64
	if err := s.db.Model(&models.PropertySnapshot{}).
		Where("snapshot_at < ?", cutoff).
		Distinct().
		Pluck("property_id", &earlierIDs).Error; err != nil {
		return nil, err
	}

	found := DetectNew(latest, earlierIDs)
	log.Printf("[Snapshot] weekly novelty: %d of %d properties opened since %s",
		len(found), len(latest), cutoff.Format("2006-01-02"))
	return found, nil
}

// DetectNew filters the latest property rows down to those whose
// property_id is not in the earlier set. Pure helper shared by both
// novelty variants.
func DetectNew(latest []models.PropertySnapshot, earlierIDs []int64) []models.PropertySnapshot {
	known := make(map[int64]bool, len(earlierIDs))
	for _, id := range earlierIDs {
		known[id] = true
	}

	fresh := []models.PropertySnapshot{}
	for _, row := range latest {
		if !known[row.PropertyID] {
			fresh = append(fresh, row)
		}
	}
	return fresh
}

// BuildPropertyRows collapses unit rows into one property-level row per
// building: room count and the minimum listed price across its units.
func BuildPropertyRows(units []models.Unit, prices map[int64]*int) []models.PropertySnapshot {
	byProperty := make(map[int64]*models.PropertySnapshot)
	order := []int64{}

	for _, u := range units {
		row, ok := byProperty[u.PropertyID]
		if !ok {
			row = &models.PropertySnapshot{
				PropertyID:     u.PropertyID,
				PropertyNameEN: u.PropertyNameEN,
				PropertyNameJA: u.PropertyNameJA,
			}
			byProperty[u.PropertyID] = row
			order = append(order, u.PropertyID)
		}
		row.AvailableRoomCount++

		price := prices[u.UnitID]
		if price == nil {
			continue
		}
		if row.MinimumListPrice == nil || *price < *row.MinimumListPrice {
			p := *price
			row.MinimumListPrice = &p
		}
	}

	out := make([]models.PropertySnapshot, 0, len(order))
	for _, id := range order {
		out = append(out, *byProperty[id])
	}
	return out
}
