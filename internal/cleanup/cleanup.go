package cleanup

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"unit-watcher/internal/models"
)

// Service handles retention pruning of old snapshot rows. Snapshots
// older than the retention window only serve history browsing, so they
// get deleted in whole snapshot-time groups, never partially.
type Service struct {
	db *gorm.DB
}

// NewService creates a new cleanup service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	RetentionDays    int  // Days of snapshot history to keep (default: 90)
	MaxDeletionCount int  // Maximum rows to delete in one run (safety limit)
	DryRun           bool // If true, only log what would be deleted without actually deleting
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays:    90,
		MaxDeletionCount: 100000,
		DryRun:           false,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	ExpiredSnapshots    int       `json:"expired_snapshots"`    // Snapshot times eligible for deletion
	AvailabilityDeleted int64     `json:"availability_deleted"` // Availability rows removed
	PropertyDeleted     int64     `json:"property_deleted"`     // Property snapshot rows removed
	DryRun              bool      `json:"dry_run"`
	ExecutedAt          time.Time `json:"executed_at"`
}

// FindExpiredSnapshotTimes returns the distinct snapshot times older
// than the retention window. The two most recent snapshot times are
// always kept so a diff run stays possible even on a long-idle store.
func (s *Service) FindExpiredSnapshotTimes(retentionDays int) ([]time.Time, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var protected []time.Time
	if err := s.db.Model(&models.AvailabilitySnapshot{}).
		Distinct().
		Order("snapshot_at DESC").
		Limit(2).
		Pluck("snapshot_at", &protected).Error; err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot times: %w", err)
	}

	var expired []time.Time
	query := s.db.Model(&models.AvailabilitySnapshot{}).
		Distinct().
		Where("snapshot_at < ?", cutoff).
		Order("snapshot_at ASC")
	for _, keep := range protected {
		query = query.Where("snapshot_at <> ?", keep)
	}
	if err := query.Pluck("snapshot_at", &expired).Error; err != nil {
		return nil, fmt.Errorf("failed to find expired snapshots: %w", err)
	}

	log.Printf("Found %d snapshot times expired before %s", len(expired), cutoff.Format("2006-01-02"))
	return expired, nil
}

// Prune deletes all snapshot rows belonging to expired snapshot times.
func (s *Service) Prune(config CleanupConfig) (*CleanupResult, error) {
	result := &CleanupResult{
		DryRun:     config.DryRun,
		ExecutedAt: time.Now(),
	}

	expired, err := s.FindExpiredSnapshotTimes(config.RetentionDays)
	if err != nil {
		return nil, err
	}
	result.ExpiredSnapshots = len(expired)

	if len(expired) == 0 {
		log.Println("No expired snapshots found for deletion")
		return result, nil
	}

	var rowCount int64
	if err := s.db.Model(&models.AvailabilitySnapshot{}).
		Where("snapshot_at IN ?", expired).
		Count(&rowCount).Error; err != nil {
		return nil, err
	}

	// Safety check: abort if too many rows would be deleted
	if rowCount > int64(config.MaxDeletionCount) {
		return nil, fmt.Errorf("safety check failed: %d rows exceed max deletion limit of %d",
			rowCount, config.MaxDeletionCount)
	}

	if config.DryRun {
		for _, at := range expired {
			log.Printf("[DRY-RUN] Would delete snapshot %s", at.Format("2006-01-02 15:04:05"))
		}
		result.AvailabilityDeleted = rowCount
		return result, nil
	}

	log.Printf("Starting cleanup: %d snapshot times, %d availability rows (retention: %d days)",
		len(expired), rowCount, config.RetentionDays)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("snapshot_at IN ?", expired).Delete(&models.AvailabilitySnapshot{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete availability snapshots: %w", res.Error)
		}
		result.AvailabilityDeleted = res.RowsAffected

		cutoff := time.Now().AddDate(0, 0, -config.RetentionDays)
		res = tx.Where("snapshot_at < ?", cutoff).Delete(&models.PropertySnapshot{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete property snapshots: %w", res.Error)
		}
		result.PropertyDeleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Cleanup completed: %d availability rows, %d property rows deleted",
		result.AvailabilityDeleted, result.PropertyDeleted)

	return result, nil
}

// GetRetentionStats returns counts describing the current history window.
func (s *Service) GetRetentionStats(retentionDays int) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalRows int64
	if err := s.db.Model(&models.AvailabilitySnapshot{}).Count(&totalRows).Error; err != nil {
		return nil, err
	}
	stats["availability_rows"] = totalRows

	var snapshotTimes []time.Time
	if err := s.db.Model(&models.AvailabilitySnapshot{}).
		Distinct().
		Pluck("snapshot_at", &snapshotTimes).Error; err != nil {
		return nil, err
	}
	stats["snapshot_count"] = len(snapshotTimes)

	expired, err := s.FindExpiredSnapshotTimes(retentionDays)
	if err != nil {
		return nil, err
	}
	stats["expired_ready_for_deletion"] = len(expired)

	return stats, nil
}
