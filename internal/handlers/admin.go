package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"unit-watcher/internal/cleanup"
	"unit-watcher/internal/config"
	"unit-watcher/internal/database"
	"unit-watcher/internal/diff"
	"unit-watcher/internal/models"
	"unit-watcher/internal/scheduler"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	store          *database.GormDB
	scheduler      *scheduler.Scheduler
	cleanupService *cleanup.Service
	engine         *diff.Engine
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store *database.GormDB, sched *scheduler.Scheduler, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		store:          store,
		scheduler:      sched,
		cleanupService: cleanup.NewService(store.DB()),
		engine:         diff.NewEngine(diff.Options{ExcludeFirstFloor: cfg.Alerts.ExcludeFirstFloor}),
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})
	db := h.store.DB()

	var unitCount, propertyCount int64
	db.Model(&models.Unit{}).Count(&unitCount)
	db.Model(&models.Unit{}).Distinct("property_id").Count(&propertyCount)
	stats["units"] = map[string]interface{}{
		"total":      unitCount,
		"properties": propertyCount,
	}

	// Recent fetch activity (last 24 hours)
	last24h := time.Now().AddDate(0, 0, -1)
	var recentlyFetched int64
	db.Model(&models.Unit{}).Where("fetched_at >= ?", last24h).Count(&recentlyFetched)
	stats["recent_activity"] = map[string]interface{}{
		"fetched_last_24h": recentlyFetched,
	}

	var snapshotTimes []time.Time
	db.Model(&models.AvailabilitySnapshot{}).Distinct().Pluck("snapshot_at", &snapshotTimes)
	stats["snapshots"] = map[string]interface{}{
		"total": len(snapshotTimes),
	}

	var queryCount int64
	db.Model(&models.Query{}).Count(&queryCount)
	stats["queries"] = map[string]interface{}{
		"total": queryCount,
	}

	retentionStats, err := h.cleanupService.GetRetentionStats(cleanup.DefaultCleanupConfig().RetentionDays)
	if err != nil {
		log.Printf("Failed to get retention stats: %v", err)
	} else {
		stats["retention"] = retentionStats
	}

	c.JSON(http.StatusOK, stats)
}

// GetRecentUnits returns the most recently fetched units
func (h *AdminHandler) GetRecentUnits(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, _ := strconv.Atoi(limitStr)

	var units []models.Unit
	err := h.store.DB().Order("fetched_at DESC").Limit(limit).Find(&units).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"units": units,
		"count": len(units),
	})
}

// TriggerRun manually triggers a watch run
func (h *AdminHandler) TriggerRun(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Scheduler not available (MySQL/GORM required)",
		})
		return
	}

	log.Println("Admin: Manual watch run requested")

	// Run in goroutine to avoid blocking
	go func() {
		if err := h.scheduler.RunNow(); err != nil {
			log.Printf("Admin: Manual run failed: %v", err)
		} else {
			log.Println("Admin: Manual run completed successfully")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Watch run started",
		"status":  "running",
	})
}

// GetLatestChanges recomputes the change report over the two most
// recent snapshots and returns it as JSON.
func (h *AdminHandler) GetLatestChanges(c *gin.Context) {
	primary, err := h.store.PrimaryQuery()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	latestAt, previousAt, err := h.store.LastTwoSnapshotTimes()
	if errors.Is(err, database.ErrInsufficientHistory) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Only one snapshot exists - baseline established",
			"changes": false,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	latestPrimary, err := h.store.PrimaryRowsForSnapshot(latestAt, primary.QueryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	previousPrimary, err := h.store.PrimaryRowsForSnapshot(previousAt, primary.QueryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	latestSecondary, err := h.store.SecondaryRowsForSnapshot(latestAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	previousSecondary, err := h.store.SecondaryRowsForSnapshot(previousAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	report := h.engine.Compare(latestAt, previousAt,
		latestPrimary, previousPrimary,
		latestSecondary, previousSecondary,
		primary.CheckInDate)

	c.JSON(http.StatusOK, gin.H{
		"latest_snapshot":          report.LatestAt,
		"previous_snapshot":        report.PreviousAt,
		"changes":                  report.HasChanges(),
		"new_units":                report.Primary.SortedNew(),
		"removed_units":            report.Primary.SortedRemoved(),
		"price_changes":            report.Primary.SortedPriceChanged(),
		"new_suggestions":          report.NewSuggestions,
		"removed_suggestions":      report.RemovedSuggestions,
		"suggestion_price_changes": report.SuggestionPriceChanges,
	})
}

// GetUnitHistory returns availability history for a unit
func (h *AdminHandler) GetUnitHistory(c *gin.Context) {
	unitID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit id"})
		return
	}
	limitStr := c.DefaultQuery("limit", "30")
	limit, _ := strconv.Atoi(limitStr)

	var rows []models.AvailabilitySnapshot
	err = h.store.DB().Where("unit_id = ?", unitID).
		Order("snapshot_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unit_id":   unitID,
		"snapshots": rows,
		"count":     len(rows),
	})
}

// RunCleanup executes retention pruning of old snapshots
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		RetentionDays    int  `json:"retention_days"`     // Days to keep (default: 90)
		MaxDeletionCount int  `json:"max_deletion_count"` // Safety limit (default: 100000)
		DryRun           bool `json:"dry_run"`            // Dry run mode
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := cleanup.DefaultCleanupConfig()
	if req.RetentionDays > 0 {
		cfg.RetentionDays = req.RetentionDays
	}
	if req.MaxDeletionCount > 0 {
		cfg.MaxDeletionCount = req.MaxDeletionCount
	}
	cfg.DryRun = req.DryRun

	log.Printf("Admin: Running cleanup (retention: %d days, max: %d, dry-run: %v)",
		cfg.RetentionDays, cfg.MaxDeletionCount, cfg.DryRun)

	result, err := h.cleanupService.Prune(cfg)
	if err != nil {
		log.Printf("Admin: Cleanup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCityStats returns unit counts by city
func (h *AdminHandler) GetCityStats(c *gin.Context) {
	type CityStat struct {
		City  string `json:"city"`
		Count int64  `json:"count"`
	}

	var stats []CityStat
	err := h.store.DB().Model(&models.Unit{}).
		Select("city_en as city, count(*) as count").
		Where("city_en IS NOT NULL AND city_en != ''").
		Group("city_en").
		Order("count DESC").
		Limit(20).
		Scan(&stats).Error

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"city_stats": stats,
		"count":      len(stats),
	})
}

// GetPriceDistribution returns the latest snapshot's price distribution
func (h *AdminHandler) GetPriceDistribution(c *gin.Context) {
	type PriceRange struct {
		RangeLabel string `json:"range_label"`
		MinPrice   int    `json:"min_price"`
		MaxPrice   int    `json:"max_price"`
		Count      int64  `json:"count"`
	}

	latestAt, err := h.store.LatestSnapshotTime()
	if errors.Is(err, database.ErrNoSnapshots) {
		c.JSON(http.StatusOK, gin.H{"price_distribution": []PriceRange{}})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Price ranges (in yen)
	ranges := []PriceRange{
		{RangeLabel: "〜10万円", MinPrice: 0, MaxPrice: 100000},
		{RangeLabel: "10〜15万円", MinPrice: 100000, MaxPrice: 150000},
		{RangeLabel: "15〜20万円", MinPrice: 150000, MaxPrice: 200000},
		{RangeLabel: "20〜30万円", MinPrice: 200000, MaxPrice: 300000},
		{RangeLabel: "30万円〜", MinPrice: 300000, MaxPrice: 10000000},
	}

	for i := range ranges {
		var count int64
		h.store.DB().Model(&models.AvailabilitySnapshot{}).
			Where("snapshot_at = ? AND price_jpy >= ? AND price_jpy < ?",
				latestAt, ranges[i].MinPrice, ranges[i].MaxPrice).
			Count(&count)
		ranges[i].Count = count
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot_at":        latestAt,
		"price_distribution": ranges,
	})
}
