package scheduler

import (
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"

	"unit-watcher/internal/cleanup"
	"unit-watcher/internal/config"
	"unit-watcher/internal/database"
	"unit-watcher/internal/diff"
	"unit-watcher/internal/export"
	"unit-watcher/internal/fetcher"
	"unit-watcher/internal/notify"
	"unit-watcher/internal/search"
	"unit-watcher/internal/snapshot"
)

// Scheduler drives the periodic jobs: the daily watch pipeline, the
// weekly roundup and retention cleanup.
type Scheduler struct {
	cron      *cron.Cron
	store     *database.GormDB
	config    *config.Config
	fetcher   *fetcher.Fetcher
	engine    *diff.Engine
	composer  *notify.Composer
	emailer   *notify.Emailer
	snapshot  *snapshot.Service
	cleanup   *cleanup.Service
	exporter  *export.Writer
	searcher  *search.SearchClient
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(store *database.GormDB, cfg *config.Config, f *fetcher.Fetcher, searcher *search.SearchClient) *Scheduler {
	s := &Scheduler{
		cron:     cron.New(),
		store:    store,
		config:   cfg,
		fetcher:  f,
		engine:   diff.NewEngine(diff.Options{ExcludeFirstFloor: cfg.Alerts.ExcludeFirstFloor}),
		composer: notify.NewComposer(cfg.Alerts.ListingBaseURL),
		emailer:  notify.NewEmailer(cfg.Email),
		snapshot: snapshot.NewService(store.DB()),
		cleanup:  cleanup.NewService(store.DB()),
		searcher: searcher,
	}
	if cfg.Export.Enabled {
		s.exporter = export.NewWriter(cfg.Export.Directory)
	}
	return s
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Scheduler.DailyRunEnabled {
		log.Println("Scheduler: Daily run is disabled in configuration")
		return nil
	}

	cronSpec := s.parseDailyRunTime(s.config.Scheduler.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("Scheduler: Starting daily watch run...")
		if err := s.runDaily(); err != nil {
			log.Printf("Scheduler: Daily run failed: %v", err)
		} else {
			log.Println("Scheduler: Daily run completed successfully")
		}
	})
	if err != nil {
		return err
	}

	if day := strings.TrimSpace(s.config.Scheduler.WeeklyRoundupDay); day != "" {
		weeklySpec := s.parseWeeklyRunTime(s.config.Scheduler.DailyRunTime, day)
		_, err := s.cron.AddFunc(weeklySpec, func() {
			log.Println("Scheduler: Starting weekly roundup...")
			if err := s.runWeeklyRoundup(); err != nil {
				log.Printf("Scheduler: Weekly roundup failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
		log.Printf("Scheduler: Weekly roundup scheduled (cron: %s)", weeklySpec)
	}

	if s.config.Scheduler.CleanupEnabled {
		_, err := s.cron.AddFunc("30 3 * * *", func() {
			log.Println("Scheduler: Starting retention cleanup...")
			if _, err := s.cleanup.Prune(cleanup.CleanupConfig{
				RetentionDays:    s.config.Scheduler.RetentionDays,
				MaxDeletionCount: s.config.Scheduler.MaxDeletionCount,
			}); err != nil {
				log.Printf("Scheduler: Cleanup failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with daily run at %s (cron: %s)", s.config.Scheduler.DailyRunTime, cronSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// RunNow immediately executes the daily watch run (for manual trigger)
func (s *Scheduler) RunNow() error {
	log.Println("Scheduler: Manual trigger - starting watch run...")
	return s.runDaily()
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "09:00" -> "0 9 * * *" (run at 9:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 9:00 AM if parsing fails
	log.Printf("Scheduler: Failed to parse time '%s', using default 09:00", timeStr)
	return "0 9 * * *"
}

// parseWeeklyRunTime builds the weekly roundup cron spec from the daily
// run time plus a day-of-week name ("SUN", "MON", ...).
func (s *Scheduler) parseWeeklyRunTime(timeStr, day string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n != 2 {
		hour, minute = 10, 0
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, strings.ToUpper(day))
}
