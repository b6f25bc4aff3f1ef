package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"unit-watcher/internal/config"
	"unit-watcher/internal/database"
	"unit-watcher/internal/diff"
	"unit-watcher/internal/notify"
	"unit-watcher/internal/snapshot"
)

// One-shot roundup: resolve the latest snapshot into a full listing and
// print it, optionally mailing it out. Needs only one snapshot, so it
// also works on a store where no diff is possible yet.
func main() {
	configPath := flag.String("config", "config/watcher_config.yaml", "path to configuration file")
	weekly := flag.Bool("weekly", false, "include buildings opened within the last week")
	sendEmail := flag.Bool("email", false, "send the roundup by email")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", *configPath, err)
		cfg = config.DefaultConfig()
	}

	mysqlCfg := cfg.Database.MySQL
	portStr := ""
	if mysqlCfg.Port > 0 {
		portStr = fmt.Sprintf("%d", mysqlCfg.Port)
	}

	store, err := database.NewGormDB(mysqlCfg.Host, portStr, mysqlCfg.User, mysqlCfg.Password, mysqlCfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer store.Close()

	primary, err := store.PrimaryQuery()
	if err != nil {
		log.Fatalf("Cannot build roundup: %v", err)
	}

	latestAt, err := store.LatestSnapshotTime()
	if errors.Is(err, database.ErrNoSnapshots) {
		fmt.Println("No snapshots exist yet - nothing to summarise.")
		return
	}
	if err != nil {
		log.Fatalf("Failed to resolve latest snapshot: %v", err)
	}

	primaryRows, err := store.PrimaryRowsForSnapshot(latestAt, primary.QueryID)
	if err != nil {
		log.Fatalf("Failed to load primary rows: %v", err)
	}
	secondaryRows, err := store.SecondaryRowsForSnapshot(latestAt)
	if err != nil {
		log.Fatalf("Failed to load secondary rows: %v", err)
	}

	engine := diff.NewEngine(diff.Options{ExcludeFirstFloor: cfg.Alerts.ExcludeFirstFloor})
	roundup := engine.Roundup(latestAt, primaryRows, secondaryRows, primary.CheckInDate)

	composer := notify.NewComposer(cfg.Alerts.ListingBaseURL)

	var message, subject string
	if *weekly {
		svc := snapshot.NewService(store.DB())
		opened, err := svc.PropertiesOpenedThisWeek(latestAt)
		if err != nil {
			log.Printf("Warning: weekly novelty lookup failed: %v", err)
		}
		message = composer.ComposeWeeklyRoundup(&roundup, primary.CheckInDate, primary.CheckOutDate, opened)
		subject = "📬 Weekly Roundup"
	} else {
		message = composer.ComposeRoundup(&roundup, primary.CheckInDate, primary.CheckOutDate)
		subject = "📬 Availability Roundup"
	}

	fmt.Println(message)

	if *sendEmail {
		emailer := notify.NewEmailer(cfg.Email)
		if err := emailer.Send(subject, message); err != nil {
			log.Fatalf("Failed to send roundup: %v", err)
		}
	}
}
