package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"unit-watcher/internal/database"
	"unit-watcher/internal/fetcher"
	"unit-watcher/internal/models"
	"unit-watcher/internal/search"
	"unit-watcher/internal/snapshot"
)

// runDaily executes one full watch cycle: fetch every query, persist the
// snapshot, diff against the previous one and notify on changes. The
// primary query is a precondition; without it the run aborts before any
// diffing happens.
func (s *Scheduler) runDaily() error {
	ctx := context.Background()

	primary, err := s.store.PrimaryQuery()
	if err != nil {
		return fmt.Errorf("cannot run without a primary query: %w", err)
	}

	queries, err := s.store.Queries()
	if err != nil {
		return err
	}

	snapshotAt := time.Now().Truncate(time.Second)

	allUnits, err := s.captureSnapshot(ctx, snapshotAt, queries)
	if err != nil {
		return err
	}

	if s.exporter != nil {
		if _, err := s.exporter.Write(snapshotAt, allUnits); err != nil {
			log.Printf("Scheduler: CSV export failed: %v", err)
		}
	}

	if err := s.notifyNewProperties(snapshotAt); err != nil {
		log.Printf("Scheduler: Property alert failed: %v", err)
	}

	latestAt, previousAt, err := s.store.LastTwoSnapshotTimes()
	if errors.Is(err, database.ErrInsufficientHistory) {
		log.Println("Scheduler: Only one snapshot exists - baseline established, nothing to compare yet")
		return nil
	}
	if err != nil {
		return err
	}

	latestPrimary, err := s.store.PrimaryRowsForSnapshot(latestAt, primary.QueryID)
	if err != nil {
		return err
	}
	previousPrimary, err := s.store.PrimaryRowsForSnapshot(previousAt, primary.QueryID)
	if err != nil {
		return err
	}
	latestSecondary, err := s.store.SecondaryRowsForSnapshot(latestAt)
	if err != nil {
		return err
	}
	previousSecondary, err := s.store.SecondaryRowsForSnapshot(previousAt)
	if err != nil {
		return err
	}

	report := s.engine.Compare(latestAt, previousAt,
		latestPrimary, previousPrimary,
		latestSecondary, previousSecondary,
		primary.CheckInDate)

	if !report.HasChanges() {
		log.Println("Scheduler: No changes detected - notification not sent")
		return nil
	}

	message := s.composer.ComposeAlert(&report, primary.CheckInDate, primary.CheckOutDate)
	fmt.Println(message)

	if err := s.emailer.Send("🏠 Property update", message); err != nil {
		return err
	}

	return nil
}

// captureSnapshot fetches every configured query and persists the run:
// unit metadata, availability facts and property-level captures. It
// returns the deduplicated unit payloads across all queries.
func (s *Scheduler) captureSnapshot(ctx context.Context, snapshotAt time.Time, queries []models.Query) ([]fetcher.UnitPayload, error) {
	seen := make(map[int64]fetcher.UnitPayload)
	order := []int64{}
	latestPrices := make(map[int64]*int)
	var availability []models.AvailabilitySnapshot

	for _, q := range queries {
		log.Printf("Scheduler: Fetching query %q (%s → %s)", q.Name,
			q.CheckInDate.Format("2006-01-02"), q.CheckOutDate.Format("2006-01-02"))

		payloads, err := s.fetcher.FetchAll(ctx, q.CheckInDate, q.CheckOutDate)
		if err != nil {
			return nil, fmt.Errorf("fetch failed for query %q: %w", q.Name, err)
		}

		for _, p := range payloads {
			if _, ok := seen[p.UnitID]; !ok {
				order = append(order, p.UnitID)
			}
			seen[p.UnitID] = p
			if q.IsPrimary || latestPrices[p.UnitID] == nil {
				latestPrices[p.UnitID] = p.ListPrice
			}
			availability = append(availability, models.AvailabilitySnapshot{
				SnapshotAt:     snapshotAt,
				QueryID:        q.QueryID,
				UnitID:         p.UnitID,
				PriceJPY:       p.ListPrice,
				EarliestMoveIn: fetcher.ParseDate(p.EarliestMoveInDate),
				Reviews:        p.TotalReviews,
				Rating:         p.OverallScore,
			})
		}
	}

	units := make([]models.Unit, 0, len(order))
	payloads := make([]fetcher.UnitPayload, 0, len(order))
	for _, id := range order {
		units = append(units, payloadToUnit(seen[id], snapshotAt))
		payloads = append(payloads, seen[id])
	}

	if err := s.store.UpsertUnits(units); err != nil {
		return nil, err
	}
	if err := s.store.InsertAvailability(availability); err != nil {
		return nil, err
	}
	if err := s.snapshot.RecordProperties(snapshotAt, snapshot.BuildPropertyRows(units, latestPrices)); err != nil {
		return nil, err
	}

	if s.searcher != nil {
		docs := make([]search.UnitDocument, 0, len(units))
		for i, u := range units {
			docs = append(docs, search.BuildDocument(u, latestPrices[u.UnitID], payloads[i].OverallScore))
		}
		if err := s.searcher.IndexUnits(docs); err != nil {
			log.Printf("Scheduler: Search indexing failed: %v", err)
		}
	}

	log.Printf("Scheduler: Snapshot %s persisted: %d units, %d availability rows",
		snapshotAt.Format("2006-01-02 15:04:05"), len(units), len(availability))
	return payloads, nil
}

// notifyNewProperties sends a property alert when a building shows up
// that no earlier snapshot has seen.
func (s *Scheduler) notifyNewProperties(snapshotAt time.Time) error {
	fresh, err := s.snapshot.NewProperties(snapshotAt)
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		return nil
	}

	message := s.composer.ComposePropertyAlert(fresh)
	fmt.Println(message)
	return s.emailer.Send("✨ New properties detected!", message)
}

// runWeeklyRoundup resolves the latest snapshot into a full listing and
// mails it, including buildings opened within the last week. A roundup
// needs only one snapshot; InsufficientHistory does not apply.
func (s *Scheduler) runWeeklyRoundup() error {
	primary, err := s.store.PrimaryQuery()
	if err != nil {
		return fmt.Errorf("cannot run without a primary query: %w", err)
	}

	latestAt, err := s.store.LatestSnapshotTime()
	if errors.Is(err, database.ErrNoSnapshots) {
		log.Println("Scheduler: No snapshots exist yet - nothing to summarise")
		return nil
	}
	if err != nil {
		return err
	}

	primaryRows, err := s.store.PrimaryRowsForSnapshot(latestAt, primary.QueryID)
	if err != nil {
		return err
	}
	secondaryRows, err := s.store.SecondaryRowsForSnapshot(latestAt)
	if err != nil {
		return err
	}

	roundup := s.engine.Roundup(latestAt, primaryRows, secondaryRows, primary.CheckInDate)

	openedThisWeek, err := s.snapshot.PropertiesOpenedThisWeek(latestAt)
	if err != nil {
		log.Printf("Scheduler: Weekly novelty lookup failed: %v", err)
		openedThisWeek = nil
	}

	message := s.composer.ComposeWeeklyRoundup(&roundup, primary.CheckInDate, primary.CheckOutDate, openedThisWeek)
	fmt.Println(message)

	return s.emailer.Send("📬 Weekly Roundup", message)
}

// payloadToUnit converts an API payload into the stored unit entity,
// splitting the WKT coordinates into latitude/longitude.
func payloadToUnit(p fetcher.UnitPayload, fetchedAt time.Time) models.Unit {
	lat, lon := fetcher.ParseLatLon(p.Coordinates)
	return models.Unit{
		UnitID:           p.UnitID,
		PropertyID:       p.PropertyID,
		UnitNumber:       p.UnitNumber,
		PropertyNameEN:   p.PropertyNameEN,
		PropertyNameJA:   p.PropertyNameJA,
		Layout:           p.Layout,
		CityEN:           p.CityEN,
		CityJA:           p.CityJA,
		SizeSquareMeters: p.SizeSquareMeters,
		Coordinates:      p.Coordinates,
		Latitude:         lat,
		Longitude:        lon,
		FetchedAt:        fetchedAt,
	}
}
