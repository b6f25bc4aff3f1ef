package export

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"unit-watcher/internal/fetcher"
)

// Writer exports one CSV per run date with every unit fetched during
// that run, coordinates split into latitude/longitude.
type Writer struct {
	dir string
}

// NewWriter creates a CSV writer rooted at dir
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write exports the units for one snapshot. The file is named by the
// run date; a second run on the same day overwrites the earlier file.
func (w *Writer) Write(snapshotAt time.Time, units []fetcher.UnitPayload) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("units_%s.csv", snapshotAt.Format("2006-01-02")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	sorted := append([]fetcher.UnitPayload(nil), units...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UnitID < sorted[j].UnitID })

	cw := csv.NewWriter(f)
	header := []string{
		"unit_id", "property_id", "property_name_en", "property_name_ja",
		"unit_number", "layout", "size_square_meters", "city_en", "city_ja",
		"latitude", "longitude", "list_price", "earliest_move_in_date",
		"total_reviews", "overall_score", "snapshot_datetime",
	}
	if err := cw.Write(header); err != nil {
		return "", err
	}

	snapshot := snapshotAt.Format("2006-01-02 15:04:05")
	for _, u := range sorted {
		lat, lon := fetcher.ParseLatLon(u.Coordinates)
		record := []string{
			strconv.FormatInt(u.UnitID, 10),
			strconv.FormatInt(u.PropertyID, 10),
			u.PropertyNameEN,
			u.PropertyNameJA,
			u.UnitNumber,
			u.Layout,
			formatFloat(u.SizeSquareMeters),
			u.CityEN,
			u.CityJA,
			formatFloat(lat),
			formatFloat(lon),
			formatInt(u.ListPrice),
			formatMoveIn(u.EarliestMoveInDate),
			formatInt(u.TotalReviews),
			formatFloat(u.OverallScore),
			snapshot,
		}
		if err := cw.Write(record); err != nil {
			return "", err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush export file: %w", err)
	}

	log.Printf("[Export] wrote %d units to %s", len(sorted), path)
	return path, nil
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatMoveIn(value string) string {
	t := fetcher.ParseDate(value)
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
