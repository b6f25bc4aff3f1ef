package fetcher

import (
	"strconv"
	"strings"
	"time"
)

// ParseLatLon extracts coordinates from a WKT "POINT(lat lon)" string.
// Anything malformed yields (nil, nil), never an error.
func ParseLatLon(wkt string) (*float64, *float64) {
	inner := strings.TrimSuffix(strings.TrimPrefix(wkt, "POINT("), ")")
	parts := strings.Fields(inner)
	if len(parts) != 2 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, nil
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, nil
	}
	return &lat, &lon
}

// ParseDate parses an ISO date or datetime from the API. Empty or
// malformed values yield nil.
func ParseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
