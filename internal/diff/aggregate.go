package diff

// AggregateSecondary collapses all secondary-query rows of one snapshot
// into at most one row per unit: the row whose check-in date is the
// latest, i.e. closest to the primary query's check-in. Units already
// present in the primary query's snapshot are excluded entirely.
//
// If two secondary queries tie on check-in date for the same unit (the
// configured query dates should be distinct, but nothing enforces it),
// the row with the lowest query ID wins so the output is deterministic.
func AggregateSecondary(rows []Row, primaryUnits map[int64]bool) map[int64]Row {
	out := make(map[int64]Row)

	for _, row := range rows {
		if primaryUnits[row.UnitID] {
			continue
		}

		best, ok := out[row.UnitID]
		if !ok {
			out[row.UnitID] = row
			continue
		}

		if row.CheckInDate.After(best.CheckInDate) {
			out[row.UnitID] = row
		} else if row.CheckInDate.Equal(best.CheckInDate) && row.QueryID < best.QueryID {
			out[row.UnitID] = row
		}
	}

	return out
}
