package models

import "strconv"

// InferFloor derives a building floor from a unit number. Unit numbers
// are a display convention, not a guaranteed floor code:
//   - 1 digit or fewer: floor 1 (ground and basement collapse together)
//   - 3 or more digits: everything except the last two digits is the
//     floor ("502" -> 5, "1003" -> 10)
//   - 2 digits: no known convention, treated as unknown
//   - empty or non-numeric: unknown
//
// Unknown is nil, never an error.
func InferFloor(unitNumber string) *int {
	if unitNumber == "" {
		return nil
	}
	n, err := strconv.Atoi(unitNumber)
	if err != nil || n < 0 {
		return nil
	}

	switch {
	case len(unitNumber) <= 1:
		f := 1
		return &f
	case len(unitNumber) == 2:
		return nil
	default:
		f, err := strconv.Atoi(unitNumber[:len(unitNumber)-2])
		if err != nil {
			return nil
		}
		return &f
	}
}
