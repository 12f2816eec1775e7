// Package station ranks transit stations by proximity.
package station

import (
	"slices"

	"nearest-departures/internal/general/contracts"
)

// Rank returns the limit nearest stations, ascending by distance. Ties keep
// their input order. The input slice is never modified. limit <= 0 yields an
// empty list.
func Rank(stations []contracts.Station, limit int) []contracts.Station {
	if limit <= 0 || len(stations) == 0 {
		return []contracts.Station{}
	}

	sorted := slices.Clone(stations)
	slices.SortStableFunc(sorted, func(a, b contracts.Station) int {
		switch {
		case a.DistanceMeters < b.DistanceMeters:
			return -1
		case a.DistanceMeters > b.DistanceMeters:
			return 1
		default:
			return 0
		}
	})

	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// IDs lists the station ids in order.
func IDs(stations []contracts.Station) []string {
	ids := make([]string, 0, len(stations))
	for _, s := range stations {
		ids = append(ids, s.ID)
	}
	return ids
}
