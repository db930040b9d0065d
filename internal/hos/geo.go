package hos

import "github.com/draymaster/trip-planner/internal/domain"

// Interpolate returns the point the given fraction of the way along the
// straight line from start to end, rounded to six decimals. Stop placement
// is illustrative, not navigational, so a straight line is sufficient.
func Interpolate(start, end domain.Coordinate, fraction float64) domain.Coordinate {
	lat := start.Lat + (end.Lat-start.Lat)*fraction
	lng := start.Lng + (end.Lng-start.Lng)*fraction
	return domain.Coordinate{
		Lat: domain.Round(lat, 6),
		Lng: domain.Round(lng, 6),
	}
}
