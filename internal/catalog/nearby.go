package catalog

import (
	"sort"

	"backend-hikinghelper/internal/shared/geo"
	"backend-hikinghelper/internal/trail"
)

type NearbyTrail struct {
	trail.Trail
	DistanceKm float64 `json:"distance_km"`
}

// Nearby returns trails whose trailhead lies within radiusKm of the point,
// closest first. Ties keep catalog order.
func Nearby(trails []trail.Trail, lat, lng, radiusKm float64) []NearbyTrail {
	out := make([]NearbyTrail, 0)
	for _, t := range trails {
		d := geo.HaversineKm(lat, lng, t.Latitude, t.Longitude)
		if d <= radiusKm {
			out = append(out, NearbyTrail{Trail: t, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}
