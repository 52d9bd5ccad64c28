package trail

import "strings"

// Trail is a single catalog record. Records are read-only once loaded.
type Trail struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	Region            string   `json:"region"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	DistanceMiles     float64  `json:"distanceMiles"`
	ElevationGainFeet float64  `json:"elevationGainFeet"`
	DifficultyLevel   string   `json:"difficultyLevel"`
	TerrainTypes      []string `json:"terrainTypes"`
	Description       string   `json:"description"`
	UserRating        float64  `json:"userRating"`
}

// Preferences is the snapshot of user filter settings the classifier reads.
type Preferences struct {
	Difficulty        string        `json:"difficulty"`
	MinDistance       float64       `json:"min_distance"`
	MaxDistance       float64       `json:"max_distance"`
	ElevationBand     ElevationBand `json:"elevation_band"`
	SelectedRegions   []string      `json:"selected_regions"`
	CompletedTrailIDs []int         `json:"completed_trail_ids"`
}

// Snapshot returns a deep copy so callers can hand it to the classifier
// while the original keeps being mutated.
func (p Preferences) Snapshot() Preferences {
	out := p
	out.SelectedRegions = make([]string, len(p.SelectedRegions))
	copy(out.SelectedRegions, p.SelectedRegions)
	out.CompletedTrailIDs = make([]int, len(p.CompletedTrailIDs))
	copy(out.CompletedTrailIDs, p.CompletedTrailIDs)
	return out
}

// IsCompleted reports whether the trail id is in the completed set.
func (p Preferences) IsCompleted(id int) bool {
	for _, c := range p.CompletedTrailIDs {
		if c == id {
			return true
		}
	}
	return false
}

// Tiers holds the three disjoint classifier outputs.
type Tiers struct {
	Recommended []Trail `json:"recommended"`
	Easier      []Trail `json:"easier"`
	Other       []Trail `json:"other"`
}

// ElevationBand is a coarse classification of elevation gain.
type ElevationBand string

const (
	BandLow      ElevationBand = "Low"
	BandModerate ElevationBand = "Moderate"
	BandHigh     ElevationBand = "High"
)

// ParseElevationBand maps a label onto a known band, ignoring case.
// The second return value is false for unrecognized labels.
func ParseElevationBand(s string) (ElevationBand, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return BandLow, true
	case "moderate":
		return BandModerate, true
	case "high":
		return BandHigh, true
	default:
		return ElevationBand(s), false
	}
}

// Contains reports whether feet falls inside the band's half-open range.
// Unrecognized bands contain everything.
func (b ElevationBand) Contains(feet float64) bool {
	band, ok := ParseElevationBand(string(b))
	if !ok {
		return true
	}
	switch band {
	case BandLow:
		return feet >= 0 && feet < 500
	case BandModerate:
		return feet >= 500 && feet < 1500
	default:
		return feet >= 1500
	}
}

// UpperBound returns the inclusive ceiling used by the easier tier.
// The second value is false when the band has no ceiling.
func (b ElevationBand) UpperBound() (float64, bool) {
	band, _ := ParseElevationBand(string(b))
	switch band {
	case BandLow:
		return 500, true
	case BandModerate:
		return 1500, true
	default:
		return 0, false
	}
}

const defaultDifficultyRank = 2

// DifficultyRank orders difficulty labels: Easy=1, Moderate=2, Hard=3,
// Very Hard=4. Anything else ranks as Moderate.
func DifficultyRank(label string) int {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "easy":
		return 1
	case "moderate":
		return 2
	case "hard":
		return 3
	case "very hard":
		return 4
	default:
		return defaultDifficultyRank
	}
}
