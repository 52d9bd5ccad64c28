package preferences

import (
	"time"

	"backend-hikinghelper/internal/trail"
)

// Record is a user's persisted preferences.
type Record struct {
	UserID string `json:"user_id"`
	trail.Preferences
	Onboarded bool      `json:"onboarded"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Defaults returns the preferences a user starts with before onboarding.
func Defaults(userID string) Record {
	return Record{
		UserID: userID,
		Preferences: trail.Preferences{
			Difficulty:        "Moderate",
			MinDistance:       0,
			MaxDistance:       10,
			ElevationBand:     trail.BandModerate,
			SelectedRegions:   []string{},
			CompletedTrailIDs: []int{},
		},
	}
}

// Patch updates the scalar preference fields. Nil fields are left alone.
type Patch struct {
	Difficulty    *string  `json:"difficulty"`
	MinDistance   *float64 `json:"min_distance"`
	MaxDistance   *float64 `json:"max_distance"`
	ElevationBand *string  `json:"elevation_band"`
}

// Onboarding holds the questionnaire answers collected on first launch.
type Onboarding struct {
	Experience       string `json:"experience" validate:"required,oneof=beginner intermediate advanced expert"`
	TypicalDistance  string `json:"typical_distance" validate:"required,oneof=short medium long"`
	ElevationComfort string `json:"elevation_comfort" validate:"required,oneof=low moderate high"`
	HomeRegion       string `json:"home_region"`
}

var experienceDifficulty = map[string]string{
	"beginner":     "Easy",
	"intermediate": "Moderate",
	"advanced":     "Hard",
	"expert":       "Very Hard",
}

var distanceRanges = map[string][2]float64{
	"short":  {0, 3},
	"medium": {3, 8},
	"long":   {8, 20},
}

// apply maps questionnaire answers onto the record. Completed trails survive.
func (o Onboarding) apply(rec *Record) {
	rec.Difficulty = experienceDifficulty[o.Experience]
	r := distanceRanges[o.TypicalDistance]
	rec.MinDistance, rec.MaxDistance = r[0], r[1]
	rec.ElevationBand, _ = trail.ParseElevationBand(o.ElevationComfort)
	if o.HomeRegion != "" {
		rec.SelectedRegions = []string{trail.NormalizeRegion(o.HomeRegion)}
	}
	rec.Onboarded = true
}
