package goal

import (
	"fmt"

	"backend-hikinghelper/internal/trail"
)

const (
	trailCategory    = "Trail"
	suggestTimeframe = "This Month"
)

// CompletionPercentage is completed/total*100, or 0 when there are no goals.
// The value is not rounded.
func CompletionPercentage(goals []Goal) float64 {
	if len(goals) == 0 {
		return 0
	}
	done := 0
	for _, g := range goals {
		if g.IsCompleted {
			done++
		}
	}
	return float64(done) / float64(len(goals)) * 100
}

// Partition splits goals into completed and pending, keeping input order in
// both.
func Partition(goals []Goal) (completed, pending []Goal) {
	completed = make([]Goal, 0)
	pending = make([]Goal, 0)
	for _, g := range goals {
		if g.IsCompleted {
			completed = append(completed, g)
		} else {
			pending = append(pending, g)
		}
	}
	return completed, pending
}

func Summarize(goals []Goal) Progress {
	completed, _ := Partition(goals)
	return Progress{
		Total:      len(goals),
		Completed:  len(completed),
		Percentage: CompletionPercentage(goals),
	}
}

// SuggestFromTiers drafts up to limit trail goals, taking build-up trails
// from the easier tier first and then recommended ones. Completed trails are
// skipped. A non-positive limit means no limit.
func SuggestFromTiers(tiers trail.Tiers, prefs trail.Preferences, limit int) []CreateRequest {
	out := make([]CreateRequest, 0)
	seen := map[int]struct{}{}
	for _, tier := range [][]trail.Trail{tiers.Easier, tiers.Recommended} {
		for _, t := range tier {
			if limit > 0 && len(out) >= limit {
				return out
			}
			if prefs.IsCompleted(t.ID) {
				continue
			}
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			out = append(out, suggestion(t))
		}
	}
	return out
}

func suggestion(t trail.Trail) CreateRequest {
	id := t.ID
	return CreateRequest{
		Title:       "Complete " + t.Name,
		Description: fmt.Sprintf("%.1f mi with %.0f ft of elevation gain in %s", t.DistanceMiles, t.ElevationGainFeet, t.Region),
		Category:    trailCategory,
		Timeframe:   suggestTimeframe,
		Difficulty:  t.DifficultyLevel,
		TrailID:     &id,
	}
}
