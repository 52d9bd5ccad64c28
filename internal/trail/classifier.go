package trail

import (
	"strings"

	"golang.org/x/text/cases"
)

// Recommended returns the trails that match every preference dimension
// exactly, in catalog order.
func Recommended(catalog []Trail, prefs Preferences) []Trail {
	regions := regionSet(prefs.SelectedRegions)
	out := make([]Trail, 0)
	for _, t := range catalog {
		if matchesRegion(t, regions) && matchesExactly(t, prefs) {
			out = append(out, t)
		}
	}
	return out
}

// Easier returns trails that are not recommended but are no harder than the
// preference in difficulty, distance and elevation, in catalog order.
func Easier(catalog []Trail, prefs Preferences) []Trail {
	return easier(catalog, prefs, idSet(Recommended(catalog, prefs)))
}

// Other returns every remaining trail in the selected regions, optionally
// narrowed by a case-insensitive search over name and region.
func Other(catalog []Trail, prefs Preferences, query string) []Trail {
	recommended := Recommended(catalog, prefs)
	excluded := idSet(recommended)
	for id := range idSet(easier(catalog, prefs, excluded)) {
		excluded[id] = struct{}{}
	}
	return other(catalog, prefs, query, excluded)
}

// Classify computes all three tiers at once. The result is identical to
// calling Recommended, Easier and Other separately.
func Classify(catalog []Trail, prefs Preferences, query string) Tiers {
	recommended := Recommended(catalog, prefs)
	excluded := idSet(recommended)
	easierTier := easier(catalog, prefs, excluded)
	for _, t := range easierTier {
		excluded[t.ID] = struct{}{}
	}
	return Tiers{
		Recommended: recommended,
		Easier:      easierTier,
		Other:       other(catalog, prefs, query, excluded),
	}
}

func easier(catalog []Trail, prefs Preferences, excluded map[int]struct{}) []Trail {
	regions := regionSet(prefs.SelectedRegions)
	maxRank := DifficultyRank(prefs.Difficulty)
	ceiling, bounded := prefs.ElevationBand.UpperBound()

	out := make([]Trail, 0)
	for _, t := range catalog {
		if _, skip := excluded[t.ID]; skip {
			continue
		}
		if !matchesRegion(t, regions) {
			continue
		}
		if DifficultyRank(t.DifficultyLevel) > maxRank {
			continue
		}
		if t.DistanceMiles > prefs.MaxDistance {
			continue
		}
		if bounded && t.ElevationGainFeet > ceiling {
			continue
		}
		out = append(out, t)
	}
	return out
}

func other(catalog []Trail, prefs Preferences, query string, excluded map[int]struct{}) []Trail {
	regions := regionSet(prefs.SelectedRegions)
	query = strings.TrimSpace(query)

	var folded string
	var fold cases.Caser
	if query != "" {
		fold = cases.Fold()
		folded = fold.String(query)
	}

	out := make([]Trail, 0)
	for _, t := range catalog {
		if _, skip := excluded[t.ID]; skip {
			continue
		}
		if !matchesRegion(t, regions) {
			continue
		}
		if query != "" &&
			!strings.Contains(fold.String(t.Name), folded) &&
			!strings.Contains(fold.String(t.Region), folded) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesExactly(t Trail, prefs Preferences) bool {
	level := strings.TrimSpace(t.DifficultyLevel)
	if level == "" || !strings.EqualFold(level, strings.TrimSpace(prefs.Difficulty)) {
		return false
	}
	if t.DistanceMiles < prefs.MinDistance || t.DistanceMiles > prefs.MaxDistance {
		return false
	}
	return prefs.ElevationBand.Contains(t.ElevationGainFeet)
}

// regionSet returns nil when no region is selected, meaning "any region".
func regionSet(selected []string) map[string]struct{} {
	if len(selected) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(selected))
	for _, r := range selected {
		set[NormalizeRegion(r)] = struct{}{}
	}
	return set
}

func matchesRegion(t Trail, regions map[string]struct{}) bool {
	if regions == nil {
		return true
	}
	code := NormalizeRegion(t.Region)
	if code == "" {
		return false
	}
	_, ok := regions[code]
	return ok
}

func idSet(trails []Trail) map[int]struct{} {
	set := make(map[int]struct{}, len(trails))
	for _, t := range trails {
		set[t.ID] = struct{}{}
	}
	return set
}
