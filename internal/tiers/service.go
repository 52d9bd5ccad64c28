package tiers

import (
	"context"
	"slices"

	"backend-hikinghelper/internal/catalog"
	"backend-hikinghelper/internal/preferences"
	"backend-hikinghelper/internal/trail"
)

// TrailView is a trail as shown to one user.
type TrailView struct {
	trail.Trail
	Completed bool `json:"completed"`
}

type Response struct {
	Recommended []TrailView `json:"recommended"`
	Easier      []TrailView `json:"easier"`
	Other       []TrailView `json:"other"`
}

// Service classifies the catalog against a user's stored preferences.
type Service struct {
	prefs   *preferences.Store
	catalog *catalog.Provider
}

func NewService(prefs *preferences.Store, provider *catalog.Provider) *Service {
	return &Service{prefs: prefs, catalog: provider}
}

// TiersFor returns the user's tiers and the preference snapshot they were
// computed from.
func (s *Service) TiersFor(ctx context.Context, userID, query string) (trail.Tiers, trail.Preferences, error) {
	rec, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return trail.Tiers{}, trail.Preferences{}, err
	}
	prefs := rec.Preferences.Snapshot()

	trails, err := s.trailsFor(ctx, prefs.SelectedRegions)
	if err != nil {
		return trail.Tiers{}, prefs, err
	}
	return trail.Classify(trails, prefs, query), prefs, nil
}

func (s *Service) View(ctx context.Context, userID, query string) (Response, error) {
	tiers, prefs, err := s.TiersFor(ctx, userID, query)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Recommended: annotate(tiers.Recommended, prefs),
		Easier:      annotate(tiers.Easier, prefs),
		Other:       annotate(tiers.Other, prefs),
	}, nil
}

// trailsFor loads the selected regions that have data. Selected regions
// without a data file contribute no trails.
func (s *Service) trailsFor(ctx context.Context, selected []string) ([]trail.Trail, error) {
	if len(selected) == 0 {
		snap, err := s.catalog.Ensure(ctx, nil)
		if err != nil {
			return nil, err
		}
		return snap.Trails, nil
	}

	available, err := s.catalog.Regions()
	if err != nil {
		return nil, err
	}
	wanted := make([]string, 0, len(selected))
	for _, r := range selected {
		if code := trail.NormalizeRegion(r); slices.Contains(available, code) {
			wanted = append(wanted, code)
		}
	}
	if len(wanted) == 0 {
		return []trail.Trail{}, nil
	}
	snap, err := s.catalog.Ensure(ctx, wanted)
	if err != nil {
		return nil, err
	}
	return snap.Trails, nil
}

func annotate(trails []trail.Trail, prefs trail.Preferences) []TrailView {
	out := make([]TrailView, 0, len(trails))
	for _, t := range trails {
		out = append(out, TrailView{Trail: t, Completed: prefs.IsCompleted(t.ID)})
	}
	return out
}
