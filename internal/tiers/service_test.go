package tiers

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"backend-hikinghelper/internal/catalog"
	"backend-hikinghelper/internal/preferences"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var prefCols = []string{"difficulty", "min_distance", "max_distance", "elevation_band", "selected_regions", "completed_trail_ids", "onboarded", "updated_at"}

func testCatalog() *catalog.Provider {
	return catalog.NewProvider(fstest.MapFS{
		"sc.json": {Data: []byte(`[
			{"id": 1, "name": "Table Rock", "region": "SC", "distanceMiles": 7, "elevationGainFeet": 1000, "difficultyLevel": "Moderate", "latitude": 35.03, "longitude": -82.70},
			{"id": 2, "name": "Lake Loop", "region": "South Carolina", "distanceMiles": 2, "elevationGainFeet": 100, "difficultyLevel": "Easy", "latitude": 34.93, "longitude": -82.37}
		]`)},
		"nc.json": {Data: []byte(`[
			{"id": 3, "name": "Grandfather Profile", "region": "NC", "distanceMiles": 12, "elevationGainFeet": 3000, "difficultyLevel": "Hard", "latitude": 36.10, "longitude": -81.81}
		]`)},
	})
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func expectPrefs(mock pgxmock.PgxPoolIface, regions []string, completed []int) {
	mock.ExpectQuery(`SELECT difficulty, min_distance`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(prefCols).
			AddRow("Moderate", 0.0, 10.0, "Moderate", regions, completed, true, time.Now()))
}

func TestTiersForDefaultsCoverAllRegions(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT difficulty, min_distance`).WithArgs("user-1").WillReturnError(pgx.ErrNoRows)

	svc := NewService(preferences.NewStore(mock, nil, 0), testCatalog())
	tiers, prefs, err := svc.TiersFor(context.Background(), "user-1", "")
	require.NoError(t, err)

	assert.Equal(t, "Moderate", prefs.Difficulty)
	assert.Len(t, tiers.Recommended, 1)
	assert.Equal(t, 1, tiers.Recommended[0].ID)
	assert.Len(t, tiers.Easier, 1)
	assert.Equal(t, 2, tiers.Easier[0].ID)
	assert.Len(t, tiers.Other, 1)
	assert.Equal(t, 3, tiers.Other[0].ID)
}

func TestViewAnnotatesCompletedTrails(t *testing.T) {
	mock := newMock(t)
	expectPrefs(mock, []string{"SC"}, []int{2})

	svc := NewService(preferences.NewStore(mock, nil, 0), testCatalog())
	resp, err := svc.View(context.Background(), "user-1", "")
	require.NoError(t, err)

	require.Len(t, resp.Recommended, 1)
	assert.False(t, resp.Recommended[0].Completed)
	require.Len(t, resp.Easier, 1)
	assert.True(t, resp.Easier[0].Completed)
	assert.Empty(t, resp.Other)
}

func TestTiersForUnavailableRegionIsEmpty(t *testing.T) {
	mock := newMock(t)
	expectPrefs(mock, []string{"CA"}, []int{})

	svc := NewService(preferences.NewStore(mock, nil, 0), testCatalog())
	tiers, _, err := svc.TiersFor(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Empty(t, tiers.Recommended)
	assert.Empty(t, tiers.Easier)
	assert.Empty(t, tiers.Other)
}

func TestTiersForSearchNarrowsOther(t *testing.T) {
	mock := newMock(t)
	expectPrefs(mock, []string{}, []int{})

	svc := NewService(preferences.NewStore(mock, nil, 0), testCatalog())
	tiers, _, err := svc.TiersFor(context.Background(), "user-1", "nothing matches")
	require.NoError(t, err)
	assert.Empty(t, tiers.Other)
	assert.Len(t, tiers.Recommended, 1)
}
