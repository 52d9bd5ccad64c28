package preferences

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"backend-hikinghelper/internal/db"
	"backend-hikinghelper/internal/logging"
	"backend-hikinghelper/internal/trail"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultCacheTTL = 10 * time.Minute

// ChangeFunc is called after every successful mutation.
type ChangeFunc func(ctx context.Context, rec Record)

// Store persists preferences in Postgres with an optional Redis read cache.
// Every mutation is written through immediately.
type Store struct {
	db       db.Querier
	cache    *redis.Client
	ttl      time.Duration
	onChange []ChangeFunc
	logger   zerolog.Logger
}

func NewStore(q db.Querier, cache *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Store{
		db:     q,
		cache:  cache,
		ttl:    ttl,
		logger: logging.Component("preferences"),
	}
}

// OnChange registers fn to run after each persisted mutation.
func (s *Store) OnChange(fn ChangeFunc) {
	s.onChange = append(s.onChange, fn)
}

const selectPreferences = `
	SELECT difficulty, min_distance, max_distance, elevation_band,
	       selected_regions, completed_trail_ids, onboarded, updated_at
	FROM user_preferences WHERE user_id=$1`

// Get returns the stored preferences, or defaults for a user who has never
// saved any.
func (s *Store) Get(ctx context.Context, userID string) (Record, error) {
	if rec, ok := s.cached(ctx, userID); ok {
		return rec, nil
	}

	rec, err := scanRecord(userID, s.db.QueryRow(ctx, selectPreferences, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults(userID), nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("load preferences: %w", err)
	}

	s.store(ctx, rec)
	return rec, nil
}

func scanRecord(userID string, row pgx.Row) (Record, error) {
	rec := Record{UserID: userID}
	var band string
	err := row.Scan(&rec.Difficulty, &rec.MinDistance, &rec.MaxDistance, &band,
		&rec.SelectedRegions, &rec.CompletedTrailIDs, &rec.Onboarded, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	rec.ElevationBand = trail.ElevationBand(band)
	if rec.SelectedRegions == nil {
		rec.SelectedRegions = []string{}
	}
	if rec.CompletedTrailIDs == nil {
		rec.CompletedTrailIDs = []int{}
	}
	return rec, nil
}

// Update applies the non-nil fields of patch.
func (s *Store) Update(ctx context.Context, userID string, patch Patch) (Record, error) {
	return s.mutate(ctx, userID, func(rec *Record) {
		if patch.Difficulty != nil {
			rec.Difficulty = *patch.Difficulty
		}
		if patch.MinDistance != nil {
			rec.MinDistance = *patch.MinDistance
		}
		if patch.MaxDistance != nil {
			rec.MaxDistance = *patch.MaxDistance
		}
		if patch.ElevationBand != nil {
			rec.ElevationBand, _ = trail.ParseElevationBand(*patch.ElevationBand)
		}
	})
}

// SetRegions replaces the selected regions with their normalized codes.
func (s *Store) SetRegions(ctx context.Context, userID string, regions []string) (Record, error) {
	return s.mutate(ctx, userID, func(rec *Record) {
		codes := make([]string, 0, len(regions))
		for _, r := range regions {
			code := trail.NormalizeRegion(r)
			if code != "" && !slices.Contains(codes, code) {
				codes = append(codes, code)
			}
		}
		rec.SelectedRegions = codes
	})
}

func (s *Store) ClearRegions(ctx context.Context, userID string) (Record, error) {
	return s.mutate(ctx, userID, func(rec *Record) {
		rec.SelectedRegions = []string{}
	})
}

func (s *Store) MarkCompleted(ctx context.Context, userID string, trailID int) (Record, error) {
	return s.mutate(ctx, userID, func(rec *Record) {
		if !slices.Contains(rec.CompletedTrailIDs, trailID) {
			rec.CompletedTrailIDs = append(rec.CompletedTrailIDs, trailID)
		}
	})
}

func (s *Store) UnmarkCompleted(ctx context.Context, userID string, trailID int) (Record, error) {
	return s.mutate(ctx, userID, func(rec *Record) {
		rec.CompletedTrailIDs = slices.DeleteFunc(rec.CompletedTrailIDs, func(id int) bool {
			return id == trailID
		})
	})
}

func (s *Store) ClearCompleted(ctx context.Context, userID string) (Record, error) {
	return s.mutate(ctx, userID, func(rec *Record) {
		rec.CompletedTrailIDs = []int{}
	})
}

// CompleteOnboarding derives preferences from questionnaire answers.
func (s *Store) CompleteOnboarding(ctx context.Context, userID string, answers Onboarding) (Record, error) {
	if err := check(answers); err != nil {
		return Record{}, err
	}
	return s.mutate(ctx, userID, answers.apply)
}

// mutate applies fn to the stored row inside a transaction. The row is
// seeded with defaults and locked first, so concurrent mutations for the
// same user apply one after another instead of overwriting each other.
func (s *Store) mutate(ctx context.Context, userID string, fn func(*Record)) (rec Record, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("save preferences: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			if !errors.Is(err, ErrInvalidPreferences) {
				s.invalidate(ctx, userID)
			}
		}
	}()

	def := Defaults(userID)
	_, err = tx.Exec(ctx, `
		INSERT INTO user_preferences (user_id, difficulty, min_distance, max_distance, elevation_band)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, def.Difficulty, def.MinDistance, def.MaxDistance, string(def.ElevationBand))
	if err != nil {
		return Record{}, fmt.Errorf("save preferences: %w", err)
	}

	rec, err = scanRecord(userID, tx.QueryRow(ctx, selectPreferences+` FOR UPDATE`, userID))
	if err != nil {
		return Record{}, fmt.Errorf("lock preferences: %w", err)
	}
	fn(&rec)
	if err = validateRecord(rec); err != nil {
		return Record{}, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE user_preferences
		SET difficulty=$2, min_distance=$3, max_distance=$4, elevation_band=$5,
		    selected_regions=$6, completed_trail_ids=$7, onboarded=$8, updated_at=now()
		WHERE user_id=$1
		RETURNING updated_at
	`, rec.UserID, rec.Difficulty, rec.MinDistance, rec.MaxDistance, string(rec.ElevationBand),
		rec.SelectedRegions, rec.CompletedTrailIDs, rec.Onboarded).Scan(&rec.UpdatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("save preferences: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("save preferences: %w", err)
	}

	s.store(ctx, rec)
	for _, fn := range s.onChange {
		fn(ctx, rec)
	}
	return rec, nil
}

func cacheKey(userID string) string {
	return "prefs:" + userID
}

func (s *Store) cached(ctx context.Context, userID string) (Record, bool) {
	if s.cache == nil {
		return Record{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("preferences cache read failed")
		}
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("discarding corrupt cache entry")
		s.invalidate(ctx, userID)
		return Record{}, false
	}
	return rec, true
}

func (s *Store) store(ctx context.Context, rec Record) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(rec.UserID), raw, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", rec.UserID).Msg("preferences cache write failed")
	}
}

func (s *Store) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("preferences cache delete failed")
	}
}
