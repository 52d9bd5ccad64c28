package goal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backend-hikinghelper/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound     = errors.New("goal not found")
	ErrTitleMissing = errors.New("title required")
)

const goalColumns = `id, user_id, title, description, category, timeframe, difficulty, trail_id, is_completed, completed_at, created_at`

// ChangeFunc runs after a goal is created, toggled or deleted.
type ChangeFunc func(ctx context.Context, g Goal, deleted bool)

type Service struct {
	db       db.Querier
	onChange []ChangeFunc
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) OnChange(fn ChangeFunc) {
	s.onChange = append(s.onChange, fn)
}

func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (Goal, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return Goal{}, ErrTitleMissing
	}
	g := Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Timeframe:   req.Timeframe,
		Difficulty:  req.Difficulty,
		TrailID:     req.TrailID,
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO goals (id, user_id, title, description, category, timeframe, difficulty, trail_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, g.ID, g.UserID, g.Title, g.Description, g.Category, g.Timeframe, g.Difficulty, g.TrailID).Scan(&g.CreatedAt)
	if err != nil {
		return Goal{}, fmt.Errorf("create goal: %w", err)
	}
	s.changed(ctx, g, false)
	return g, nil
}

// List returns the user's goals oldest first.
func (s *Service) List(ctx context.Context, userID string) ([]Goal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+goalColumns+`
		FROM goals WHERE user_id=$1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	goals := make([]Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *Service) Get(ctx context.Context, userID, id string) (Goal, error) {
	g, err := scanGoal(s.db.QueryRow(ctx, `
		SELECT `+goalColumns+`
		FROM goals WHERE id=$1 AND user_id=$2
	`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Goal{}, ErrNotFound
	}
	return g, err
}

// Toggle flips completion. Completing stamps completed_at; reopening clears it.
func (s *Service) Toggle(ctx context.Context, userID, id string) (Goal, error) {
	g, err := scanGoal(s.db.QueryRow(ctx, `
		UPDATE goals
		SET is_completed = NOT is_completed,
		    completed_at = CASE WHEN is_completed THEN NULL ELSE now() END
		WHERE id=$1 AND user_id=$2
		RETURNING `+goalColumns, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Goal{}, ErrNotFound
	}
	if err != nil {
		return Goal{}, fmt.Errorf("toggle goal: %w", err)
	}
	s.changed(ctx, g, false)
	return g, nil
}

// Delete removes a single goal. Nothing else references goals.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM goals WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.changed(ctx, Goal{ID: id, UserID: userID}, true)
	return nil
}

func (s *Service) Progress(ctx context.Context, userID string) (Progress, error) {
	goals, err := s.List(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	return Summarize(goals), nil
}

// AddSuggestions stores up to limit drafted goals, skipping trails the user
// already has a goal for. Skipped drafts do not count toward limit, and a
// non-positive limit stores every remaining draft.
func (s *Service) AddSuggestions(ctx context.Context, userID string, drafts []CreateRequest, limit int) ([]Goal, error) {
	existing, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	taken := map[int]struct{}{}
	for _, g := range existing {
		if g.TrailID != nil {
			taken[*g.TrailID] = struct{}{}
		}
	}

	created := make([]Goal, 0, len(drafts))
	for _, d := range drafts {
		if limit > 0 && len(created) >= limit {
			break
		}
		if d.TrailID != nil {
			if _, ok := taken[*d.TrailID]; ok {
				continue
			}
			taken[*d.TrailID] = struct{}{}
		}
		g, err := s.Create(ctx, userID, d)
		if err != nil {
			return created, err
		}
		created = append(created, g)
	}
	return created, nil
}

func (s *Service) changed(ctx context.Context, g Goal, deleted bool) {
	for _, fn := range s.onChange {
		fn(ctx, g, deleted)
	}
}

func scanGoal(row pgx.Row) (Goal, error) {
	var g Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.Category, &g.Timeframe,
		&g.Difficulty, &g.TrailID, &g.IsCompleted, &g.CompletedAt, &g.CreatedAt)
	return g, err
}
