package goal

import "time"

type Goal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Timeframe   string     `json:"timeframe"`
	Difficulty  string     `json:"difficulty"`
	TrailID     *int       `json:"trailId,omitempty"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Timeframe   string `json:"timeframe"`
	Difficulty  string `json:"difficulty"`
	TrailID     *int   `json:"trailId,omitempty"`
}

type Progress struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Percentage float64 `json:"percentage"`
}
