package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backend-hikinghelper/internal/logging"
	"backend-hikinghelper/internal/metrics"
	"backend-hikinghelper/internal/trail"

	"github.com/rs/zerolog"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	maxHistory      = 20
	maxContextTrail = 5
)

var (
	ErrChatUnavailable = errors.New("chat assistant unavailable")
	ErrEmptyMessage    = errors.New("message required")
	ErrRateLimited     = errors.New("too many chat requests")
)

type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type Reply struct {
	Text string `json:"text"`
}

// TierSource classifies the catalog for a user.
type TierSource interface {
	TiersFor(ctx context.Context, userID, query string) (trail.Tiers, trail.Preferences, error)
}

type Service struct {
	gen     Generator
	tiers   TierSource
	limiter *userLimiter
	logger  zerolog.Logger
}

// NewService builds the assistant. A nil generator leaves chat disabled.
func NewService(gen Generator, tiers TierSource) *Service {
	return &Service{
		gen:    gen,
		tiers:  tiers,
		logger: logging.Component("chat"),
	}
}

// LimitPerUser caps each user at perMinute questions. Zero disables the cap.
func (s *Service) LimitPerUser(perMinute int) {
	s.limiter = newUserLimiter(perMinute)
}

func (s *Service) Available() bool {
	return s.gen != nil
}

// Ask answers message with the user's preferences and top matches as context.
func (s *Service) Ask(ctx context.Context, userID, message string, history []Message) (Reply, error) {
	if s.gen == nil {
		metrics.ChatRequests.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		return Reply{}, ErrChatUnavailable
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	if !s.limiter.Allow(userID) {
		metrics.ChatRequests.WithLabelValues(metrics.OutcomeRateLimited).Inc()
		return Reply{}, ErrRateLimited
	}
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	system := baseInstruction
	if s.tiers != nil {
		tiers, prefs, err := s.tiers.TiersFor(ctx, userID, "")
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("chat without trail context")
		} else {
			system += "\n\n" + describe(prefs, tiers)
		}
	}

	text, err := s.gen.Generate(ctx, system, history, message)
	if errors.Is(err, ErrChatUnavailable) {
		metrics.ChatRequests.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		return Reply{}, err
	}
	if err != nil {
		metrics.ChatRequests.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Error().Err(err).Str("user_id", userID).Msg("chat generation failed")
		return Reply{}, err
	}
	metrics.ChatRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return Reply{Text: strings.TrimSpace(text)}, nil
}

const baseInstruction = "You are a hiking assistant. Answer briefly and prefer trails from the user's lists."

func describe(prefs trail.Preferences, tiers trail.Tiers) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Preferred difficulty: %s. Distance: %.1f to %.1f miles. Elevation gain: %s.",
		prefs.Difficulty, prefs.MinDistance, prefs.MaxDistance, prefs.ElevationBand)
	if len(prefs.SelectedRegions) > 0 {
		fmt.Fprintf(&b, " Regions: %s.", strings.Join(prefs.SelectedRegions, ", "))
	}
	writeTrails(&b, "Recommended", tiers.Recommended)
	writeTrails(&b, "Good warm-ups", tiers.Easier)
	return b.String()
}

func writeTrails(b *strings.Builder, label string, trails []trail.Trail) {
	if len(trails) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:", label)
	for i, t := range trails {
		if i == maxContextTrail {
			break
		}
		fmt.Fprintf(b, "\n- %s (%s, %.1f mi, %.0f ft, %s)", t.Name, t.Region, t.DistanceMiles, t.ElevationGainFeet, t.DifficultyLevel)
	}
}
