package chat

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerGenerator stops calling a failing upstream for a while instead of
// letting every request wait on it.
type BreakerGenerator struct {
	next Generator
	cb   *gobreaker.CircuitBreaker[string]
}

func NewBreakerGenerator(next Generator, failures uint32, cooldown time.Duration) *BreakerGenerator {
	if failures == 0 {
		failures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &BreakerGenerator{
		next: next,
		cb: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "chat-generator",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
		}),
	}
}

func (b *BreakerGenerator) Generate(ctx context.Context, system string, history []Message, prompt string) (string, error) {
	text, err := b.cb.Execute(func() (string, error) {
		return b.next.Generate(ctx, system, history, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrChatUnavailable
	}
	return text, err
}
