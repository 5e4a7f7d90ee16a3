package ocr

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig controls when a failing engine is taken out of rotation.
type BreakerConfig struct {
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
	HalfOpenMax  uint32
}

// DefaultBreakerConfig trips after half of at least 10 calls fail.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MinRequests:  10,
		FailureRatio: 0.5,
		OpenTimeout:  30 * time.Second,
		HalfOpenMax:  1,
	}
}

// Breaker guards an Engine with a circuit breaker so a broken tesseract
// install fails fast instead of spawning a process per region.
type Breaker struct {
	next Engine
	cb   *gobreaker.CircuitBreaker[string]
}

// NewBreaker wraps next.
func NewBreaker(next Engine, cfg BreakerConfig) *Breaker {
	settings := gobreaker.Settings{
		Name:        "ocr",
		MaxRequests: cfg.HalfOpenMax,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state change", "operation", name, "from", from.String(), "to", to.String())
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[string](settings)}
}

// Recognize implements Engine.
func (b *Breaker) Recognize(ctx context.Context, img image.Image, opts Options) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.Recognize(ctx, img, opts)
	})
}

// IsCircuitOpen reports whether err came from an open or saturated breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
