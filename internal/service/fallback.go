package service

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"realtychat/internal/metrics"
	"realtychat/internal/model"
)

// BreakerSettings tunes the circuit breaker around the text generator
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerSettings trips after 60% failures over at least 3 calls
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  3,
	}
}

// FallbackResponder answers turns no intent handles. It asks the text
// generator when one is configured and falls back to a canned prompt on any
// failure, so Respond always returns a usable reply.
type FallbackResponder struct {
	generator TextGenerator
	breaker   *gobreaker.CircuitBreaker
	canned    string
	logger    *zap.Logger
}

// NewFallbackResponder wraps generator, which may be nil
func NewFallbackResponder(generator TextGenerator, bs BreakerSettings, logger *zap.Logger) *FallbackResponder {
	settings := gobreaker.Settings{
		Name:        "text-generator",
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= bs.MinRequests && failureRatio >= bs.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &FallbackResponder{
		generator: generator,
		breaker:   gobreaker.NewCircuitBreaker(settings),
		canned:    ReplyFallback,
		logger:    logger,
	}
}

// Respond returns generated text, or the canned reply
func (f *FallbackResponder) Respond(ctx context.Context, history []model.Message, blob string) string {
	if f.generator == nil {
		metrics.GenerationFallbacks.WithLabelValues("disabled").Inc()
		return f.canned
	}

	out, err := f.breaker.Execute(func() (interface{}, error) {
		return f.generator.Generate(ctx, history, blob)
	})
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			reason = "open"
		case errors.Is(err, ErrGeneratorDisabled):
			reason = "disabled"
		default:
			f.logger.Warn("Text generation failed", zap.Error(err))
		}
		metrics.GenerationFallbacks.WithLabelValues(reason).Inc()
		return f.canned
	}
	if text, _ := out.(string); text != "" {
		return text
	}
	metrics.GenerationFallbacks.WithLabelValues("empty").Inc()
	return f.canned
}

// State reports the breaker state
func (f *FallbackResponder) State() gobreaker.State {
	return f.breaker.State()
}
