// Package resilience wraps a weather.Source with client-side rate limiting
// and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/lox/weatherdash/internal/metrics"
	"github.com/lox/weatherdash/internal/weather"
)

// Options configures Wrap. A zero RPS disables rate limiting and a zero
// FailureThreshold disables the circuit breaker.
type Options struct {
	RPS              float64
	Burst            int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Source is a rate limited, circuit broken weather.Source.
type Source struct {
	src     weather.Source
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	name    string
}

var _ weather.Source = (*Source)(nil)

// Wrap decorates src according to opts.
func Wrap(src weather.Source, opts Options) *Source {
	s := &Source{src: src, name: src.Name()}

	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	if opts.FailureThreshold > 0 {
		timeout := opts.OpenTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		threshold := opts.FailureThreshold
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        src.Name(),
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: countsAsSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.CircuitState.WithLabelValues(name).Set(float64(to))
				log.Warn().Str("component", "resilience").Str("breaker", name).
					Stringer("from", from).Stringer("to", to).Msg("circuit state changed")
			},
		})
		metrics.CircuitState.WithLabelValues(src.Name()).Set(float64(gobreaker.StateClosed))
	}

	return s
}

// countsAsSuccess keeps caller-side outcomes (no match, bad input, cancellation)
// from tripping the breaker. Only transport and contract failures count.
func countsAsSuccess(err error) bool {
	switch weather.Kind(err) {
	case weather.KindTransport, weather.KindMalformed:
		return false
	default:
		return true
	}
}

func (s *Source) Name() string {
	return s.name
}

func call[T any](ctx context.Context, s *Source, op string, fn func() (T, error)) (T, error) {
	var zero T
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return zero, &weather.TransportError{Op: s.name + " " + op, Err: fmt.Errorf("rate limit wait canceled: %w", err)}
		}
	}
	if s.breaker == nil {
		return fn()
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, &weather.TransportError{Op: s.name + " " + op, Err: err}
		}
		return zero, err
	}
	return out.(T), nil
}

func (s *Source) Resolve(ctx context.Context, query string) (weather.Coordinate, error) {
	return call(ctx, s, "resolve", func() (weather.Coordinate, error) {
		return s.src.Resolve(ctx, query)
	})
}

func (s *Source) Search(ctx context.Context, query string, count int) ([]weather.CityMatch, error) {
	return call(ctx, s, "search", func() ([]weather.CityMatch, error) {
		return s.src.Search(ctx, query, count)
	})
}

func (s *Source) Daily(ctx context.Context, loc weather.Coordinate, days int) (weather.ForecastSeries, error) {
	return call(ctx, s, "daily", func() (weather.ForecastSeries, error) {
		return s.src.Daily(ctx, loc, days)
	})
}

func (s *Source) Current(ctx context.Context, loc weather.Coordinate) (weather.CurrentConditions, error) {
	return call(ctx, s, "current", func() (weather.CurrentConditions, error) {
		return s.src.Current(ctx, loc)
	})
}
