package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/infrastructure/metrics"
)

// AdapterConfig controls the resilience wrapper around a Client.
type AdapterConfig struct {
	Timeout time.Duration // per call, default 5s

	RateLimit float64 // requests per second, <= 0 disables limiting
	Burst     int

	MaxFailures  uint32        // consecutive failures before the circuit opens
	OpenTimeout  time.Duration // how long the circuit stays open
	HalfOpenReqs uint32        // probes allowed while half-open
}

// DefaultAdapterConfig returns the settings used in production
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Timeout:      5 * time.Second,
		RateLimit:    5,
		Burst:        5,
		MaxFailures:  5,
		OpenTimeout:  30 * time.Second,
		HalfOpenReqs: 1,
	}
}

// Adapter wraps a Client with a timeout, a rate limiter and a circuit
// breaker, and converts every failure into an empty Result.
type Adapter struct {
	client  Client
	cfg     AdapterConfig
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]model.ExternalAuthorRecord]
}

var _ Searcher = (*Adapter)(nil)

// NewAdapter creates a fail-soft adapter for client
func NewAdapter(client Client, cfg AdapterConfig) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	name := string(client.Source())

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]model.ExternalAuthorRecord](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenReqs,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Empty results and caller cancellations do not count against the source
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("source", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Adapter{
		client:  client,
		cfg:     cfg,
		limiter: limiter,
		cb:      cb,
	}
}

func (a *Adapter) Source() model.Source {
	return a.client.Source()
}

// Search never returns an error: failures are reported in Result.Err.
func (a *Adapter) Search(ctx context.Context, query string, maxResults int) Result {
	src := a.client.Source()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	records, err := a.search(ctx, query, maxResults)
	metrics.SourceDuration.WithLabelValues(string(src)).Observe(time.Since(start).Seconds())

	if err == nil && len(records) == 0 {
		err = ErrNoResults
	}

	if err != nil {
		outcome := "failure"
		switch {
		case errors.Is(err, ErrNoResults):
			outcome = "empty"
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "rejected"
		}
		metrics.SourceRequests.WithLabelValues(string(src), outcome).Inc()

		log.Warn().
			Err(err).
			Str("source", string(src)).
			Str("query", query).
			Dur("elapsed", time.Since(start)).
			Msg("external source search degraded")

		return Result{Source: src, Err: err}
	}

	metrics.SourceRequests.WithLabelValues(string(src), "success").Inc()
	return Result{Source: src, Records: records}
}

func (a *Adapter) search(ctx context.Context, query string, maxResults int) ([]model.ExternalAuthorRecord, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	return a.cb.Execute(func() ([]model.ExternalAuthorRecord, error) {
		return a.client.Search(ctx, query, maxResults)
	})
}

// State exposes the breaker state for health reporting
func (a *Adapter) State() gobreaker.State {
	return a.cb.State()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
