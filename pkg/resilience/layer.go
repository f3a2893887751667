// Package resilience wraps every outbound collaborator call with retries,
// exponential backoff with jitter, rate-limit cooperation and correlation-id
// propagation. A Layer is scoped to one batch of operations; nothing in this
// package keeps process-wide state.
package resilience

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
)

// RetryContext follows one logical outbound call across its attempts. It is never persisted.
type RetryContext struct {
	CorrelationID string
	Attempt       int
	LastErrorKind FailureClass
}

// ExhaustedError is wrapped into an apperr.KindUnavailable error once the retry budget is spent.
type ExhaustedError struct {
	Retry RetryContext
	Err   error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts (correlation_id=%s, last=%s): %v",
		e.Retry.Attempt, e.Retry.CorrelationID, e.Retry.LastErrorKind, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type Layer struct {
	settings Settings
	clock    Clock
	rand     Rand
	metrics  *Metrics
}

type Option func(*Layer)

func WithClock(c Clock) Option {
	return func(l *Layer) { l.clock = c }
}

func WithRand(r Rand) Option {
	return func(l *Layer) { l.rand = r }
}

func WithMetrics(m *Metrics) Option {
	return func(l *Layer) { l.metrics = m }
}

func New(settings Settings, opts ...Option) (*Layer, error) {
	if err := settings.Validate(); err != nil {
		return nil, apperr.New(apperr.KindInvalidArgument, "resilience.new", err)
	}
	l := &Layer{
		settings: settings,
		clock:    systemClock{},
		rand:     newLockedRand(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Layer) Settings() Settings {
	return l.settings
}

// Execute runs op until it succeeds, fails with a non-retryable error, the
// retry budget is exhausted or ctx is done. op must be idempotent.
func Execute[T any](ctx context.Context, l *Layer, operation string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	ctx, correlationID := EnsureCorrelationID(ctx)
	logger := zerolog.Ctx(ctx).With().
		Str("correlation_id", correlationID).
		Str("operation", operation).
		Logger()

	rc := RetryContext{CorrelationID: correlationID}
	var lastErr error

	for attempt := 1; attempt <= l.settings.MaxAttempts; attempt++ {
		rc.Attempt = attempt

		if err := ctx.Err(); err != nil {
			l.metrics.observeAttempt(operation, OutcomeCanceled)
			logger.Info().Int("attempt", attempt).Msg("operation canceled before attempt")
			return zero, fmt.Errorf("%s: %w", operation, err)
		}

		value, err := runAttempt(ctx, l.settings.AttemptTimeout, op)
		if err == nil {
			l.metrics.observeAttempt(operation, OutcomeSuccess)
			logger.Debug().Int("attempt", attempt).Msg("attempt succeeded")
			return value, nil
		}

		// the caller gave up; a per-attempt timeout alone does not end the loop
		if ctxErr := ctx.Err(); ctxErr != nil {
			l.metrics.observeAttempt(operation, OutcomeCanceled)
			logger.Info().Int("attempt", attempt).Msg("operation canceled during attempt")
			return zero, fmt.Errorf("%s: %w", operation, ctxErr)
		}

		failure := classifyAt(err, l.clock.Now())
		rc.LastErrorKind = failure.Class
		lastErr = err

		if !failure.Class.Retryable() {
			l.metrics.observeAttempt(operation, OutcomeFailure)
			logger.Error().
				Int("attempt", attempt).
				Str("error_kind", string(failure.Class)).
				Int("status_code", failure.StatusCode).
				Str("error", Redact(err.Error())).
				Msg("attempt failed with non-retryable error")
			return zero, terminalError(operation, failure, err)
		}

		if attempt == l.settings.MaxAttempts {
			l.metrics.observeAttempt(operation, OutcomeExhausted)
			break
		}

		delay := l.delay(attempt, failure)
		l.metrics.observeAttempt(operation, OutcomeRetry)
		l.metrics.observeDelay(failure.Class, delay)
		logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", l.settings.MaxAttempts).
			Str("error_kind", string(failure.Class)).
			Int("status_code", failure.StatusCode).
			Dur("delay", delay).
			Str("error", Redact(err.Error())).
			Msg("attempt failed, retrying")

		if err := l.clock.Sleep(ctx, delay); err != nil {
			l.metrics.observeAttempt(operation, OutcomeCanceled)
			logger.Info().Int("attempt", attempt).Msg("operation canceled during backoff")
			return zero, fmt.Errorf("%s: %w", operation, err)
		}
	}

	logger.Error().
		Int("attempts", rc.Attempt).
		Str("error_kind", string(rc.LastErrorKind)).
		Str("error", Redact(lastErr.Error())).
		Msg("retry budget exhausted")
	return zero, apperr.Unavailable(operation, &ExhaustedError{Retry: rc, Err: lastErr})
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}

func terminalError(operation string, failure Failure, err error) error {
	switch failure.Class {
	case FailureUnauthorized:
		if apperr.Is(err, apperr.KindUnauthorized) {
			return err
		}
		return apperr.Unauthorized(operation, err)
	case FailureBadRequest:
		if apperr.Is(err, apperr.KindInvalidArgument) {
			return err
		}
		return apperr.New(apperr.KindInvalidArgument, operation, err)
	case FailureExhausted:
		return err
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

// delay honours a Retry-After hint on rate-limited responses and falls back to backoff.
func (l *Layer) delay(attempt int, failure Failure) time.Duration {
	if failure.Class == FailureRateLimited && failure.RetryAfter > 0 {
		return min(failure.RetryAfter, l.settings.MaxDelay)
	}
	return l.Backoff(attempt)
}

// Backoff returns the jittered exponential delay applied after the given failed attempt (1-based).
func (l *Layer) Backoff(attempt int) time.Duration {
	maxDelay := float64(l.settings.MaxDelay)
	d := float64(l.settings.BaseDelay) * math.Pow(2, float64(attempt-1))
	if d > maxDelay {
		d = maxDelay
	}
	if j := l.settings.JitterFactor; j > 0 {
		d *= 1 + j*(2*l.rand.Float64()-1)
	}
	if d > maxDelay {
		d = maxDelay
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
