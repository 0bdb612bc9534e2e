package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/orangeboy/storefront/pkg/metrics"
	"go.uber.org/zap"
)

const (
	SourceDurable  = "durable"
	SourceFallback = "fallback"
)

// Outcome classifies one tier's attempt at an operation.
type Outcome int

const (
	// Succeeded stops the chain with a value.
	Succeeded Outcome = iota
	// Unavailable means the tier is not configured; the next tier is tried.
	Unavailable
	// Failed means the tier errored operationally; the next tier is tried.
	Failed
	// Rejected stops the chain with a terminal error (not found, bad id).
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Unavailable:
		return "unavailable"
	case Failed:
		return "failed"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Attempt is the result of running one tier.
type Attempt[T any] struct {
	Outcome Outcome
	Value   T
	Err     error
}

func success[T any](v T) Attempt[T] {
	return Attempt[T]{Outcome: Succeeded, Value: v}
}

func unavailable[T any]() Attempt[T] {
	return Attempt[T]{Outcome: Unavailable, Err: ErrUnavailable}
}

func rejected[T any](err error) Attempt[T] {
	return Attempt[T]{Outcome: Rejected, Err: err}
}

// classify turns a backend call result into an Attempt. Not-found and
// invalid input are terminal; everything else lets the next tier run.
func classify[T any](v T, err error) Attempt[T] {
	if err == nil {
		return success(v)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID) {
		return rejected[T](err)
	}
	if _, ok := IsValidation(err); ok {
		return rejected[T](err)
	}
	return Attempt[T]{Outcome: Failed, Err: err}
}

// tier is one storage option in the fallback chain.
type tier[T any] struct {
	source  string
	backend string
	run     func(ctx context.Context) Attempt[T]
}

// resolved carries the value and which tier produced it.
type resolved[T any] struct {
	value   T
	source  string
	backend string
}

// resolve runs tiers in order and stops at the first success or rejection.
func resolve[T any](ctx context.Context, op string, tiers ...tier[T]) (resolved[T], error) {
	var zero resolved[T]
	lastErr := ErrUnavailable
	for _, t := range tiers {
		a := t.run(ctx)
		switch a.Outcome {
		case Succeeded:
			if t.source == SourceFallback {
				metrics.IncFallback(op)
			}
			return resolved[T]{value: a.Value, source: t.source, backend: t.backend}, nil
		case Rejected:
			return resolved[T]{source: t.source, backend: t.backend}, a.Err
		case Failed:
			metrics.IncBackendError(t.backend, op)
			zap.L().Warn("product backend failed, trying next tier",
				zap.String("operation", op),
				zap.String("backend", t.backend),
				zap.Error(a.Err))
			lastErr = a.Err
		case Unavailable:
			zap.L().Debug("product backend unavailable",
				zap.String("operation", op),
				zap.String("backend", t.backend))
		}
	}
	if errors.Is(lastErr, ErrUnavailable) {
		return zero, lastErr
	}
	return zero, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}
