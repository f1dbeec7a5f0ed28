package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
)

const (
	statusSuccess      = "success"
	defaultOperation   = "tx"
	defaultMaxAttempts = 3
)

type opKey struct{}

// WithOperation labels the transactions started under ctx for hooks.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, opKey{}, strings.TrimSpace(op))
}

func operationFrom(ctx context.Context) string {
	if op, _ := ctx.Value(opKey{}).(string); op != "" {
		return op
	}
	return defaultOperation
}

type RetryConfig struct {
	// MaxAttempts includes the first try. Zero selects 3.
	MaxAttempts int
	// Backoff is the pause before attempt n+1, scaled by n.
	Backoff time.Duration
	Hooks   Hooks
}

type retryingTxRunner struct {
	inner   TxRunner
	max     int
	backoff time.Duration
	hooks   Hooks
}

// NewRetryingTxRunner reruns the whole transaction on serialization failures
// and deadlocks. Every attempt starts from a rolled-back state, so fn sees no
// writes from earlier attempts.
func NewRetryingTxRunner(inner TxRunner, cfg RetryConfig) TxRunner {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Hooks == nil {
		cfg.Hooks = noopHooks{}
	}
	return &retryingTxRunner{inner: inner, max: cfg.MaxAttempts, backoff: cfg.Backoff, hooks: cfg.Hooks}
}

func (r *retryingTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	op := operationFrom(ctx)
	start := time.Now()
	var err error
	for attempt := 1; ; attempt++ {
		err = r.inner.InTx(ctx, fn)
		if err == nil || attempt >= r.max || !IsRetryable(err) || ctx.Err() != nil {
			break
		}
		r.hooks.IncRetry(op)
		if r.backoff > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(attempt) * r.backoff):
			}
		}
	}
	status := statusSuccess
	if err != nil {
		status = errorStatus(err)
		if domain.IsCode(err, domain.CodeConflict) || IsRetryable(err) {
			r.hooks.IncConflict(op)
		}
	}
	r.hooks.ObserveOperation(op, status, time.Since(start))
	return err
}

// IsRetryable reports serialization failures, deadlocks and sqlite lock
// contention.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "deadlock detected")
}

func errorStatus(err error) string {
	if err == nil {
		return statusSuccess
	}
	if code := domain.CodeOf(err); code != "" {
		return string(code)
	}
	if code := domain.CodeOf(MapError("tx.status", err)); code != "" {
		return string(code)
	}
	return "failure"
}
