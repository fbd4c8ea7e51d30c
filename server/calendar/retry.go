package calendar

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultCallTimeout = 5 * time.Second

// retryOracle decorates another Oracle with per-call timeouts and bounded
// exponential backoff. Errors surviving all attempts are returned as-is, so
// OracleError detection still works upstream.
type retryOracle struct {
	next        Oracle
	maxRetries  uint64
	callTimeout time.Duration
}

// WithRetry wraps next so each call is retried up to maxRetries times with
// exponential backoff. callTimeout bounds every individual attempt; pass 0
// for the default.
func WithRetry(next Oracle, maxRetries uint64, callTimeout time.Duration) Oracle {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &retryOracle{
		next:        next,
		maxRetries:  maxRetries,
		callTimeout: callTimeout,
	}
}

var _ Oracle = (*retryOracle)(nil)

func (r *retryOracle) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, r.maxRetries), ctx)
}

func (r *retryOracle) IsFree(ctx context.Context, start, end time.Time) (bool, error) {
	var free bool
	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
		var err error
		free, err = r.next.IsFree(attemptCtx, start, end)
		return err
	}
	if err := backoff.Retry(op, r.policy(ctx)); err != nil {
		return false, err
	}
	return free, nil
}

func (r *retryOracle) CreateBooking(ctx context.Context, start, end time.Time, summary, guestEmail string) (string, error) {
	var link string
	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
		var err error
		link, err = r.next.CreateBooking(attemptCtx, start, end, summary, guestEmail)
		return err
	}
	if err := backoff.Retry(op, r.policy(ctx)); err != nil {
		return "", err
	}
	return link, nil
}
