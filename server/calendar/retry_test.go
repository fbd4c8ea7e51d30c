package calendar

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyOracle fails a fixed number of calls before delegating.
type flakyOracle struct {
	next      Oracle
	failures  int32
	attempts  int32
	permanent bool
}

func (f *flakyOracle) fail() error {
	atomic.AddInt32(&f.attempts, 1)
	if f.permanent || atomic.AddInt32(&f.failures, -1) >= 0 {
		return &OracleError{Op: "freebusy query", Err: errors.New("transient failure")}
	}
	return nil
}

func (f *flakyOracle) IsFree(ctx context.Context, start, end time.Time) (bool, error) {
	if err := f.fail(); err != nil {
		return false, err
	}
	return f.next.IsFree(ctx, start, end)
}

func (f *flakyOracle) CreateBooking(ctx context.Context, start, end time.Time, summary, guestEmail string) (string, error) {
	if err := f.fail(); err != nil {
		return "", err
	}
	return f.next.CreateBooking(ctx, start, end, summary, guestEmail)
}

func TestWithRetry_RecoversFromTransientFailure(t *testing.T) {
	inner := NewFakeOracle()
	flaky := &flakyOracle{next: inner, failures: 2}
	o := WithRetry(flaky, 3, time.Second)

	start := time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC)
	free, err := o.IsFree(context.Background(), start, start.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, free)
	assert.Equal(t, int32(3), atomic.LoadInt32(&flaky.attempts))
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	inner := NewFakeOracle()
	flaky := &flakyOracle{next: inner, permanent: true}
	o := WithRetry(flaky, 2, time.Second)

	start := time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC)
	_, err := o.IsFree(context.Background(), start, start.Add(30*time.Minute))

	var oerr *OracleError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, int32(3), atomic.LoadInt32(&flaky.attempts))
}

func TestWithRetry_CreateBookingPassesThrough(t *testing.T) {
	inner := NewFakeOracle()
	o := WithRetry(inner, 1, 0)

	start := time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC)
	link, err := o.CreateBooking(context.Background(), start, start.Add(30*time.Minute), "call", "jane@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, link)
	require.Len(t, inner.Bookings(), 1)
}
