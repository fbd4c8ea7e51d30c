package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

type busyInterval struct {
	start time.Time
	end   time.Time
}

// FakeOracle is an in-memory Oracle for development and tests. It starts
// fully free; busy windows are declared with MarkBusy and grow as bookings
// are created.
type FakeOracle struct {
	mu       sync.Mutex
	busy     []busyInterval
	bookings []Booking
	failNext error
}

// NewFakeOracle creates an empty FakeOracle.
func NewFakeOracle() *FakeOracle {
	return &FakeOracle{}
}

var _ Oracle = (*FakeOracle)(nil)

// MarkBusy declares [start, end) as occupied.
func (o *FakeOracle) MarkBusy(start, end time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = append(o.busy, busyInterval{start: start, end: end})
}

// FailNext makes the next oracle call return the given error. Used by tests
// to exercise failure handling.
func (o *FakeOracle) FailNext(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failNext = err
}

func (o *FakeOracle) takeFailure(op string) error {
	if o.failNext == nil {
		return nil
	}
	err := o.failNext
	o.failNext = nil
	return &OracleError{Op: op, Err: err}
}

// IsFree reports whether the window overlaps no busy interval.
func (o *FakeOracle) IsFree(_ context.Context, start, end time.Time) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.takeFailure("freebusy query"); err != nil {
		return false, err
	}
	for _, b := range o.busy {
		if start.Before(b.end) && b.start.Before(end) {
			return false, nil
		}
	}
	return true, nil
}

// CreateBooking records the booking, marks its window busy, and returns a
// synthetic event link.
func (o *FakeOracle) CreateBooking(_ context.Context, start, end time.Time, summary, guestEmail string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.takeFailure("event insert"); err != nil {
		return "", err
	}
	if !start.Before(end) {
		return "", &OracleError{Op: "event insert", Err: errors.New("booking window is empty")}
	}

	link := "https://calendar.local/events/" + shortuuid.New()
	o.busy = append(o.busy, busyInterval{start: start, end: end})
	o.bookings = append(o.bookings, Booking{
		Start:      start,
		End:        end,
		Summary:    summary,
		GuestEmail: guestEmail,
		Link:       link,
	})
	return link, nil
}

// Bookings returns a copy of all bookings created so far.
func (o *FakeOracle) Bookings() []Booking {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Booking, len(o.bookings))
	copy(out, o.bookings)
	return out
}
