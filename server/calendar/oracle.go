// Package calendar provides the availability oracle: free/busy queries and
// booking creation against a single calendar identity.
package calendar

import (
	"context"
	"fmt"
	"time"
)

// Booking describes a created calendar event.
type Booking struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Summary    string    `json:"summary"`
	GuestEmail string    `json:"guest_email,omitempty"`
	Link       string    `json:"link"`
}

// Oracle answers free/busy questions and creates bookings. Implementations
// map naive local timestamps onto their configured calendar zone.
type Oracle interface {
	// IsFree reports whether the [start, end) window has no busy interval.
	IsFree(ctx context.Context, start, end time.Time) (bool, error)
	// CreateBooking creates an event and returns a link to it. guestEmail may
	// be empty, in which case no attendee is invited.
	CreateBooking(ctx context.Context, start, end time.Time, summary, guestEmail string) (string, error)
}

// OracleError wraps a calendar backend failure with the operation that
// produced it. Callers detect it with errors.As and keep conversation state
// unchanged so the turn stays retry-safe.
type OracleError struct {
	Op  string
	Err error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("calendar %s: %v", e.Op, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}
