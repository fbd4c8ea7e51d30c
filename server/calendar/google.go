package calendar

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleOracle implements Oracle on top of the Google Calendar API. It holds
// a single calendar identity and a fixed time zone; incoming timestamps are
// treated as wall-clock values in that zone.
type GoogleOracle struct {
	service    *calendar.Service
	calendarID string
	location   *time.Location
}

// NewGoogleOracle builds a GoogleOracle from an OAuth credentials file and a
// previously stored token file.
func NewGoogleOracle(ctx context.Context, credentialsFile, tokenFile, calendarID string, loc *time.Location) (*GoogleOracle, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read credentials file")
	}
	config, err := google.ConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse OAuth config")
	}
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load OAuth token")
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create calendar service")
	}
	return &GoogleOracle{
		service:    service,
		calendarID: calendarID,
		location:   loc,
	}, nil
}

var _ Oracle = (*GoogleOracle)(nil)

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

// localize rebuilds t as the same wall clock in the oracle's zone. Naive
// timestamps from the dialog layer carry no usable offset of their own.
func (o *GoogleOracle) localize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, o.location)
}

// IsFree queries free/busy for the window on the configured calendar.
func (o *GoogleOracle) IsFree(ctx context.Context, start, end time.Time) (bool, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin: o.localize(start).Format(time.RFC3339),
		TimeMax: o.localize(end).Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: o.calendarID}},
	}
	resp, err := o.service.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return false, &OracleError{Op: "freebusy query", Err: err}
	}
	cal, ok := resp.Calendars[o.calendarID]
	if !ok {
		return false, &OracleError{Op: "freebusy query", Err: errors.Errorf("calendar %s missing from response", o.calendarID)}
	}
	return len(cal.Busy) == 0, nil
}

// CreateBooking inserts the event and returns its HTML link. A non-empty
// guestEmail is invited with notifications enabled.
func (o *GoogleOracle) CreateBooking(ctx context.Context, start, end time.Time, summary, guestEmail string) (string, error) {
	event := &calendar.Event{
		Summary: summary,
		Start: &calendar.EventDateTime{
			DateTime: o.localize(start).Format(time.RFC3339),
			TimeZone: o.location.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: o.localize(end).Format(time.RFC3339),
			TimeZone: o.location.String(),
		},
	}
	sendUpdates := "none"
	if guestEmail != "" {
		event.Attendees = []*calendar.EventAttendee{{Email: guestEmail}}
		sendUpdates = "all"
	}

	created, err := o.service.Events.Insert(o.calendarID, event).SendUpdates(sendUpdates).Context(ctx).Do()
	if err != nil {
		return "", &OracleError{Op: "event insert", Err: err}
	}
	return created.HtmlLink, nil
}
