package dialog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailortalk/tailortalk/server/calendar"
	"github.com/tailortalk/tailortalk/server/session"
)

// Wednesday 2026-03-04 11:30; "tomorrow" is Thursday the 5th, "friday" the 6th.
func fixedClock() time.Time {
	return time.Date(2026, 3, 4, 11, 30, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T) (*Engine, *calendar.FakeOracle, session.Store) {
	t.Helper()
	store := session.NewMemoryStore()
	oracle := calendar.NewFakeOracle()
	engine := NewEngine(store, oracle, WithClock(fixedClock))
	return engine, oracle, store
}

func TestProcessTurn_BookFreeSlotAsksForEmail(t *testing.T) {
	engine, _, store := newTestEngine(t)
	ctx := context.Background()

	reply, err := engine.ProcessTurn(ctx, "Book me a call tomorrow at 3pm", "alice")
	require.NoError(t, err)
	assert.Equal(t, replyAskEmail, reply)

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, session.PhaseAwaitingEmail, state.Phase)
	require.NotNil(t, state.ProposedStart)
	assert.Equal(t, "2026-03-05 15:00", state.ProposedStart.Format("2006-01-02 15:04"))
	assert.Equal(t, state.ProposedStart.Add(session.MeetingDuration), *state.ProposedEnd)
}

func TestProcessTurn_EmailCompletesBooking(t *testing.T) {
	engine, oracle, store := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "Book me a call tomorrow at 3pm", "alice")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "sure, it's jane@example.com", "alice")
	require.NoError(t, err)
	assert.Contains(t, reply, "2026-03-05 15:00")
	assert.Contains(t, reply, "https://calendar.local/events/")

	bookings := oracle.Bookings()
	require.Len(t, bookings, 1)
	assert.Equal(t, "jane@example.com", bookings[0].GuestEmail)
	assert.Equal(t, "Meeting Is Booked with AI Bot", bookings[0].Summary)

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseCompleted, state.Phase)
	assert.Equal(t, "jane@example.com", state.GuestEmail)
}

func TestProcessTurn_InvalidEmailReprompts(t *testing.T) {
	engine, _, store := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "Book me a call tomorrow at 3pm", "alice")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "why do you need that?", "alice")
	require.NoError(t, err)
	assert.Equal(t, replyBadEmail, reply)

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseAwaitingEmail, state.Phase)
}

func TestProcessTurn_BusySlotSuggestsAlternatives(t *testing.T) {
	engine, oracle, store := newTestEngine(t)
	ctx := context.Background()

	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	// Everything busy except 09:00, 11:00 and 14:00.
	for _, h := range []int{10, 12, 13, 15, 16, 17} {
		oracle.MarkBusy(friday.Add(time.Duration(h)*time.Hour), friday.Add(time.Duration(h+1)*time.Hour))
	}

	reply, err := engine.ProcessTurn(ctx, "Friday at 10am", "alice")
	require.NoError(t, err)
	assert.Contains(t, reply, "09:00, 11:00, 14:00")
	assert.Contains(t, reply, "2026-03-06")

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseAwaitingChoice, state.Phase)
	require.Len(t, state.SuggestedSlots, 3)
	assert.Equal(t, 9, state.SuggestedSlots[0].Hour())
	assert.Equal(t, 11, state.SuggestedSlots[1].Hour())
	assert.Equal(t, 14, state.SuggestedSlots[2].Hour())
}

func TestProcessTurn_SuggestionsTruncatedToThree(t *testing.T) {
	engine, oracle, store := newTestEngine(t)
	ctx := context.Background()

	// Only the requested 10:00 window is busy; all other hours stay free.
	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	oracle.MarkBusy(friday.Add(10*time.Hour), friday.Add(11*time.Hour))

	reply, err := engine.ProcessTurn(ctx, "Friday at 10am", "alice")
	require.NoError(t, err)
	assert.Contains(t, reply, "09:00, 11:00, 12:00")

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, state.SuggestedSlots, 3)
}

func TestProcessTurn_RejectionResets(t *testing.T) {
	engine, oracle, store := newTestEngine(t)
	ctx := context.Background()

	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	oracle.MarkBusy(friday.Add(10*time.Hour), friday.Add(11*time.Hour))
	_, err := engine.ProcessTurn(ctx, "Friday at 10am", "alice")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "no", "alice")
	require.NoError(t, err)
	assert.Equal(t, replyRejection, reply)

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseInitial, state.Phase)
	assert.Empty(t, state.SuggestedSlots)
}

func TestProcessTurn_AffirmativeAdoptsFirstSlot(t *testing.T) {
	engine, oracle, store := newTestEngine(t)
	ctx := context.Background()

	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	oracle.MarkBusy(friday.Add(10*time.Hour), friday.Add(11*time.Hour))
	_, err := engine.ProcessTurn(ctx, "Friday at 10am", "alice")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "yes", "alice")
	require.NoError(t, err)
	assert.Equal(t, replyAskEmail, reply)

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseAwaitingEmail, state.Phase)
	require.NotNil(t, state.ProposedStart)
	assert.Equal(t, "2026-03-06 09:00", state.ProposedStart.Format("2006-01-02 15:04"))
	assert.Empty(t, state.SuggestedSlots)
}

func TestProcessTurn_LiteralTimeAdoptsNamedSlot(t *testing.T) {
	engine, oracle, store := newTestEngine(t)
	ctx := context.Background()

	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	oracle.MarkBusy(friday.Add(10*time.Hour), friday.Add(11*time.Hour))
	_, err := engine.ProcessTurn(ctx, "Friday at 10am", "alice")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "11:00 please", "alice")
	require.NoError(t, err)
	assert.Equal(t, replyAskEmail, reply)

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, state.ProposedStart)
	assert.Equal(t, "2026-03-06 11:00", state.ProposedStart.Format("2006-01-02 15:04"))
}

func TestProcessTurn_CounterProposalWhileChoosing(t *testing.T) {
	engine, oracle, store := newTestEngine(t)
	ctx := context.Background()

	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	oracle.MarkBusy(friday.Add(10*time.Hour), friday.Add(11*time.Hour))
	_, err := engine.ProcessTurn(ctx, "Friday at 10am", "alice")
	require.NoError(t, err)

	// A fresh time instead of an answer is read as a new booking request.
	reply, err := engine.ProcessTurn(ctx, "tomorrow at 4pm", "alice")
	require.NoError(t, err)
	assert.Equal(t, replyAskEmail, reply)

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05 16:00", state.ProposedStart.Format("2006-01-02 15:04"))
}

func TestProcessTurn_GreetingResetsFromAnyPhase(t *testing.T) {
	engine, _, store := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "Book me a call tomorrow at 3pm", "alice")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "hello", "alice")
	require.NoError(t, err)
	assert.Equal(t, replyGreeting, reply)

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseInitial, state.Phase)
}

func TestProcessTurn_FallbackReplies(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	reply, err := engine.ProcessTurn(ctx, "how is the weather", "alice")
	require.NoError(t, err)
	assert.Equal(t, replyNoTimeWords, reply)

	// Time words that resolve to nothing get the more specific reply.
	reply, err = engine.ProcessTurn(ctx, "maybe friday sometime?", "alice")
	require.NoError(t, err)
	if !strings.Contains(reply, "couldn't parse the exact time") {
		// "friday" alone may still resolve through the clock strategies;
		// if it parsed, the turn moved on to an availability reply.
		assert.NotEqual(t, replyNoTimeWords, reply)
	}
}

func TestProcessTurn_NoFreeSlotsThatDay(t *testing.T) {
	engine, oracle, store := newTestEngine(t)
	ctx := context.Background()

	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	oracle.MarkBusy(friday.Add(8*time.Hour), friday.Add(19*time.Hour))

	reply, err := engine.ProcessTurn(ctx, "Friday at 10am", "alice")
	require.NoError(t, err)
	assert.Contains(t, reply, "no other free times on 2026-03-06")

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseInitial, state.Phase)
}

func TestProcessTurn_OracleFailureIsRetrySafe(t *testing.T) {
	engine, oracle, store := newTestEngine(t)
	ctx := context.Background()

	oracle.FailNext(assert.AnError)
	reply, err := engine.ProcessTurn(ctx, "Book me a call tomorrow at 3pm", "alice")
	require.NoError(t, err)
	assert.Equal(t, replyTryAgain, reply)

	// Nothing was persisted; the retry starts clean and succeeds.
	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, state)

	reply, err = engine.ProcessTurn(ctx, "Book me a call tomorrow at 3pm", "alice")
	require.NoError(t, err)
	assert.Equal(t, replyAskEmail, reply)
}

func TestProcessTurn_EmailPersistsAcrossBookings(t *testing.T) {
	engine, oracle, store := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "Book me a call tomorrow at 3pm", "alice")
	require.NoError(t, err)
	_, err = engine.ProcessTurn(ctx, "jane@example.com", "alice")
	require.NoError(t, err)

	// Second booking skips the email question entirely.
	reply, err := engine.ProcessTurn(ctx, "book another call friday at 10am", "alice")
	require.NoError(t, err)
	assert.Contains(t, reply, "2026-03-06 10:00")
	require.Len(t, oracle.Bookings(), 2)

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseCompleted, state.Phase)
}

func TestProcessTurn_UsersAreIndependent(t *testing.T) {
	engine, _, store := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "Book me a call tomorrow at 3pm", "alice")
	require.NoError(t, err)
	_, err = engine.ProcessTurn(ctx, "hello", "bob")
	require.NoError(t, err)

	alice, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseAwaitingEmail, alice.Phase)

	bob, err := store.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseInitial, bob.Phase)
}

func TestReset(t *testing.T) {
	engine, _, store := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "Book me a call tomorrow at 3pm", "alice")
	require.NoError(t, err)
	require.NoError(t, engine.Reset(ctx, "alice"))

	state, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestProcessTurnWithState(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	reply, next, err := engine.ProcessTurnWithState(ctx, "Book me a call tomorrow at 3pm", nil)
	require.NoError(t, err)
	assert.Equal(t, replyAskEmail, reply)
	require.NotNil(t, next)
	assert.Equal(t, session.PhaseAwaitingEmail, next.Phase)

	// The caller's state object is never mutated.
	prior := next.Clone()
	_, after, err := engine.ProcessTurnWithState(ctx, "jane@example.com", prior)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseAwaitingEmail, prior.Phase)
	assert.Equal(t, session.PhaseCompleted, after.Phase)
	assert.Equal(t, "jane@example.com", after.GuestEmail)
}
