// Package dialog implements the turn-based booking dialogue: parse the
// message, classify the intent, route on the conversation phase, act against
// the calendar, and persist the state needed to read the next message.
package dialog

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tailortalk/tailortalk/plugin/nlu/intent"
	"github.com/tailortalk/tailortalk/plugin/nlu/timeparse"
	"github.com/tailortalk/tailortalk/server/calendar"
	"github.com/tailortalk/tailortalk/server/scheduler/slots"
	"github.com/tailortalk/tailortalk/server/session"
)

const (
	defaultSummary = "Meeting Is Booked with AI Bot"

	// maxSuggestions bounds how many alternatives are offered at once.
	maxSuggestions = 3

	// maxRoutePasses bounds re-dispatch: a message that fails the choice
	// handling is re-read once as a fresh booking request, never more.
	maxRoutePasses = 2
)

var emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)

// Engine processes one chat turn at a time per user, serialized by user id.
type Engine struct {
	store    session.Store
	oracle   calendar.Oracle
	resolver *timeparse.Resolver
	locks    *session.KeyedLocks
	summary  string
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the reference clock. Tests use a fixed time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSummary overrides the event summary used for created bookings.
func WithSummary(summary string) Option {
	return func(e *Engine) { e.summary = summary }
}

// NewEngine creates a dialogue engine over the given store and oracle.
func NewEngine(store session.Store, oracle calendar.Oracle, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		oracle:   oracle,
		resolver: timeparse.NewResolver(),
		locks:    session.NewKeyedLocks(),
		summary:  defaultSummary,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessTurn handles one incoming message for userID and returns the reply.
// Turns for the same user are serialized; an oracle failure leaves the stored
// state untouched so the user can simply retry.
func (e *Engine) ProcessTurn(ctx context.Context, message, userID string) (string, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	state, err := e.store.Load(ctx, userID)
	if err != nil {
		return "", errors.Wrap(err, "failed to load conversation state")
	}
	if state == nil {
		state = session.NewState()
	}

	reply, next, err := e.runTurn(ctx, message, state)
	if err != nil {
		var oerr *calendar.OracleError
		if errors.As(err, &oerr) {
			slog.Warn("calendar oracle failed, state unchanged",
				"user", userID, "op", oerr.Op, "err", oerr.Err)
			return replyTryAgain, nil
		}
		return "", err
	}

	if err := e.store.Save(ctx, userID, next); err != nil {
		return "", errors.Wrap(err, "failed to save conversation state")
	}
	slog.Debug("turn processed", "user", userID, "phase", next.Phase.String())
	return reply, nil
}

// ProcessTurnWithState runs one turn against an explicit state, for callers
// that manage persistence themselves. The input state is not mutated.
func (e *Engine) ProcessTurnWithState(ctx context.Context, message string, state *session.ConversationState) (string, *session.ConversationState, error) {
	if state == nil {
		state = session.NewState()
	}
	next := state.Clone()
	reply, next, err := e.runTurn(ctx, message, next)
	if err != nil {
		return "", nil, err
	}
	return reply, next, nil
}

// Reset removes a user's stored state.
func (e *Engine) Reset(ctx context.Context, userID string) error {
	unlock := e.locks.Lock(userID)
	defer unlock()
	return e.store.Delete(ctx, userID)
}

// runTurn mutates state in place and returns the reply. On error the caller
// must discard state.
func (e *Engine) runTurn(ctx context.Context, message string, state *session.ConversationState) (string, *session.ConversationState, error) {
	// A literal greeting always short-circuits, whatever the phase.
	if intent.IsGreeting(message) {
		state.Phase = session.PhaseInitial
		return replyGreeting, state, nil
	}

	// While an email is pending, every message is scanned for one.
	if state.Phase == session.PhaseAwaitingEmail {
		email := emailPattern.FindString(message)
		if email == "" {
			return replyBadEmail, state, nil
		}
		state.GuestEmail = email
		state.Phase = session.PhaseBooking
		reply, err := e.checkAndBook(ctx, state)
		return reply, state, err
	}

	// A message that names one of the offered slots, by affirmative word or
	// by its literal clock time, adopts that slot directly.
	if state.Phase == session.PhaseAwaitingChoice {
		if slot, ok := e.pickSuggestedSlot(message, state); ok {
			state.Propose(slot)
			state.ClearSuggestions()
			state.Phase = session.PhaseBooking
			reply, err := e.checkAndBook(ctx, state)
			return reply, state, err
		}
	}

	for pass := 0; pass < maxRoutePasses; pass++ {
		switch intent.Classify(message, state.Phase) {
		case intent.IntentAcceptSuggestion:
			// An acceptance token without a matching slot; re-read the whole
			// message as a fresh request.
			state.Phase = session.PhaseInitial
			continue

		case intent.IntentRejectSuggestion:
			state.ClearSuggestions()
			state.Phase = session.PhaseInitial
			return replyRejection, state, nil

		case intent.IntentBook:
			resolved, ok := e.resolver.Resolve(message, e.now())
			if !ok {
				state.Phase = session.PhaseInitial
				return e.fallbackReply(message), state, nil
			}
			state.Propose(resolved)
			state.ClearSuggestions()
			state.Phase = session.PhaseChecking
			reply, err := e.checkAndBook(ctx, state)
			return reply, state, err

		default:
			state.Phase = session.PhaseInitial
			return e.fallbackReply(message), state, nil
		}
	}

	state.Phase = session.PhaseInitial
	return replyNotSure, state, nil
}

// pickSuggestedSlot maps an acceptance message onto one of the offered
// slots: a bare affirmative takes the first, and a literal clock time takes
// the slot it names.
func (e *Engine) pickSuggestedSlot(message string, state *session.ConversationState) (time.Time, bool) {
	if len(state.SuggestedSlots) == 0 {
		return time.Time{}, false
	}
	if intent.IsAffirmative(message) || strings.Contains(strings.ToLower(message), "first") {
		return state.SuggestedSlots[0], true
	}
	normalized := strings.ToLower(message)
	for _, slot := range state.SuggestedSlots {
		if strings.Contains(normalized, slot.Format("15:04")) ||
			strings.Contains(normalized, slot.Format("3:04")) {
			return slot, true
		}
	}
	return time.Time{}, false
}

// checkAndBook asks the oracle about the proposed window, then books it,
// asks for an email, or suggests alternatives.
func (e *Engine) checkAndBook(ctx context.Context, state *session.ConversationState) (string, error) {
	if state.ProposedStart == nil || state.ProposedEnd == nil {
		state.Phase = session.PhaseInitial
		return replyBusy, nil
	}
	start := *state.ProposedStart
	end := *state.ProposedEnd

	free, err := e.oracle.IsFree(ctx, start, end)
	if err != nil {
		return "", err
	}
	if !free {
		return e.suggestAlternatives(ctx, state)
	}

	if state.GuestEmail == "" {
		state.Phase = session.PhaseAwaitingEmail
		return replyAskEmail, nil
	}

	link, err := e.oracle.CreateBooking(ctx, start, end, e.summary, state.GuestEmail)
	if err != nil {
		return "", err
	}
	state.Phase = session.PhaseCompleted
	slog.Info("meeting booked", "start", start.Format("2006-01-02 15:04"), "guest", state.GuestEmail)
	return replyBooked(start, link), nil
}

// suggestAlternatives offers up to maxSuggestions free slots on the proposed
// day, or resets when the day is full.
func (e *Engine) suggestAlternatives(ctx context.Context, state *session.ConversationState) (string, error) {
	date := *state.ProposedStart
	found, err := slots.Suggest(ctx, e.oracle, date, session.MeetingDuration)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		state.Phase = session.PhaseInitial
		return replyNoSlots(date), nil
	}

	if len(found) > maxSuggestions {
		found = found[:maxSuggestions]
	}
	state.SuggestedSlots = found
	state.Phase = session.PhaseAwaitingChoice
	return replySuggestions(date, found), nil
}

// fallbackReply distinguishes "time words that failed to parse" from plain
// unknown input.
func (e *Engine) fallbackReply(message string) string {
	if intent.HasTimeWords(message) {
		return replyUnparsedTime(message)
	}
	return replyNoTimeWords
}
