// Package intent classifies free-text chat messages into scheduling intents.
package intent

import (
	"strings"

	"github.com/tailortalk/tailortalk/server/session"
)

// Intent represents the scheduling intent of a message.
type Intent int

const (
	// IntentUnknown is for unrecognized messages.
	IntentUnknown Intent = iota
	// IntentBook is a request to book a meeting, explicit or implied by time words.
	IntentBook
	// IntentAcceptSuggestion accepts one of the previously offered slots.
	IntentAcceptSuggestion
	// IntentRejectSuggestion rejects all previously offered slots.
	IntentRejectSuggestion
)

// String returns the string representation of Intent.
func (i Intent) String() string {
	switch i {
	case IntentBook:
		return "book"
	case IntentAcceptSuggestion:
		return "accept_suggestion"
	case IntentRejectSuggestion:
		return "reject_suggestion"
	default:
		return "unknown"
	}
}

// Token tables for substring classification. Order within each table is the
// tie-break: tables are scanned in declaration order and the first matching
// category wins.
var (
	acceptTokens = []string{"yes", "ok", "okay", "sure", "first", "09:00", "9:00", "10:00", "11:00"}
	rejectTokens = []string{"no", "none", "different", "other"}

	// choiceTimeTokens mark a counter-proposal while slots are on the table.
	choiceTimeTokens = []string{"tomorrow", "today", "pm", "am", ":"}

	bookingVerbs = []string{"book", "schedule", "meeting", "call", "appointment"}

	timeTokens = []string{
		"tomorrow", "today", "next week",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"am", "pm", ":",
	}

	affirmativeWords = []string{"yes", "ok", "okay", "sure"}
	greetingWords    = []string{"hi", "hello", "hey"}

	// fallbackTimeWords is the looser day-word list used to distinguish "I saw
	// time words but could not parse them" from plain unknown input.
	fallbackTimeWords = []string{
		"tomorrow", "today", "next week",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	}
)

// Classify determines the intent of message given the current conversation
// phase. Matching is case-insensitive substring search.
func Classify(message string, phase session.Phase) Intent {
	normalized := strings.ToLower(message)

	if phase == session.PhaseAwaitingChoice {
		if containsAny(normalized, acceptTokens) {
			return IntentAcceptSuggestion
		}
		if containsAny(normalized, rejectTokens) {
			return IntentRejectSuggestion
		}
		if containsAny(normalized, choiceTimeTokens) {
			return IntentBook
		}
	}

	if containsAny(normalized, bookingVerbs) {
		return IntentBook
	}
	if containsAny(normalized, timeTokens) {
		return IntentBook
	}
	return IntentUnknown
}

// IsAffirmative reports whether the whole message, trimmed, is a literal
// affirmative word. Unlike Classify this is an exact match, not a substring
// search, so "yesterday at 9" does not count.
func IsAffirmative(message string) bool {
	normalized := strings.TrimSpace(strings.ToLower(message))
	for _, w := range affirmativeWords {
		if normalized == w {
			return true
		}
	}
	return false
}

// IsGreeting reports whether the whole message, trimmed, is a literal
// greeting word.
func IsGreeting(message string) bool {
	normalized := strings.TrimSpace(strings.ToLower(message))
	for _, w := range greetingWords {
		if normalized == w {
			return true
		}
	}
	return false
}

// HasTimeWords reports whether the message mentions a day-like word. Used to
// pick the fallback reply when nothing parsed.
func HasTimeWords(message string) bool {
	return containsAny(strings.ToLower(message), fallbackTimeWords)
}

func containsAny(normalized string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(normalized, tok) {
			return true
		}
	}
	return false
}
