// Package session provides per-user conversation state for the dialogue
// engine, with pluggable persistence backings.
package session

import "time"

// MeetingDuration is the fixed length of every booked slot. It is not
// user-configurable.
const MeetingDuration = 30 * time.Minute

// Phase is the current stage of a user's booking dialogue. It constrains how
// the next message is interpreted.
type Phase int

const (
	// PhaseInitial is the default phase; the next message is read as a fresh
	// booking request.
	PhaseInitial Phase = iota
	// PhaseChecking means a proposed window is being checked against the
	// calendar. It is internal to a single turn.
	PhaseChecking
	// PhaseAwaitingChoice means alternatives were offered and the next message
	// answers them. SuggestedSlots is non-empty in this phase.
	PhaseAwaitingChoice
	// PhaseAwaitingEmail means the slot is free but no guest email is on file.
	PhaseAwaitingEmail
	// PhaseBooking means a slot was adopted and booking is in progress.
	PhaseBooking
	// PhaseCompleted means the booking thread finished. The next message
	// starts over.
	PhaseCompleted
)

// String returns the string representation of Phase.
func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "initial"
	case PhaseChecking:
		return "checking"
	case PhaseAwaitingChoice:
		return "awaiting_choice"
	case PhaseAwaitingEmail:
		return "awaiting_email"
	case PhaseBooking:
		return "booking"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ConversationState carries everything needed to interpret a user's next
// message. One state exists per user id, created on the first message.
type ConversationState struct {
	Phase          Phase       `json:"phase"`
	ProposedStart  *time.Time  `json:"proposed_start,omitempty"`
	ProposedEnd    *time.Time  `json:"proposed_end,omitempty"`
	SuggestedSlots []time.Time `json:"suggested_slots,omitempty"`
	GuestEmail     string      `json:"guest_email,omitempty"`
	UpdatedAt      int64       `json:"updated_at"`
}

// NewState returns a fresh state in the initial phase.
func NewState() *ConversationState {
	return &ConversationState{Phase: PhaseInitial}
}

// Propose sets the slot under discussion. The end is always the start plus
// the fixed meeting duration.
func (s *ConversationState) Propose(start time.Time) {
	end := start.Add(MeetingDuration)
	s.ProposedStart = &start
	s.ProposedEnd = &end
}

// ClearSuggestions drops the alternatives last offered.
func (s *ConversationState) ClearSuggestions() {
	s.SuggestedSlots = nil
}

// Clone returns a deep copy so stored state cannot be mutated through shared
// pointers.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	if s.ProposedStart != nil {
		start := *s.ProposedStart
		out.ProposedStart = &start
	}
	if s.ProposedEnd != nil {
		end := *s.ProposedEnd
		out.ProposedEnd = &end
	}
	if s.SuggestedSlots != nil {
		out.SuggestedSlots = append([]time.Time(nil), s.SuggestedSlots...)
	}
	return &out
}
