package dialog

import (
	"fmt"
	"strings"
	"time"
)

// Reply texts. Formatters keep the wording in one place so tests and the
// engine cannot drift apart.
const (
	replyGreeting = "Hi there! Let me know if you'd like to book a call. For example, you can say 'Book me a call tomorrow at 3pm.'"

	replyAskEmail = "Great! Before I book this meeting, could you please provide your email so I can add it to the calendar invite?"
	replyBadEmail = "Hmm, that doesn't look like a valid email. Please type your email address."

	replyRejection = "No problem! Please suggest another time that works for you (e.g., 'tomorrow at 2pm' or 'Friday at 10am')."

	replyBusy = "Sorry, that time slot is busy. Please suggest another time."

	replyNoTimeWords = "I couldn't find any time information in your message. Please try something like 'book me a call tomorrow at 3pm'."

	replyNotSure = "I'm not sure how to help with that. Please try booking a meeting with a specific time."

	replyTryAgain = "Sorry, I couldn't reach the calendar just now. Please try again in a moment."
)

func replyBooked(start time.Time, link string) string {
	return fmt.Sprintf("✅ Your meeting is booked for %s. Here's the link: %s",
		start.Format("2006-01-02 15:04"), link)
}

func replySuggestions(date time.Time, suggested []time.Time) string {
	times := make([]string, len(suggested))
	for i, s := range suggested {
		times[i] = s.Format("15:04")
	}
	return fmt.Sprintf("Sorry, that time slot is busy. But I'm free at these times on %s: %s. Would you like one of those?",
		date.Format("2006-01-02"), strings.Join(times, ", "))
}

func replyNoSlots(date time.Time) string {
	return fmt.Sprintf("Sorry, that time slot is busy and I found no other free times on %s. Please suggest another day or time.",
		date.Format("2006-01-02"))
}

func replyUnparsedTime(message string) string {
	return fmt.Sprintf("I detected time-related words in '%s' but couldn't parse the exact time. Please try formats like 'tomorrow at 3pm' or 'next Monday at 2:30pm'.",
		strings.ToLower(strings.TrimSpace(message)))
}
