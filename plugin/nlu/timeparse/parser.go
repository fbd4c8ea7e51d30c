// Package timeparse turns free-form chat text into a concrete meeting start
// time. An ordered list of strategies is evaluated left to right and the
// first success wins; every failure is silent, so the dialogue layer decides
// the conversational fallback.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Patterns for clock extraction, tried in order.
var (
	clockAmPmMinute = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(am|pm)`) // 3:00 pm
	clockAmPm       = regexp.MustCompile(`(\d{1,2})\s*(am|pm)`)         // 3 pm
	clock24h        = regexp.MustCompile(`(\d{1,2}):(\d{2})`)           // 15:00

	nextDatePattern = regexp.MustCompile(`next\s+(\d{1,2})\s+([a-z]+)`) // next 30 june
)

// vagueHours maps time-of-day words to the hour the assistant books by
// default.
var vagueHours = []struct {
	word string
	hour int
}{
	{"morning", 10},
	{"afternoon", 14},
	{"evening", 18},
	{"night", 20},
}

// weekdayNames is ordered; the first weekday found in the text wins.
var weekdayNames = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// monthNames accepts full and abbreviated English month names.
var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// Strategy attempts to read a time out of text relative to now.
type Strategy func(text string, now time.Time) (time.Time, bool)

// Resolver resolves natural-language time expressions against an injected
// clock.
type Resolver struct {
	general    *generalParser
	strategies []Strategy
}

// NewResolver creates a resolver with the full strategy chain: general
// parser, "next <day> <month>" dates, vague time-of-day words, then strict
// clock extraction.
func NewResolver() *Resolver {
	r := &Resolver{general: newGeneralParser()}
	r.strategies = []Strategy{
		r.general.parse,
		nextSpecificDate,
		vagueTimeOfDay,
		clockTime,
	}
	return r
}

// Resolve returns the first strategy hit for text, or false when nothing in
// the text reads as a time.
func (r *Resolver) Resolve(text string, now time.Time) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return time.Time{}, false
	}
	for _, strategy := range r.strategies {
		if t, ok := strategy(text, now); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// nextSpecificDate handles "next 30 june" style expressions, which the
// general parser has no rule for. The candidate lands in the current year and
// rolls to next year when it is today or already past. The clock comes from
// an explicit time in the text, else a vague time-of-day word, else 09:00.
func nextSpecificDate(text string, now time.Time) (time.Time, bool) {
	m := nextDatePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, ok := monthNames[m[2]]
	if !ok {
		return time.Time{}, false
	}

	candidate := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	if candidate.Day() != day {
		// time.Date normalized an impossible date such as "30 february".
		return time.Time{}, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !candidate.After(today) {
		candidate = candidate.AddDate(1, 0, 0)
	}

	hour, minute := 9, 0
	if t, ok := clockTime(text, now); ok {
		hour, minute = t.Hour(), t.Minute()
	} else if h, ok := vagueHour(text); ok {
		hour = h
	}
	return time.Date(candidate.Year(), candidate.Month(), candidate.Day(),
		hour, minute, 0, 0, now.Location()), true
}

// vagueTimeOfDay maps "morning"/"afternoon"/"evening"/"night" onto fixed
// hours, combined with a relative day keyword.
func vagueTimeOfDay(text string, now time.Time) (time.Time, bool) {
	hour, ok := vagueHour(text)
	if !ok {
		return time.Time{}, false
	}
	day := now.AddDate(0, 0, dayOffset(text))
	return time.Date(day.Year(), day.Month(), day.Day(),
		hour, 0, 0, 0, now.Location()), true
}

// clockTime extracts a strict clock expression and resolves the day from
// relative keywords or an explicit weekday name.
func clockTime(text string, now time.Time) (time.Time, bool) {
	hour, minute, ok := extractClock(text)
	if !ok {
		return time.Time{}, false
	}
	day := clockDate(text, now)
	return time.Date(day.Year(), day.Month(), day.Day(),
		hour, minute, 0, 0, now.Location()), true
}

func vagueHour(text string) (int, bool) {
	for _, v := range vagueHours {
		if strings.Contains(text, v.word) {
			return v.hour, true
		}
	}
	return 0, false
}

// dayOffset finds the first relative day keyword in a fixed priority order.
// No keyword means today.
func dayOffset(text string) int {
	switch {
	case strings.Contains(text, "tomorrow"):
		return 1
	case strings.Contains(text, "today"):
		return 0
	case strings.Contains(text, "next week"):
		return 7
	}
	return 0
}

// extractClock tries H:MM am/pm, H am/pm, then H:MM (24-hour), in order.
func extractClock(text string) (hour, minute int, ok bool) {
	if m := clockAmPmMinute.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		if hour > 12 || minute > 59 {
			return 0, 0, false
		}
		return meridiemHour(hour, m[3]), minute, true
	}
	if m := clockAmPm.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if hour > 12 {
			return 0, 0, false
		}
		return meridiemHour(hour, m[2]), 0, true
	}
	if m := clock24h.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return 0, 0, false
		}
		return hour, minute, true
	}
	return 0, 0, false
}

func meridiemHour(hour int, meridiem string) int {
	if meridiem == "pm" && hour != 12 {
		return hour + 12
	}
	if meridiem == "am" && hour == 12 {
		return 0
	}
	return hour
}

// clockDate resolves the day for an extracted clock: relative keywords first,
// then weekday names mapped to the next strict-future occurrence (a weekday
// matching today rolls a full week forward).
func clockDate(text string, now time.Time) time.Time {
	switch {
	case strings.Contains(text, "tomorrow"):
		return now.AddDate(0, 0, 1)
	case strings.Contains(text, "today"):
		return now
	case strings.Contains(text, "next week"):
		return now.AddDate(0, 0, 7)
	}

	for _, wd := range weekdayNames {
		if !strings.Contains(text, wd.name) {
			continue
		}
		ahead := (int(wd.day) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return now.AddDate(0, 0, ahead)
	}

	return now
}
