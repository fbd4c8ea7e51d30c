package timeparse

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/en"
)

// clockComponentPattern decides whether a general-parser match carried an
// explicit clock. Date-only matches ("tomorrow", "friday") inherit the
// current wall clock from the base time and are rejected here, so the vague
// and strict strategies keep authority over defaults.
var clockComponentPattern = regexp.MustCompile(`\d|\bnoon\b|midnight`)

// generalParser is the first resolver strategy. It runs four configuration
// variants in sequence: natural language with future preference, month-first
// numeric dates, day-first numeric dates, then natural language relative to
// now with no adjustment. First non-empty result wins; variants are never
// merged.
type generalParser struct {
	w *when.Parser
}

func newGeneralParser() *generalParser {
	w := when.New(nil)
	// Exact month-date rules are deliberately left out: "next 30 june" has
	// its own strategy with year-rollover semantics.
	w.Add(
		en.CasualDate(rules.Override),
		en.CasualTime(rules.Override),
		en.Weekday(rules.Override),
		en.Hour(rules.Override),
		en.HourMinute(rules.Override),
		en.Deadline(rules.Override),
	)
	return &generalParser{w: w}
}

func (g *generalParser) parse(text string, now time.Time) (time.Time, bool) {
	// "next 30 june at 3pm" must not be half-matched on its clock alone; the
	// dedicated next-date strategy owns the whole expression. The carve-out
	// applies only to real month names, so "in the next 2 days" still reaches
	// the deadline rule below.
	if m := nextDatePattern.FindStringSubmatch(text); m != nil {
		if _, ok := monthNames[m[2]]; ok {
			return time.Time{}, false
		}
	}
	if t, ok := g.parseNatural(text, now, true); ok {
		return t, true
	}
	if t, ok := parseNumeric(text, now, true); ok {
		return t, true
	}
	if t, ok := parseNumeric(text, now, false); ok {
		return t, true
	}
	return g.parseNatural(text, now, false)
}

// parseNatural applies the curated English rule set. With preferFuture, a
// time-only result already behind now rolls forward one day; results further
// in the past are rejected so the relative variant can still return them. A
// message that names its day outright ("today at 9:00 am") is never rolled:
// the explicit day word wins over the future preference.
func (g *generalParser) parseNatural(text string, now time.Time, preferFuture bool) (time.Time, bool) {
	result, err := g.w.Parse(text, now)
	if err != nil || result == nil {
		return time.Time{}, false
	}
	if !clockComponentPattern.MatchString(result.Text) {
		return time.Time{}, false
	}

	t := result.Time
	if preferFuture && t.Before(now) && !namesDay(text) {
		if now.Sub(t) >= 24*time.Hour {
			return time.Time{}, false
		}
		t = t.Add(24 * time.Hour)
	}
	return t, true
}

// namesDay reports whether the text carries an explicit day word, relative or
// by weekday name.
func namesDay(text string) bool {
	if strings.Contains(text, "today") ||
		strings.Contains(text, "tomorrow") ||
		strings.Contains(text, "next week") {
		return true
	}
	for _, wd := range weekdayNames {
		if strings.Contains(text, wd.name) {
			return true
		}
	}
	return false
}

// parseNumeric handles fully explicit date strings, where only the ambiguous
// numeric ordering differs between the two variants.
func parseNumeric(text string, now time.Time, monthFirst bool) (time.Time, bool) {
	t, err := dateparse.ParseIn(text, now.Location(), dateparse.PreferMonthFirst(monthFirst))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
