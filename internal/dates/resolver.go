// Package dates resolves the calendar date a caller is asking about.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthPattern = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|` +
	`aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

var (
	isoRegex      = regexp.MustCompile(`\b(20\d{2})-(\d{1,2})-(\d{1,2})\b`)
	dayMonthRegex = regexp.MustCompile(`\b(?P<day>\d{1,2})(?:st|nd|rd|th)?\s*(?:of\s+)?` +
		`(?P<month>` + monthPattern + `)(?:\s*(?P<year>\d{4}))?\b`)
	monthDayRegex = regexp.MustCompile(`\b(?P<month>` + monthPattern + `)\s*` +
		`(?P<day>\d{1,2})(?:st|nd|rd|th)?(?:\s*(?P<year>\d{4}))?\b`)
	weekdayRegex = regexp.MustCompile(`\b(?P<qualifier>next|this)?\s*` +
		`(?P<weekday>monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
}

// Resolution is the outcome of resolving a date phrase.
type Resolution struct {
	Date         time.Time // midnight UTC of the resolved day
	ExplicitYear bool
}

// Label formats the date for callers: ISO when the year was stated, otherwise "Jan 2".
func (r Resolution) Label() string {
	if r.ExplicitYear {
		return r.Date.Format("2006-01-02")
	}
	return r.Date.Format("Jan 2")
}

// SameMonthDay reports whether d falls on the resolved month and day in any year.
func (r Resolution) SameMonthDay(d time.Time) bool {
	return d.Month() == r.Date.Month() && d.Day() == r.Date.Day()
}

// Resolver turns utterances into dates relative to a clock.
type Resolver struct {
	now func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used for relative phrases and the assumed year.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver; the clock defaults to time.Now.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the date text refers to. ok is false when no phrase matches or the
// first matching phrase names an impossible date; lower-priority phrases are not tried
// after a match.
func (r *Resolver) Resolve(text string) (Resolution, bool) {
	if strings.TrimSpace(text) == "" {
		return Resolution{}, false
	}
	if m := isoRegex.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		d, ok := civilDate(year, time.Month(month), day)
		if !ok {
			return Resolution{}, false
		}
		return Resolution{Date: d, ExplicitYear: true}, true
	}

	lowered := strings.ToLower(text)
	today := r.today()
	switch {
	case strings.Contains(lowered, "day after tomorrow"):
		return Resolution{Date: today.AddDate(0, 0, 2)}, true
	case strings.Contains(lowered, "tomorrow"):
		return Resolution{Date: today.AddDate(0, 0, 1)}, true
	case strings.Contains(lowered, "today"):
		return Resolution{Date: today}, true
	}

	if m := namedSubmatch(dayMonthRegex, lowered); m != nil {
		return resolveMonthDay(m, today.Year())
	}
	if m := namedSubmatch(monthDayRegex, lowered); m != nil {
		return resolveMonthDay(m, today.Year())
	}

	if m := namedSubmatch(weekdayRegex, lowered); m != nil {
		target := weekdays[m["weekday"]]
		ahead := (int(target) - int(today.Weekday()) + 7) % 7
		if m["qualifier"] == "next" && ahead == 0 {
			ahead = 7
		}
		return Resolution{Date: today.AddDate(0, 0, ahead)}, true
	}
	return Resolution{}, false
}

func (r *Resolver) today() time.Time {
	now := r.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func resolveMonthDay(m map[string]string, currentYear int) (Resolution, bool) {
	day, err := strconv.Atoi(m["day"])
	if err != nil {
		return Resolution{}, false
	}
	month, ok := months[m["month"][:3]]
	if !ok {
		return Resolution{}, false
	}
	year := currentYear
	explicit := m["year"] != ""
	if explicit {
		if year, err = strconv.Atoi(m["year"]); err != nil {
			return Resolution{}, false
		}
	}
	d, ok := civilDate(year, month, day)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Date: d, ExplicitYear: explicit}, true
}

// civilDate builds a date, rejecting values time.Date would silently normalize.
func civilDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func namedSubmatch(re *regexp.Regexp, text string) map[string]string {
	match := re.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	out := make(map[string]string, len(match))
	for i, name := range re.SubexpNames() {
		if name != "" {
			out[name] = match[i]
		}
	}
	return out
}
