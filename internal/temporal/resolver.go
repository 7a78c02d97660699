// Package temporal turns natural-language time phrases into absolute,
// timezone-aware booking slots.
package temporal

import (
	"time"

	"techbook/internal/apperr"
	"techbook/internal/models"
)

// Options configures a Resolver.
type Options struct {
	Location     *time.Location
	EarliestHour int // inclusive
	LatestHour   int // exclusive
	DefaultHour  int
}

// DefaultOptions returns UTC with business hours [9, 18).
func DefaultOptions() Options {
	return Options{Location: time.UTC, EarliestHour: 9, LatestHour: 18, DefaultHour: 9}
}

// Resolver resolves phrases relative to an injected reference instant.
type Resolver struct {
	opts Options
}

func New(opts Options) *Resolver {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Resolver{opts: opts}
}

// Location returns the timezone resolved instants are expressed in.
func (r *Resolver) Location() *time.Location { return r.opts.Location }

// Resolve returns the one-hour slot the phrase refers to. The start is
// strictly after now and falls within business hours.
func (r *Resolver) Resolve(phrase string, now time.Time) (models.Interval, error) {
	s := normalize(phrase)
	if s == "" {
		return models.Interval{}, apperr.TemporalResolution("no date or time given")
	}
	now = now.In(r.opts.Location)

	tod, hasClock, valid := parseClock(s)
	if !valid {
		return models.Interval{}, r.fail(phrase, "invalid time of day in %q", phrase)
	}
	date, weekdayHint, hasDate := parseDate(s)
	if !hasDate && !hasClock {
		return models.Interval{}, r.fail(phrase, "could not understand date/time %q", phrase)
	}
	if !hasClock {
		tod = clock{hour: r.opts.DefaultHour}
	}

	start, err := r.anchor(date, hasDate, tod, now)
	if err != nil {
		return models.Interval{}, r.wrap(err, phrase)
	}
	if weekdayHint != nil && start.Weekday() != *weekdayHint {
		return models.Interval{}, r.fail(phrase, "%s is a %s, not a %s",
			start.Format("2006-01-02"), start.Weekday(), *weekdayHint)
	}

	if tod.hour < r.opts.EarliestHour || tod.hour >= r.opts.LatestHour {
		return models.Interval{}, r.fail(phrase, "%s is outside business hours (%02d:00-%02d:00)",
			start.Format("15:04"), r.opts.EarliestHour, r.opts.LatestHour).
			With("hour", tod.hour)
	}
	if !start.After(now) {
		return models.Interval{}, r.fail(phrase, "%s is not in the future", start.Format(time.RFC3339)).
			With("resolved", start.Format(time.RFC3339))
	}
	return models.NewSlot(start), nil
}

// anchor computes the calendar date relative to now and applies the clock.
func (r *Resolver) anchor(d parsedDate, hasDate bool, tod clock, now time.Time) (time.Time, error) {
	at := func(day time.Time) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), tod.hour, tod.minute, 0, 0, r.opts.Location)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.opts.Location)

	if !hasDate {
		// Time only: the nearest future occurrence of that time.
		start := at(today)
		if !start.After(now) {
			start = at(today.AddDate(0, 0, 1))
		}
		return start, nil
	}

	switch d.kind {
	case dateExplicit:
		year := d.year
		if year == 0 {
			year = now.Year()
		}
		start := time.Date(year, d.month, d.day, tod.hour, tod.minute, 0, 0, r.opts.Location)
		if start.Month() != d.month || start.Day() != d.day || d.month < time.January || d.month > time.December {
			return time.Time{}, apperr.TemporalResolution("invalid calendar date")
		}
		if d.year == 0 && !start.After(now) {
			start = start.AddDate(1, 0, 0)
		}
		return start, nil

	case dateRelative:
		return at(today.AddDate(0, 0, d.offsetDays)), nil

	case dateWeekday:
		diff := (int(d.weekday) - int(now.Weekday()) + 7) % 7
		if d.next && diff == 0 {
			diff = 7
		}
		start := at(today.AddDate(0, 0, diff))
		if !d.next && !start.After(now) {
			start = start.AddDate(0, 0, 7)
		}
		return start.AddDate(0, 0, 7*d.extraWeeks), nil
	}
	return time.Time{}, apperr.TemporalResolution("unsupported date expression")
}

func (r *Resolver) fail(phrase, format string, args ...any) *apperr.Error {
	return apperr.TemporalResolution(format, args...).With("phrase", phrase)
}

func (r *Resolver) wrap(err error, phrase string) error {
	if e, ok := err.(*apperr.Error); ok {
		return e.With("phrase", phrase)
	}
	return err
}
