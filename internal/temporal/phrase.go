package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type dateKind int

const (
	dateNone dateKind = iota
	dateExplicit
	dateRelative
	dateWeekday
)

// parsedDate is the calendar part of a phrase before it is anchored to "now".
type parsedDate struct {
	kind dateKind

	// dateExplicit
	year  int // 0 when the phrase carries no year
	month time.Month
	day   int

	// dateRelative
	offsetDays int

	// dateWeekday
	weekday time.Weekday
	next    bool
	// "<weekday> after next" lands one week past the plain weekday.
	extraWeeks int
}

type clock struct {
	hour, minute int
}

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

var (
	isoDateRe       = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	slashDateRe     = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}))?\b`)
	monthDayRe      = regexp.MustCompile(`\b` + monthPattern + `\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	dayMonthRe      = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `(?:,?\s+(\d{4}))?\b`)
	inOffsetRe      = regexp.MustCompile(`\bin\s+(\d{1,3}|an?|one|two|three|four|five|six|seven|eight|nine|ten)\s+(days?|weeks?)\b`)
	weekdayRe       = regexp.MustCompile(`\b(?:(next|this|on)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	weekdayAbbrevRe = regexp.MustCompile(`\b(next|this|on)\s+(mon|tues?|wed|thu(?:rs?)?|fri|sat|sun)\b\.?`)
	nextWeekRe      = regexp.MustCompile(`\bnext\s+week\b`)
	thisPartOfDayRe = regexp.MustCompile(`\bthis\s+(?:morning|afternoon|evening)\b`)
	afterNextRe     = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tues?|wed|thu(?:rs?)?|fri|sat|sun)\s+after\s+next\b`)

	meridiemRe  = regexp.MustCompile(`\b(\d{1,2})(?:[:.](\d{2}))?\s*([ap])\.?\s?m\b\.?`)
	clock24Re   = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	bareAtRe    = regexp.MustCompile(`\bat\s+(\d{1,2})\b`)
	noonRe      = regexp.MustCompile(`\b(noon|midday)\b`)
	midnightRe  = regexp.MustCompile(`\bmidnight\b`)
	partOfDayRe = regexp.MustCompile(`\b(morning|afternoon|evening|tonight)\b`)
)

// partOfDay holds the clock a bare part-of-day word stands for.
var partOfDay = map[string]clock{
	"morning":   {9, 0},
	"afternoon": {14, 0},
	"evening":   {17, 0},
	"tonight":   {17, 0},
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

func normalize(phrase string) string {
	s := strings.ToLower(phrase)
	s = strings.NewReplacer(",", " ", ";", " ", "!", " ", "?", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func parseMonth(s string) time.Month {
	s = strings.TrimSuffix(s, ".")
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), s[:3]) {
			return m
		}
	}
	return 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// parseDate extracts the calendar component. Explicit dates win over
// relative words, which win over weekday names. A weekday that accompanies
// an explicit date is returned separately so the caller can cross-check it.
func parseDate(s string) (d parsedDate, weekdayHint *time.Weekday, ok bool) {
	wd, wdFound := parseWeekday(s)

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		d = parsedDate{kind: dateExplicit, year: atoi(m[1]), month: time.Month(atoi(m[2])), day: atoi(m[3])}
		return d, hintOf(wd, wdFound), true
	}
	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		d = parsedDate{kind: dateExplicit, month: parseMonth(m[1]), day: atoi(m[2]), year: atoi(m[3])}
		return d, hintOf(wd, wdFound), true
	}
	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		d = parsedDate{kind: dateExplicit, day: atoi(m[1]), month: parseMonth(m[2]), year: atoi(m[3])}
		return d, hintOf(wd, wdFound), true
	}
	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		d = parsedDate{kind: dateExplicit, month: time.Month(atoi(m[1])), day: atoi(m[2]), year: atoi(m[3])}
		return d, hintOf(wd, wdFound), true
	}

	switch {
	case strings.Contains(s, "day after tomorrow"):
		return parsedDate{kind: dateRelative, offsetDays: 2}, nil, true
	case strings.Contains(s, "tomorrow"):
		return parsedDate{kind: dateRelative, offsetDays: 1}, nil, true
	case strings.Contains(s, "today"), strings.Contains(s, "tonight"), thisPartOfDayRe.MatchString(s):
		return parsedDate{kind: dateRelative}, nil, true
	}
	if m := inOffsetRe.FindStringSubmatch(s); m != nil {
		n, isWord := numberWords[m[1]]
		if !isWord {
			n = atoi(m[1])
		}
		if strings.HasPrefix(m[2], "week") {
			n *= 7
		}
		return parsedDate{kind: dateRelative, offsetDays: n}, nil, true
	}

	if wdFound {
		return wd, nil, true
	}
	if nextWeekRe.MatchString(s) {
		return parsedDate{kind: dateRelative, offsetDays: 7}, nil, true
	}
	return parsedDate{}, nil, false
}

func parseWeekday(s string) (parsedDate, bool) {
	if m := afterNextRe.FindStringSubmatch(s); m != nil {
		return parsedDate{kind: dateWeekday, weekday: weekdays[m[1]], extraWeeks: 1}, true
	}
	m := weekdayRe.FindStringSubmatch(s)
	if m == nil {
		m = weekdayAbbrevRe.FindStringSubmatch(s)
	}
	if m == nil {
		return parsedDate{}, false
	}
	return parsedDate{kind: dateWeekday, weekday: weekdays[m[2]], next: m[1] == "next"}, true
}

func hintOf(d parsedDate, found bool) *time.Weekday {
	if !found {
		return nil
	}
	wd := d.weekday
	return &wd
}

// parseClock extracts a time of day. ok is false when the phrase has none;
// valid is false when a time was found but is not a real clock reading.
func parseClock(s string) (c clock, ok, valid bool) {
	if m := meridiemRe.FindStringSubmatch(s); m != nil {
		h, min := atoi(m[1]), atoi(m[2])
		if h < 1 || h > 12 || min > 59 {
			return clock{}, true, false
		}
		h %= 12
		if m[3] == "p" {
			h += 12
		}
		return clock{h, min}, true, true
	}
	if m := clock24Re.FindStringSubmatch(s); m != nil {
		h, min := atoi(m[1]), atoi(m[2])
		if h > 23 || min > 59 {
			return clock{}, true, false
		}
		return clock{h, min}, true, true
	}
	if noonRe.MatchString(s) {
		return clock{12, 0}, true, true
	}
	if midnightRe.MatchString(s) {
		return clock{0, 0}, true, true
	}
	if m := bareAtRe.FindStringSubmatch(s); m != nil {
		h := atoi(m[1])
		if h > 23 {
			return clock{}, true, false
		}
		// "at 3" means mid-afternoon, not three in the morning.
		if h >= 1 && h <= 7 {
			h += 12
		}
		return clock{h, 0}, true, true
	}
	if m := partOfDayRe.FindStringSubmatch(s); m != nil {
		return partOfDay[m[1]], true, true
	}
	return clock{}, false, true
}
