package oracle

import (
	"context"
	"math"
	"regexp"
	"strings"
)

// DefaultIntentKeywords are the offline cue words for the intent labels.
func DefaultIntentKeywords() map[string][]string {
	return map[string][]string{
		"create_booking": {"book", "schedule", "hire", "need", "reserve", "arrange", "appointment with"},
		"cancel_booking": {"cancel", "delete", "remove", "drop", "call off", "undo"},
		"query_booking":  {"details", "detail", "status", "info", "information", "what time", "when is"},
		"list_bookings":  {"list", "all bookings", "all reservations", "all appointments", "every booking", "my bookings", "my reservations", "my appointments"},
	}
}

// KeywordClassifier scores labels by cue-word hits. It needs no network and
// backs offline runs.
type KeywordClassifier struct {
	patterns map[string][]*regexp.Regexp
}

func NewKeywordClassifier(keywords map[string][]string) *KeywordClassifier {
	k := &KeywordClassifier{patterns: make(map[string][]*regexp.Regexp, len(keywords))}
	for label, words := range keywords {
		for _, w := range words {
			re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
			k.patterns[label] = append(k.patterns[label], re)
		}
	}
	return k
}

// Score gives 1-0.5^hits per label, so one cue word yields 0.5.
func (k *KeywordClassifier) Score(_ context.Context, text string, candidates map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(candidates))
	for label := range candidates {
		hits := 0
		for _, re := range k.patterns[label] {
			if re.MatchString(text) {
				hits++
			}
		}
		out[label] = clamp01(1 - math.Pow(0.5, float64(hits)))
	}
	return out, nil
}

var capitalizedRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:['-][A-Za-z]+)*\b`)

var nonNames = func() map[string]bool {
	words := []string{
		"book", "booking", "bookings", "cancel", "schedule", "please", "hi", "hello", "hey",
		"can", "could", "would", "need", "want", "list", "show", "get", "find", "hire",
		"today", "tomorrow", "tonight", "morning", "afternoon", "evening",
		"next", "this", "on", "at", "for", "with", "the", "my", "is",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"january", "february", "march", "april", "may", "june", "july", "august",
		"september", "october", "november", "december",
		"plumber", "electrician", "gardener", "welder", "carpenter", "mechanic",
		"painter", "chef", "teacher", "developer", "nurse", "technician",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()

// CapitalizedNER treats runs of two or more capitalized words as person
// names. Calendar words, professions and command verbs break a run.
type CapitalizedNER struct{}

func (CapitalizedNER) PersonNames(_ context.Context, text string) ([]Span, error) {
	var (
		spans []Span
		run   [][]int
	)
	flush := func() {
		if len(run) >= 2 {
			start, end := run[0][0], run[len(run)-1][1]
			spans = append(spans, Span{Text: text[start:end], Start: start, End: end, Score: 0.5})
		}
		run = run[:0]
	}

	for _, loc := range capitalizedRe.FindAllStringIndex(text, -1) {
		if nonNames[strings.ToLower(text[loc[0]:loc[1]])] {
			flush()
			continue
		}
		if len(run) > 0 && text[run[len(run)-1][1]:loc[0]] != " " {
			flush()
		}
		run = append(run, loc)
	}
	flush()
	return spans, nil
}
