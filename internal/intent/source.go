package intent

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"techbook/internal/apperr"
	"techbook/internal/oracle"
)

// Signal is one source's evidence per intent, each value in [0,1].
type Signal map[Intent]float64

// Source is a strategy producing intent evidence for text.
type Source interface {
	Name() string
	Score(ctx context.Context, text string) (Signal, error)
}

type rule struct {
	intent Intent
	re     *regexp.Regexp
}

const (
	bookingNoun  = `(?:booking|reservation|appointment|schedule|session)`
	bookingNouns = `(?:bookings|reservations|appointments|schedules|sessions)`
	tradeNoun    = `(?:plumber|electrician|gardener|welder|carpenter|mechanic|painter|chef|teacher|developer|nurse|technician)s?`
)

// defaultRules are tried against normalized text; order only matters for logs.
var defaultRules = []rule{
	{CancelBooking, regexp.MustCompile(`\b(?:cancel|remove|delete|terminate|abort|discard|void|undo|revoke)\s+(?:(?:my|the|this|that)\s+)?` + bookingNoun + `\b`)},
	{CancelBooking, regexp.MustCompile(`\bcancel\s+(?:it|the\s+appointment|appointment)\b`)},

	{ListBookings, regexp.MustCompile(`\b(?:list|show|display|view|see|get|fetch|present|give\s+me)\s+(?:me\s+)?(?:all\s+)?(?:(?:my|the|of\s+the)\s+)?(?:current\s+|active\s+)?` + bookingNouns + `\b`)},
	{ListBookings, regexp.MustCompile(`\ball\s+(?:my\s+)?` + bookingNouns + `\b`)},
	{ListBookings, regexp.MustCompile(`\b(?:what\s+are\s+)?my\s+` + bookingNouns + `\b`)},

	{QueryBooking, regexp.MustCompile(`\b(?:get|find|retrieve|access|look\s+up|show|check)\s+(?:me\s+)?(?:the\s+)?(?:details\s+(?:of|for)\s+)?(?:(?:my|the|this)\s+)?` + bookingNoun + `\b`)},
	{QueryBooking, regexp.MustCompile(`\b` + bookingNoun + `\s+details\b`)},

	{CreateBooking, regexp.MustCompile(`\b(?:book|schedule|reserve|arrange|set\s+up|hire|get\s+me)\s+(?:(?:an?|the|me\s+an?)\s+)?` + tradeNoun + `\b`)},
	{CreateBooking, regexp.MustCompile(`\b(?:want|need|would\s+like|like)\s+to\s+(?:book|schedule|reserve)\b`)},
	{CreateBooking, regexp.MustCompile(`\b(?:make|create)\s+(?:an?\s+|new\s+)+(?:booking|reservation|appointment)\b`)},
}

// RuleEngine is the deterministic pattern source.
type RuleEngine struct {
	rules []rule
	boost float64
}

// NewRuleEngine returns the default pattern set; each fired pattern adds boost.
func NewRuleEngine(boost float64) *RuleEngine {
	return &RuleEngine{rules: defaultRules, boost: boost}
}

func (e *RuleEngine) Name() string { return "rules" }

func (e *RuleEngine) Score(_ context.Context, text string) (Signal, error) {
	norm := Normalize(text)
	out := Signal{}
	for _, r := range e.rules {
		if r.re.MatchString(norm) {
			out[r.intent] += e.boost
		}
	}
	for k, v := range out {
		if v > 1 {
			out[k] = 1
		}
	}
	return out, nil
}

// Normalize lowercases text, replaces punctuation with spaces and collapses whitespace.
func Normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-' || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}

// OracleSource adapts a classifier oracle. It supplies descriptive label text
// and maps the scores back onto intents.
type OracleSource struct {
	classifier oracle.Classifier
}

func NewOracleSource(c oracle.Classifier) *OracleSource {
	return &OracleSource{classifier: c}
}

func (s *OracleSource) Name() string { return "classifier" }

func (s *OracleSource) Score(ctx context.Context, text string) (Signal, error) {
	scores, err := s.classifier.Score(ctx, text, Candidates())
	if err != nil {
		if apperr.IsKind(err, apperr.KindOracleUnavailable) {
			return nil, err
		}
		return nil, apperr.OracleUnavailable("classifier", err)
	}
	out := make(Signal, len(All))
	for label, v := range scores {
		if i, ok := Parse(label); ok {
			out[i] = clamp01(v)
		}
	}
	return out, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
