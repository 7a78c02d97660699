package entity

import (
	"regexp"
	"sort"
	"strings"

	"techbook/internal/models"
)

var (
	bookingRefRe = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	// A reference-looking token after "booking" or "id" that is not a UUID.
	refCandidateRe = regexp.MustCompile(`(?i)\b(?:booking|reservation|appointment|id)\s*(?:id\s*)?#?\s*([A-Za-z0-9][A-Za-z0-9-]*\d[A-Za-z0-9-]*)\b`)

	professionRe = buildProfessionRe()
)

func buildProfessionRe() *regexp.Regexp {
	words := make([]string, 0, len(models.Professions))
	for _, p := range models.Professions {
		words = append(words, p.Keyword())
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)(?:e?s)?\b`)
}

type keywordHint struct {
	re         *regexp.Regexp
	profession models.Profession
}

// compileHints turns the configured keyword lists into matchers. Unknown
// profession names are skipped. Longer keywords are tried first.
func compileHints(keywords map[string][]string) []keywordHint {
	type pair struct {
		kw string
		p  models.Profession
	}
	var pairs []pair
	for name, kws := range keywords {
		p, ok := models.ParseProfession(name)
		if !ok {
			continue
		}
		for _, kw := range kws {
			if kw = strings.TrimSpace(strings.ToLower(kw)); kw != "" {
				pairs = append(pairs, pair{kw, p})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if len(pairs[i].kw) != len(pairs[j].kw) {
			return len(pairs[i].kw) > len(pairs[j].kw)
		}
		return pairs[i].kw < pairs[j].kw
	})

	hints := make([]keywordHint, 0, len(pairs))
	for _, pr := range pairs {
		hints = append(hints, keywordHint{
			re:         regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(pr.kw) + `\b`),
			profession: pr.p,
		})
	}
	return hints
}

// Capitalized words that never start or continue a person name.
var nameStopWords = map[string]bool{
	"i": true, "i'm": true, "im": true, "my": true, "the": true, "a": true, "an": true,
	"book": true, "schedule": true, "reserve": true, "cancel": true, "please": true,
	"for": true, "on": true, "at": true, "next": true, "this": true, "to": true,
	"am": true, "pm": true, "today": true, "tomorrow": true, "tonight": true,
	"morning": true, "afternoon": true, "evening": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
}

// Phrases that mark the following name as the customer.
var customerCues = []string{"my name is", "i'm", "i am", "im", "this is", "name's", "for customer", "customer"}

// Words allowed between a profession keyword and the technician name.
var nameConnectors = map[string]bool{"named": true, "called": true, "the": true}
