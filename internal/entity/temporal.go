package entity

import (
	"regexp"
	"sort"
	"strings"
)

const (
	weekdayWords  = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`
	weekdayAbbrev = `mon|tues?|wed|thu(?:rs?)?|fri|sat|sun`
	monthWords    = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`
	countWords    = `\d{1,3}|an?|one|two|three|four|five|six|seven|eight|nine|ten`
)

// temporalTriggers is the library of phrases that carry date or time meaning.
var temporalTriggers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:next|this|on)\s+(?:` + weekdayWords + `|` + weekdayAbbrev + `)\b`),
	regexp.MustCompile(`(?i)\b(?:` + weekdayWords + `)\b`),
	regexp.MustCompile(`(?i)\b(?:` + weekdayWords + `|` + weekdayAbbrev + `)\s+after\s+next\b`),
	regexp.MustCompile(`(?i)\b(?:this\s+|in\s+the\s+)?(?:morning|afternoon|evening)\b`),
	regexp.MustCompile(`(?i)\b(?:the\s+)?day\s+after\s+tomorrow\b`),
	regexp.MustCompile(`(?i)\b(?:today|tomorrow|tonight)\b`),
	regexp.MustCompile(`(?i)\bnext\s+week\b`),
	regexp.MustCompile(`(?i)\bin\s+(?:` + countWords + `)\s+(?:days?|weeks?)\b`),
	regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{4})?\b`),
	regexp.MustCompile(`(?i)\b(?:on\s+)?(?:` + monthWords + `)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`),
	regexp.MustCompile(`(?i)\b(?:on\s+)?(?:the\s+)?\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?(?:` + monthWords + `)\b(?:,?\s+\d{4}\b)?`),
	regexp.MustCompile(`(?i)\b(?:at\s+)?\d{1,2}(?:[:.]\d{2})?\s*[ap]\.?\s?m\b\.?`),
	regexp.MustCompile(`(?i)\b(?:at\s+)?\d{1,2}:\d{2}\b`),
	regexp.MustCompile(`(?i)\b(?:at\s+)?(?:noon|midday|midnight)\b`),
	regexp.MustCompile(`(?i)\bat\s+\d{1,2}\b`),
}

// temporalSpans returns every trigger match, merged where they overlap and
// sorted by position.
func temporalSpans(text string) []span {
	var found []span
	for _, re := range temporalTriggers {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			found = append(found, span{start: loc[0], end: loc[1]})
		}
	}
	if len(found) == 0 {
		return nil
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].start != found[j].start {
			return found[i].start < found[j].start
		}
		return found[i].end > found[j].end
	})

	merged := []span{found[0]}
	for _, s := range found[1:] {
		last := &merged[len(merged)-1]
		if s.start < last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// joinSpans concatenates span texts in order of appearance.
func joinSpans(text string, spans []span) string {
	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		if p := strings.TrimSpace(text[s.start:s.end]); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
