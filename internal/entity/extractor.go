// Package entity pulls booking-relevant entities out of free text.
package entity

import (
	"context"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"techbook/internal/apperr"
	"techbook/internal/models"
	"techbook/internal/oracle"
)

// Name sources reported in Entities.NameSource.
const (
	SourceNER  = "ner"
	SourceRule = "rule"
)

// Entities holds everything extracted from one command. Every field is optional.
type Entities struct {
	Profession     models.Profession `json:"profession,omitempty"`
	TechnicianName string            `json:"technician_name,omitempty"`
	CustomerName   string            `json:"customer_name,omitempty"`
	BookingRef     string            `json:"booking_reference,omitempty"`
	TemporalPhrase string            `json:"temporal_phrase,omitempty"`

	// InvalidRef is a reference-looking token that is not a valid booking id.
	InvalidRef string `json:"invalid_reference,omitempty"`
	NameSource string `json:"name_source,omitempty"`
}

type span struct {
	start, end int
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// claims tracks text already assigned to a higher-priority entity class.
type claims []span

func (c claims) taken(s span) bool {
	for _, o := range c {
		if s.overlaps(o) {
			return true
		}
	}
	return false
}

// Extractor combines vocabulary and regex rules with an optional NER oracle.
// Overlapping candidates are resolved by priority:
// booking reference, then profession, then person name, then temporal phrase.
type Extractor struct {
	ner    oracle.NER
	hints  []keywordHint
	logger *zerolog.Logger
}

// NewExtractor builds an extractor. ner may be nil, in which case person
// names come from the adjacency rule only.
func NewExtractor(ner oracle.NER, keywords map[string][]string, logger *zerolog.Logger) *Extractor {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Extractor{ner: ner, hints: compileHints(keywords), logger: logger}
}

// Extract never fails for missing entities; the only error is an
// unavailable NER oracle.
func (x *Extractor) Extract(ctx context.Context, text string) (*Entities, error) {
	ent := &Entities{}
	var taken claims

	if loc := bookingRefRe.FindStringIndex(text); loc != nil {
		ent.BookingRef = strings.ToLower(text[loc[0]:loc[1]])
		taken = append(taken, span{loc[0], loc[1]})
	} else if m := refCandidateRe.FindStringSubmatchIndex(text); m != nil {
		ent.InvalidRef = text[m[2]:m[3]]
		taken = append(taken, span{m[2], m[3]})
	}

	profSpan, ok := x.profession(text, taken, ent)
	if ok {
		taken = append(taken, profSpan)
	}

	persons, source, err := x.persons(ctx, text, taken, profSpan, ok)
	if err != nil {
		return nil, err
	}
	if len(persons) > 0 {
		ent.NameSource = source
	}
	assignRoles(text, persons, ent)
	taken = append(taken, persons...)

	var phrase []span
	for _, s := range temporalSpans(text) {
		if !taken.taken(s) {
			phrase = append(phrase, s)
		}
	}
	ent.TemporalPhrase = joinSpans(text, phrase)

	x.logger.Debug().
		Str("profession", string(ent.Profession)).
		Str("technician", ent.TechnicianName).
		Str("customer", ent.CustomerName).
		Str("booking_ref", ent.BookingRef).
		Str("temporal_phrase", ent.TemporalPhrase).
		Msg("entities extracted")
	return ent, nil
}

func (x *Extractor) profession(text string, taken claims, ent *Entities) (span, bool) {
	for _, m := range professionRe.FindAllStringSubmatchIndex(text, -1) {
		s := span{m[0], m[1]}
		if taken.taken(s) {
			continue
		}
		p, _ := models.ParseProfession(text[m[2]:m[3]])
		ent.Profession = p
		return s, true
	}

	best := -1
	for _, h := range x.hints {
		loc := h.re.FindStringIndex(text)
		if loc == nil || taken.taken(span{loc[0], loc[1]}) {
			continue
		}
		if best < 0 || loc[0] < best {
			best = loc[0]
			ent.Profession = h.profession
		}
	}
	return span{}, false
}

func (x *Extractor) persons(ctx context.Context, text string, taken claims, prof span, hasProf bool) ([]span, string, error) {
	var out []span
	if x.ner != nil {
		found, err := x.ner.PersonNames(ctx, text)
		if err != nil {
			return nil, "", apperr.OracleUnavailable("ner", err)
		}
		for _, f := range found {
			s, ok := locate(text, f)
			if !ok || taken.taken(s) {
				continue
			}
			if _, isProf := models.ParseProfession(strings.TrimSuffix(strings.TrimSpace(text[s.start:s.end]), "s")); isProf {
				continue
			}
			out = append(out, s)
		}
	}
	if len(out) > 0 || !hasProf {
		return out, SourceNER, nil
	}

	if s, ok := nameAfter(text, prof.end); ok && !taken.taken(s) {
		return []span{s}, SourceRule, nil
	}
	if s, ok := nameBefore(text, prof.start); ok && !taken.taken(s) {
		return []span{s}, SourceRule, nil
	}
	return nil, "", nil
}

// assignRoles maps person spans to technician and customer. A span preceded
// by a self-introduction is the customer; the first other span is the
// technician. This is a best-effort heuristic.
func assignRoles(text string, persons []span, ent *Entities) {
	for _, s := range persons {
		name := cleanName(text[s.start:s.end])
		if name == "" {
			continue
		}
		switch {
		case hasCustomerCue(text[:s.start]):
			if ent.CustomerName == "" {
				ent.CustomerName = name
			}
		case ent.TechnicianName == "":
			ent.TechnicianName = name
		}
	}
}

// locate maps an oracle span onto byte offsets of text. Oracles may count in
// characters rather than bytes, so the text is searched when offsets disagree.
func locate(text string, f oracle.Span) (span, bool) {
	word := strings.TrimSpace(f.Text)
	if word == "" {
		return span{}, false
	}
	if f.Start >= 0 && f.End <= len(text) && f.Start < f.End && text[f.Start:f.End] == word {
		return span{f.Start, f.End}, true
	}
	if i := strings.Index(text, word); i >= 0 {
		return span{i, i + len(word)}, true
	}
	return span{}, false
}

type token struct {
	word       string
	start, end int
}

func tokenize(text string) []token {
	var out []token
	start := -1
	for i, r := range text {
		isWord := unicode.IsLetter(r) || r == '\'' || r == '-'
		switch {
		case isWord && start < 0:
			start = i
		case !isWord && start >= 0:
			out = append(out, token{text[start:i], start, i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, token{text[start:], start, len(text)})
	}
	return out
}

func isNameToken(t token) bool {
	r := []rune(t.word)
	return len(r) > 1 && unicode.IsUpper(r[0]) && !nameStopWords[strings.ToLower(t.word)]
}

// nameAfter finds a capitalized multi-token span right after offset,
// optionally separated by a connector such as "named".
func nameAfter(text string, offset int) (span, bool) {
	toks := tokenize(text[offset:])
	i := 0
	if i < len(toks) && nameConnectors[strings.ToLower(toks[i].word)] {
		i++
	}
	var picked []token
	prevEnd := 0
	if i > 0 {
		prevEnd = toks[i-1].end
	}
	for ; i < len(toks) && isNameToken(toks[i]); i++ {
		if gap := text[offset+prevEnd : offset+toks[i].start]; strings.TrimSpace(gap) != "" {
			break
		}
		picked = append(picked, toks[i])
		prevEnd = toks[i].end
	}
	if len(picked) < 2 {
		return span{}, false
	}
	return span{offset + picked[0].start, offset + picked[len(picked)-1].end}, true
}

// nameBefore finds a capitalized multi-token span ending right before
// offset, optionally followed by "the".
func nameBefore(text string, offset int) (span, bool) {
	toks := tokenize(text[:offset])
	i := len(toks) - 1
	if i >= 0 && strings.EqualFold(toks[i].word, "the") {
		i--
	}
	var picked []token
	for ; i >= 0 && isNameToken(toks[i]); i-- {
		nextStart := offset
		if len(picked) > 0 {
			nextStart = picked[0].start
		} else if i+1 < len(toks) {
			nextStart = toks[i+1].start
		}
		if strings.TrimSpace(text[toks[i].end:nextStart]) != "" {
			break
		}
		picked = append([]token{toks[i]}, picked...)
	}
	if len(picked) < 2 {
		return span{}, false
	}
	return span{picked[0].start, picked[len(picked)-1].end}, true
}

func hasCustomerCue(before string) bool {
	b := strings.ToLower(strings.TrimRightFunc(before, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	}))
	for _, cue := range customerCues {
		if !strings.HasSuffix(b, cue) {
			continue
		}
		rest := b[:len(b)-len(cue)]
		if rest == "" || !unicode.IsLetter(rune(rest[len(rest)-1])) {
			return true
		}
	}
	return false
}

func cleanName(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	return strings.Join(strings.Fields(s), " ")
}
