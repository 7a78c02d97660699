package models

import "strings"

// Profession is a member of the fixed set of bookable trades.
type Profession string

const (
	Plumber     Profession = "Plumber"
	Electrician Profession = "Electrician"
	Gardener    Profession = "Gardener"
	Welder      Profession = "Welder"
	Carpenter   Profession = "Carpenter"
	Mechanic    Profession = "Mechanic"
	Painter     Profession = "Painter"
	Chef        Profession = "Chef"
	Teacher     Profession = "Teacher"
	Developer   Profession = "Developer"
	Nurse       Profession = "Nurse"
)

// Professions lists every supported profession in display order.
var Professions = []Profession{
	Plumber, Electrician, Gardener, Welder, Carpenter, Mechanic,
	Painter, Chef, Teacher, Developer, Nurse,
}

// ParseProfession matches a profession name case-insensitively.
func ParseProfession(s string) (Profession, bool) {
	s = strings.TrimSpace(s)
	for _, p := range Professions {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

// Keyword returns the lowercase vocabulary form of the profession.
func (p Profession) Keyword() string {
	return strings.ToLower(string(p))
}
