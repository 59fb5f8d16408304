package extract

import (
	"strings"

	"github.com/vbonduro/animalexplorer/internal/domain"
)

// section tracks which multi-line block bullet lines belong to.
type section int

const (
	sectionNone section = iota
	sectionFacts
	sectionPhysical
)

type field int

const (
	fieldNone field = iota
	fieldName
	fieldScientificName
	fieldAnimalType
	fieldHabitat
	fieldDiet
	fieldConservation
	fieldPhysical
)

// matcher reports whether a normalised line carries a label.
type matcher func(line string) bool

func prefix(labels ...string) matcher {
	return func(line string) bool {
		for _, l := range labels {
			if strings.HasPrefix(line, l) {
				return true
			}
		}
		return false
	}
}

func containing(word string) matcher {
	return func(line string) bool {
		return strings.Contains(line, word)
	}
}

func anyOf(ms ...matcher) matcher {
	return func(line string) bool {
		for _, m := range ms {
			if m(line) {
				return true
			}
		}
		return false
	}
}

// rule binds a label matcher to the field it fills and the section it opens.
type rule struct {
	match matcher
	field field
	opens section
}

// rules is evaluated top to bottom; the first match wins for a line.
var rules = []rule{
	{match: prefix("Animal Name:", "Name:"), field: fieldName},
	{match: prefix("Scientific Name:", "Science Name:"), field: fieldScientificName},
	{match: prefix("Animal Type:", "Type:"), field: fieldAnimalType},
	{match: prefix("Where They Live:", "Habitat:", "Home:"), field: fieldHabitat},
	{match: prefix("What They Eat:", "Diet:", "Food:"), field: fieldDiet},
	{match: anyOf(prefix("Are They Safe:", "Are They Safe?:"), containing("Conservation"), prefix("Status:")), field: fieldConservation},
	{match: anyOf(prefix("What They Look Like:"), containing("Physical"), prefix("Looks:")), field: fieldPhysical, opens: sectionPhysical},
	{match: prefix("Cool Facts:", "Fun Facts:", "Interesting Facts:"), opens: sectionFacts},
}

const bulletMarkers = "*-•→"

// Extract turns a model's free-text answer into an AnimalRecord. Fields the
// text never mentions keep the value they have in defaults. It never fails.
func Extract(raw string, defaults domain.AnimalRecord) domain.AnimalRecord {
	rec := defaults.Clone()
	cursor := sectionNone

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		label := normalise(line)
		if r, ok := matchRule(label); ok {
			cursor = r.opens
			if value, ok := valueAfterColon(label); ok {
				assign(&rec, r.field, value)
			}
			continue
		}

		if !isBullet(line) {
			continue
		}
		text := stripBullet(line)
		switch cursor {
		case sectionFacts:
			if text != "" {
				rec.Facts = append(rec.Facts, text)
			}
		case sectionPhysical:
			if rec.PhysicalDescription == defaults.PhysicalDescription && text != "" {
				rec.PhysicalDescription = text
			}
		}
	}

	return rec
}

func matchRule(line string) (rule, bool) {
	for _, r := range rules {
		if r.match(line) {
			return r, true
		}
	}
	return rule{}, false
}

func assign(rec *domain.AnimalRecord, f field, value string) {
	switch f {
	case fieldName:
		rec.Name = value
	case fieldScientificName:
		rec.ScientificName = value
	case fieldAnimalType:
		rec.AnimalType = value
	case fieldHabitat:
		rec.Habitat = value
	case fieldDiet:
		rec.Diet = value
	case fieldConservation:
		rec.ConservationStatus = value
	case fieldPhysical:
		rec.PhysicalDescription = value
	}
}

var emphasis = strings.NewReplacer("**", "", "__", "")

// normalise reduces a line to the form labels are matched against: bold
// markers removed anywhere, then leading headings, list markers and item
// numbers dropped ("- **Animal Name:**", "1. Animal Name:", "## Name:").
func normalise(line string) string {
	line = emphasis.Replace(line)
	for {
		trimmed := strings.TrimSpace(strings.TrimLeft(line, "#"+bulletMarkers))
		trimmed = trimItemNumber(trimmed)
		if trimmed == line {
			return line
		}
		line = trimmed
	}
}

// trimItemNumber drops a leading "12." or "12)" list number.
func trimItemNumber(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i == len(line) || (line[i] != '.' && line[i] != ')') {
		return line
	}
	rest := line[i+1:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return line
	}
	return strings.TrimSpace(rest)
}

// valueAfterColon returns the text after the first colon with whitespace and
// markdown emphasis trimmed. ok is false when there is no such text.
func valueAfterColon(line string) (string, bool) {
	_, after, found := strings.Cut(line, ":")
	if !found {
		return "", false
	}
	value := strings.Trim(strings.TrimSpace(after), "*_ \t")
	return value, value != ""
}

func isBullet(line string) bool {
	for _, m := range bulletMarkers {
		if strings.HasPrefix(line, string(m)) {
			return true
		}
	}
	return false
}

func stripBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, bulletMarkers+" \t"))
}
