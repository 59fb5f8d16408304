package domain

import "time"

// Placeholder is the value every text field of an AnimalRecord holds until
// the extractor fills it in.
const Placeholder = "N/A"

type AnimalRecord struct {
	Name                string   `json:"name"`
	ScientificName      string   `json:"scientific_name"`
	AnimalType          string   `json:"animal_type"`
	Habitat             string   `json:"habitat"`
	Diet                string   `json:"diet"`
	ConservationStatus  string   `json:"conservation_status"`
	PhysicalDescription string   `json:"physical_description"`
	Facts               []string `json:"facts"`
}

// DefaultRecord returns a record with every field at its placeholder.
// unknownName differs per variant ("Mystery Animal", "Unknown").
func DefaultRecord(unknownName string) AnimalRecord {
	return AnimalRecord{
		Name:                unknownName,
		ScientificName:      Placeholder,
		AnimalType:          Placeholder,
		Habitat:             Placeholder,
		Diet:                Placeholder,
		ConservationStatus:  Placeholder,
		PhysicalDescription: Placeholder,
		Facts:               []string{},
	}
}

// Clone returns a deep copy so the facts slice is never shared.
func (r AnimalRecord) Clone() AnimalRecord {
	facts := make([]string, len(r.Facts))
	copy(facts, r.Facts)
	r.Facts = facts
	return r
}

// TimestampLayout formats detection timestamps to minute precision.
const TimestampLayout = "2006-01-02 15:04"

type DetectionEntry struct {
	Timestamp  string `json:"timestamp"`
	AnimalName string `json:"animal_name"`
	AnimalType string `json:"animal_type"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known chat roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Detection is an archived identification with everything needed to rebuild
// the session that produced it.
type Detection struct {
	ID        int64
	SessionID string
	Entry     DetectionEntry
	Record    AnimalRecord
	Model     string
	PhotoKey  string
	CreatedAt time.Time
}

// SessionRecord is the archived header of a session.
type SessionRecord struct {
	ID        string
	Context   *AnimalRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}
