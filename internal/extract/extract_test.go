package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/animalexplorer/internal/domain"
)

func kidsDefaults() domain.AnimalRecord {
	return domain.DefaultRecord("Mystery Animal")
}

func TestExtractNoLabels(t *testing.T) {
	raw := "I think this is a lovely picture.\n- a stray bullet\nNothing else to say"

	rec := Extract(raw, kidsDefaults())

	assert.Equal(t, kidsDefaults(), rec)
	assert.NotNil(t, rec.Facts)
	assert.Empty(t, rec.Facts)
}

func TestExtractEmptyInput(t *testing.T) {
	assert.Equal(t, kidsDefaults(), Extract("", kidsDefaults()))
}

func TestExtractRedPanda(t *testing.T) {
	raw := "Animal Name: Red Panda\nScientific Name: Ailurus fulgens\nCool Facts:\n- Eats bamboo\n* Has a fluffy tail"

	rec := Extract(raw, kidsDefaults())

	assert.Equal(t, "Red Panda", rec.Name)
	assert.Equal(t, "Ailurus fulgens", rec.ScientificName)
	assert.Equal(t, []string{"Eats bamboo", "Has a fluffy tail"}, rec.Facts)
	assert.Equal(t, domain.Placeholder, rec.Habitat)
}

func TestExtractFullResponse(t *testing.T) {
	raw := `Here is what I found!

Animal Name: Emperor Penguin
Scientific Name: Aptenodytes forsteri
Animal Type: Bird - a bird that cannot fly
Where They Live: Antarctica, on the sea ice
What They Eat: Fish, squid and krill
Are They Safe?: Near Threatened - they need our help
Cool Facts:
• They can dive deeper than 500 meters
→ Dads keep the eggs warm on their feet
- They huddle together to stay warm
What They Look Like:
* Black back, white belly and a golden neck patch
* About as tall as a 6 year old`

	rec := Extract(raw, kidsDefaults())

	assert.Equal(t, domain.AnimalRecord{
		Name:                "Emperor Penguin",
		ScientificName:      "Aptenodytes forsteri",
		AnimalType:          "Bird - a bird that cannot fly",
		Habitat:             "Antarctica, on the sea ice",
		Diet:                "Fish, squid and krill",
		ConservationStatus:  "Near Threatened - they need our help",
		PhysicalDescription: "Black back, white belly and a golden neck patch",
		Facts: []string{
			"They can dive deeper than 500 meters",
			"Dads keep the eggs warm on their feet",
			"They huddle together to stay warm",
		},
	}, rec)
}

func TestExtractAliases(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		check func(t *testing.T, rec domain.AnimalRecord)
	}{
		{"short name", "Name: Lion", func(t *testing.T, rec domain.AnimalRecord) { assert.Equal(t, "Lion", rec.Name) }},
		{"science name", "Science Name: Panthera leo", func(t *testing.T, rec domain.AnimalRecord) { assert.Equal(t, "Panthera leo", rec.ScientificName) }},
		{"type", "Type: Mammal", func(t *testing.T, rec domain.AnimalRecord) { assert.Equal(t, "Mammal", rec.AnimalType) }},
		{"habitat", "Habitat: Savanna", func(t *testing.T, rec domain.AnimalRecord) { assert.Equal(t, "Savanna", rec.Habitat) }},
		{"home", "Home: Grasslands", func(t *testing.T, rec domain.AnimalRecord) { assert.Equal(t, "Grasslands", rec.Habitat) }},
		{"diet", "Diet: Carnivore", func(t *testing.T, rec domain.AnimalRecord) { assert.Equal(t, "Carnivore", rec.Diet) }},
		{"food", "Food: Zebras", func(t *testing.T, rec domain.AnimalRecord) { assert.Equal(t, "Zebras", rec.Diet) }},
		{"conservation substring", "Conservation Status: Vulnerable", func(t *testing.T, rec domain.AnimalRecord) {
			assert.Equal(t, "Vulnerable", rec.ConservationStatus)
		}},
		{"status", "Status: Vulnerable", func(t *testing.T, rec domain.AnimalRecord) { assert.Equal(t, "Vulnerable", rec.ConservationStatus) }},
		{"are they safe", "Are They Safe: Mostly", func(t *testing.T, rec domain.AnimalRecord) { assert.Equal(t, "Mostly", rec.ConservationStatus) }},
		{"physical inline", "Physical Characteristics: Golden mane", func(t *testing.T, rec domain.AnimalRecord) {
			assert.Equal(t, "Golden mane", rec.PhysicalDescription)
		}},
		{"looks inline", "Looks: Big and fluffy", func(t *testing.T, rec domain.AnimalRecord) { assert.Equal(t, "Big and fluffy", rec.PhysicalDescription) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Extract(tt.line, kidsDefaults()))
		})
	}
}

func TestExtractScientificNameDoesNotOverwriteName(t *testing.T) {
	rec := Extract("Animal Name: Koala\nScientific Name: Phascolarctos cinereus", kidsDefaults())

	assert.Equal(t, "Koala", rec.Name)
	assert.Equal(t, "Phascolarctos cinereus", rec.ScientificName)
}

func TestExtractAnimalTypeBeforeType(t *testing.T) {
	rec := Extract("Animal Type: Reptile", kidsDefaults())
	assert.Equal(t, "Reptile", rec.AnimalType)
}

func TestExtractFirstRuleWins(t *testing.T) {
	// Both the conservation and physical matchers see this line; the
	// conservation rule is earlier in the table.
	rec := Extract("Conservation and Physical notes: Endangered", kidsDefaults())

	assert.Equal(t, "Endangered", rec.ConservationStatus)
	assert.Equal(t, domain.Placeholder, rec.PhysicalDescription)
}

func TestExtractBulletOutsideSectionIgnored(t *testing.T) {
	raw := "Habitat: Rainforest canopy\n- climbs trees all day"

	rec := Extract(raw, kidsDefaults())

	assert.Equal(t, "Rainforest canopy", rec.Habitat)
	assert.Empty(t, rec.Facts)
	assert.Equal(t, domain.Placeholder, rec.PhysicalDescription)
}

func TestExtractFieldLabelClosesSection(t *testing.T) {
	raw := "Fun Facts:\n- first\nDiet: Leaves\n- not a fact"

	rec := Extract(raw, kidsDefaults())

	assert.Equal(t, []string{"first"}, rec.Facts)
	assert.Equal(t, "Leaves", rec.Diet)
}

func TestExtractFactsKeepDuplicatesAndSkipEmpty(t *testing.T) {
	raw := "Interesting Facts:\n- same\n-\n* same\n•   \n→ last"

	rec := Extract(raw, kidsDefaults())

	assert.Equal(t, []string{"same", "same", "last"}, rec.Facts)
}

func TestExtractPhysicalTakesFirstBulletOnly(t *testing.T) {
	raw := "What They Look Like:\n- Orange fur\n- Striped tail"

	rec := Extract(raw, kidsDefaults())

	assert.Equal(t, "Orange fur", rec.PhysicalDescription)
	assert.Empty(t, rec.Facts)
}

func TestExtractPhysicalInlineValueBlocksBullets(t *testing.T) {
	raw := "Looks: Small and round\n- Spiky back"

	rec := Extract(raw, kidsDefaults())

	assert.Equal(t, "Small and round", rec.PhysicalDescription)
}

func TestExtractMarkdownDecoration(t *testing.T) {
	raw := "**Animal Name:** Red Fox\n## Scientific Name: *Vulpes vulpes*\n**Cool Facts:**\n* Uses the magnetic field to hunt"

	rec := Extract(raw, kidsDefaults())

	assert.Equal(t, "Red Fox", rec.Name)
	assert.Equal(t, "Vulpes vulpes", rec.ScientificName)
	assert.Equal(t, []string{"Uses the magnetic field to hunt"}, rec.Facts)
}

func TestExtractLabelsInListItems(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"dash bullet", "- Animal Name: Red Panda"},
		{"star bullet with bold label", "* **Animal Name:** Red Panda"},
		{"numbered item", "1. Animal Name: Red Panda"},
		{"numbered item with paren", "2) Animal Name: Red Panda"},
		{"bold label colon outside", "**Animal Name**: Red Panda"},
		{"bold value", "- Animal Name: **Red Panda**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Extract(tt.line, kidsDefaults())
			assert.Equal(t, "Red Panda", rec.Name)
		})
	}
}

func TestExtractListItemScientificNameDoesNotOverwriteName(t *testing.T) {
	raw := "1. **Animal Name:** Red Panda\n2. **Scientific Name:** Ailurus fulgens"

	rec := Extract(raw, kidsDefaults())

	assert.Equal(t, "Red Panda", rec.Name)
	assert.Equal(t, "Ailurus fulgens", rec.ScientificName)
}

func TestExtractNumberedSectionHeaders(t *testing.T) {
	raw := "7. **What They Look Like:**\n- Rusty red fur\n8. **Cool Facts:**\n- Sleeps in trees\n- 10 hours a day of eating"

	rec := Extract(raw, kidsDefaults())

	assert.Equal(t, "Rusty red fur", rec.PhysicalDescription)
	assert.Equal(t, []string{"Sleeps in trees", "10 hours a day of eating"}, rec.Facts)
}

func TestTrimItemNumber(t *testing.T) {
	assert.Equal(t, "Name: Fox", trimItemNumber("12. Name: Fox"))
	assert.Equal(t, "Name: Fox", trimItemNumber("3) Name: Fox"))
	assert.Equal(t, "3.5 meters long", trimItemNumber("3.5 meters long"))
	assert.Equal(t, "Name: Fox", trimItemNumber("Name: Fox"))
}

func TestExtractEmptyValueKeepsDefault(t *testing.T) {
	rec := Extract("Animal Name:\nHabitat:   ", kidsDefaults())

	assert.Equal(t, "Mystery Animal", rec.Name)
	assert.Equal(t, domain.Placeholder, rec.Habitat)
}

func TestExtractCaseSensitive(t *testing.T) {
	rec := Extract("animal name: Wolf", kidsDefaults())
	assert.Equal(t, "Mystery Animal", rec.Name)
}

func TestExtractGeneralDefaults(t *testing.T) {
	rec := Extract("nothing useful", domain.DefaultRecord("Unknown"))
	assert.Equal(t, "Unknown", rec.Name)
}

func TestExtractIdempotent(t *testing.T) {
	raw := "Name: Otter\nFun Facts:\n- Holds hands while sleeping\nPhysical: Sleek brown fur"

	first := Extract(raw, kidsDefaults())
	second := Extract(raw, kidsDefaults())

	assert.Equal(t, first, second)
}

func TestExtractDoesNotAliasDefaults(t *testing.T) {
	defaults := kidsDefaults()

	rec := Extract("Cool Facts:\n- one", defaults)
	require.Len(t, rec.Facts, 1)

	assert.Empty(t, defaults.Facts)
}
