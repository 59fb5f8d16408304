package gateway

import (
	"fmt"
	"strings"

	"github.com/vbonduro/animalexplorer/internal/domain"
	"github.com/vbonduro/animalexplorer/internal/variant"
)

// BuildChatPrompt prefixes message with the variant's instruction and, when
// animal is set, the current animal's identity so the reply stays on topic.
func BuildChatPrompt(v variant.Variant, message string, animal *domain.AnimalRecord) string {
	var b strings.Builder
	b.WriteString(v.ChatPersona)

	if animal != nil {
		b.WriteString("\n\nCurrent animal we're learning about:\n")
		fmt.Fprintf(&b, "- Animal: %s\n", animal.Name)
		fmt.Fprintf(&b, "- Scientific Name: %s\n", animal.ScientificName)
		fmt.Fprintf(&b, "- Type: %s\n", animal.AnimalType)
		fmt.Fprintf(&b, "- Where it lives: %s\n", animal.Habitat)
		b.WriteString("\nAnswer with this animal in mind when the question is about it.")
	}

	fmt.Fprintf(&b, "\n\n%s: %s", v.QuestionLabel, message)
	return b.String()
}
