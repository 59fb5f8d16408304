// Package variant holds the two interface flavours of the explorer. They
// share every behaviour and differ only in wording: prompts sent to the
// model, placeholder values and page copy.
package variant

import (
	"fmt"
	"strings"
)

type Variant struct {
	Key     string
	Title   string
	Tagline string

	// UnknownName is the name placeholder used until the model names the animal.
	UnknownName string

	AnalysisPrompt string
	// ChatPersona opens every chat prompt; the context block and the
	// question are appended after it.
	ChatPersona   string
	QuestionLabel string

	Unconfigured    string
	DetectFailed    string
	ChatUnavailable string

	QuickQuestions []string
}

var Kids = Variant{
	Key:         "kids",
	Title:       "Animal Explorer for Kids!",
	Tagline:     "Learn about amazing animals with AI magic!",
	UnknownName: "Mystery Animal",
	AnalysisPrompt: `Analyze this image and identify the animal. Provide information in a fun, kid-friendly way suitable for children in grades 1-6. Use simple words and make it exciting!

Animal Name: [Common name that kids would know]
Scientific Name: [Scientific name - but explain it's the "science name"]
Animal Type: [Is it a Mammal/Bird/Reptile/Fish/Amphibian/Insect - explain what that means simply]
Where They Live: [Their home/habitat in simple terms]
What They Eat: [Diet in simple, fun terms]
Are They Safe: [Conservation status in kid terms - like "Doing great!" or "Need our help"]
Cool Facts:
- [5-7 super fun facts, one per line, each starting with "- "]
What They Look Like: [Fun description of how they look]

Keep each label exactly as written above.`,
	ChatPersona:     "You are a super friendly animal expert talking to kids in grades 1-6 (ages 6-12). Answer in a fun, exciting way with simple words. Keep answers clear and not too long.",
	QuestionLabel:   "Kid's question",
	Unconfigured:    "Oops! We need to set up the AI first. Ask a grown-up to add the API key!",
	DetectFailed:    "Hmm, the AI couldn't figure this one out. Try another picture!",
	ChatUnavailable: "Oh no! The AI is taking a break. Please try again in a moment!",
	QuickQuestions: []string{
		"What's the biggest animal on Earth?",
		"How do dolphins talk to each other?",
		"What do pandas eat?",
		"How fast can a cheetah run?",
		"Why do elephants have trunks?",
		"Can penguins fly?",
	},
}

var General = Variant{
	Key:         "general",
	Title:       "Animal Explorer",
	Tagline:     "Identify animals from photos and learn more about them.",
	UnknownName: "Unknown",
	AnalysisPrompt: `Identify the animal in this image and answer using exactly this layout:

Animal Name: [common name]
Scientific Name: [binomial name]
Animal Type: [mammal, bird, reptile, fish, amphibian, insect, ...]
Habitat: [where it lives]
Diet: [what it eats]
Conservation Status: [IUCN status or best estimate]
Interesting Facts:
- [5-7 facts, one per line, each starting with "- "]
Physical Characteristics: [a short description of its appearance]

Keep each label exactly as written above.`,
	ChatPersona:     "You are a knowledgeable wildlife expert. Answer questions about animals accurately and concisely.",
	QuestionLabel:   "Question",
	Unconfigured:    "The AI service is not configured. Set an API key to enable identification and chat.",
	DetectFailed:    "The animal could not be identified. Please try a different photo.",
	ChatUnavailable: "The AI service is temporarily unavailable. Please try again in a moment.",
	QuickQuestions: []string{
		"What is the largest animal on Earth?",
		"How do dolphins communicate?",
		"What do pandas eat?",
		"How fast can a cheetah run?",
		"Why do elephants have trunks?",
		"Can penguins fly?",
	},
}

// Lookup resolves a configured variant key. An empty key selects Kids.
func Lookup(key string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", Kids.Key:
		return Kids, nil
	case General.Key:
		return General, nil
	default:
		return Variant{}, fmt.Errorf("unknown variant %q", key)
	}
}
