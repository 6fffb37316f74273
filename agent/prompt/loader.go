package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/persona.txt
	personaRaw string

	//go:embed template/summarizer.txt
	summarizerRaw string

	//go:embed template/curator.txt
	curatorRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Persona    string
	Summarizer string
	Curator    string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Persona:    strings.TrimSpace(personaRaw),
		Summarizer: strings.TrimSpace(summarizerRaw),
		Curator:    strings.TrimSpace(curatorRaw),
	}
}
