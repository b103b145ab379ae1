package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/assistant.txt
	assistantRaw string

	//go:embed template/logo_styles.txt
	logoStylesRaw string

	//go:embed template/archetype_rubric.txt
	archetypeRubricRaw string

	//go:embed template/naming.txt
	namingRaw string

	//go:embed template/desires.txt
	desiresRaw string

	//go:embed template/design_summary.txt
	designSummaryRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Assistant       string
	LogoStyles      string
	ArchetypeRubric string
	Naming          string
	Desires         string
	DesignSummary   string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Assistant:       strings.TrimSpace(assistantRaw),
		LogoStyles:      strings.TrimSpace(logoStylesRaw),
		ArchetypeRubric: strings.TrimSpace(archetypeRubricRaw),
		Naming:          strings.TrimSpace(namingRaw),
		Desires:         strings.TrimSpace(desiresRaw),
		DesignSummary:   strings.TrimSpace(designSummaryRaw),
	}
}
