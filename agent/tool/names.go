package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	llmx "github.com/meetkeeps15/brandbox-agent/agent/llm"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	"github.com/meetkeeps15/brandbox-agent/pkg/domaincheck"
)

// NameCandidate is one scored brand name suggestion.
type NameCandidate struct {
	Name           string  `json:"name"`
	Viability      float64 `json:"viability"`
	Grade          string  `json:"grade"`
	Recommendation string  `json:"recommendation"`
}

func (c *Catalog) executeGenerateBrandNames(ctx context.Context, sess contractx.SessionContext, args map[string]any) contractx.ToolResult {
	if c.deps.LLM == nil {
		return errorResult(ToolGenerateBrandNames, "language model is not configured")
	}

	count, _ := intArg(args, "count")
	if count <= 0 {
		count = 10
	}
	guidance := strings.TrimSpace(stringArg(args, "guidance"))

	style := c.namingStyle(ctx, sess)

	var user strings.Builder
	fmt.Fprintf(&user, "Generate %d brand name candidates.\n\n", count)
	if style != "" {
		user.WriteString("Creator style:\n")
		user.WriteString(style)
		user.WriteString("\n")
	}
	if guidance != "" {
		user.WriteString("Additional guidance: ")
		user.WriteString(guidance)
		user.WriteString("\n")
	}

	content, err := c.deps.LLM.Complete(ctx, llmx.Request{
		System:      c.deps.Prompts.Naming,
		User:        user.String(),
		Temperature: 0.8,
	})
	if err != nil {
		return errorResult(ToolGenerateBrandNames, fmt.Sprintf("name generation failed: %v", err))
	}

	var parsed struct {
		Names []string `json:"names"`
	}
	if err := json.Unmarshal([]byte(llmx.ExtractJSON(content)), &parsed); err != nil || len(parsed.Names) == 0 {
		return errorResult(ToolGenerateBrandNames, "name generation returned no usable candidates")
	}

	// The generated order is trusted as-is; the WHOIS-based viability
	// ranking below (ValidateNameBatch, RankByViability) is intentionally
	// not applied on this path.
	top := make([]NameCandidate, 0, 5)
	for _, name := range parsed.Names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		top = append(top, NameCandidate{
			Name:           name,
			Viability:      0.0,
			Grade:          "N/A",
			Recommendation: "GPT Generated",
		})
		if len(top) == 5 {
			break
		}
	}
	if len(top) == 0 {
		return errorResult(ToolGenerateBrandNames, "name generation returned no usable candidates")
	}

	return okResult(ToolGenerateBrandNames, map[string]any{
		"candidates": top,
		"selected":   top[0].Name,
	})
}

// namingStyle flattens the cached analysis into the style block fed to the
// naming prompt.
func (c *Catalog) namingStyle(ctx context.Context, sess contractx.SessionContext) string {
	rec, err := c.deps.Store.LatestAnalysis(ctx, sess.Key)
	if err != nil {
		return ""
	}

	var b strings.Builder
	if visual, ok := rec.Doc["visual_style"].(string); ok && visual != "" {
		fmt.Fprintf(&b, "- aesthetic theme: %s\n", visual)
	}
	if g := rec.Guidance(); g != nil {
		if tone, ok := g["tone_words"].([]any); ok && len(tone) > 0 {
			words := make([]string, 0, len(tone))
			for _, t := range tone {
				if s, ok := t.(string); ok {
					words = append(words, s)
				}
			}
			fmt.Fprintf(&b, "- brand voice: %s\n", strings.Join(words, ", "))
		}
	}
	if persona, ok := rec.Doc["influencer_persona"].(string); ok && persona != "" {
		fmt.Fprintf(&b, "- interests: %s\n", persona)
	}
	if b.Len() > 0 {
		fmt.Fprintf(&b, "- source: analysis of @%s\n", rec.Username)
	}
	return b.String()
}

// nameCommonWords hurt distinctiveness when embedded in a brand name.
var nameCommonWords = []string{"health", "wellness", "fitness", "nutrition", "vita", "pro", "max", "plus"}

// NameCompetitionScore rates how contested a name likely is, 1 to 10.
func NameCompetitionScore(name string) int {
	lower := strings.ToLower(strings.TrimSpace(name))
	score := 0
	for _, word := range nameCommonWords {
		if strings.Contains(lower, word) {
			score++
		}
	}
	switch n := len(lower); {
	case n <= 6:
		score += 2
	case n <= 10:
		score++
	}
	if score > 10 {
		score = 10
	}
	return score
}

// NameViability scores one candidate on a 0-10 scale.
func NameViability(name string, domainAvailable bool) float64 {
	score := 5.0
	if domainAvailable {
		score += 2.0
	}
	score -= float64(NameCompetitionScore(name)-5) * 0.1
	if n := len(strings.TrimSpace(name)); n >= 4 && n <= 12 {
		score += 1.0
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score
}

// ViabilityGrade maps a 0-10 viability score to a letter grade.
func ViabilityGrade(score float64) string {
	switch {
	case score >= 9:
		return "A+"
	case score >= 8:
		return "A"
	case score >= 7:
		return "B+"
	case score >= 6:
		return "B"
	case score >= 5:
		return "C+"
	case score >= 4:
		return "C"
	case score >= 3:
		return "D"
	default:
		return "F"
	}
}

// ValidateNameBatch scores candidates against live domain availability.
// Retained alongside the generation path above, which does not yet call it.
func ValidateNameBatch(ctx context.Context, checker domaincheck.Checker, names []string) []NameCandidate {
	out := make([]NameCandidate, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		available := false
		if checker != nil {
			status := checker.Check(ctx, domaincheck.Slug(name)+".com")
			available = status == domaincheck.StatusAvailable || status == domaincheck.StatusLikelyAvailable
		}
		score := NameViability(name, available)
		out = append(out, NameCandidate{
			Name:           name,
			Viability:      score,
			Grade:          ViabilityGrade(score),
			Recommendation: recommendationFor(score),
		})
	}
	return out
}

// RankByViability sorts candidates best-first, stable for equal scores.
func RankByViability(candidates []NameCandidate) []NameCandidate {
	out := append([]NameCandidate(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Viability > out[j].Viability
	})
	return out
}

func recommendationFor(score float64) string {
	switch {
	case score >= 7:
		return "PROCEED"
	case score >= 4:
		return "CAUTION"
	default:
		return "RECONSIDER"
	}
}
