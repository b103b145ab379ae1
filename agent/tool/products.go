package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	llmx "github.com/meetkeeps15/brandbox-agent/agent/llm"
	"github.com/meetkeeps15/brandbox-agent/pkg/nocodb"
)

const (
	categoryMatchPoints = 30.0
	keywordPoolPoints   = 25.0
	mustHaveBonus       = 35.0
	mustHavePenalty     = 10.0
	niceToHavePoints    = 10.0
	excludedTermPenalty = 20.0
	attributePointsCap  = 15.0
	emulationPointsCap  = 20.0
	cacheAlignedCap     = 40.0
	fallbackDesireTrust = 0.3
	defaultProductLimit = 5
	desireParseTemp     = 0.1
)

// ProductDesire is the structured reading of what the user is shopping
// for, parsed from free text.
type ProductDesire struct {
	Category   string            `json:"category"`
	Keywords   []string          `json:"keywords"`
	MustHave   []string          `json:"must_have"`
	NiceToHave []string          `json:"nice_to_have"`
	Excluded   []string          `json:"excluded"`
	Attributes map[string]string `json:"attributes"`
	Emulating  []string          `json:"emulating"`
	Confidence float64           `json:"confidence"`
}

// ProductScore is the additive match result for one catalog row.
type ProductScore struct {
	Raw        float64
	Normalized float64
	Confidence string
}

func (c *Catalog) executeRetrieveProducts(ctx context.Context, sess contractx.SessionContext, args map[string]any) contractx.ToolResult {
	query := strings.TrimSpace(stringArg(args, "desires"))
	if query == "" {
		return errorResult(ToolRetrieveProducts, "desires is required")
	}
	if c.deps.Products == nil {
		return errorResult(ToolRetrieveProducts, "product catalog is not configured")
	}

	limit := defaultProductLimit
	if n, ok := intArg(args, "max_results"); ok && n > 0 {
		limit = n
	}

	desire := c.parseDesire(ctx, query)
	if category := strings.TrimSpace(stringArg(args, "category")); category != "" {
		desire.Category = category
	}
	cachedTerms := c.cachedStyleTerms(ctx, sess)

	records, err := c.deps.Products.ListRecords(ctx)
	if err != nil {
		return errorResult(ToolRetrieveProducts, fmt.Sprintf("list products: %v", err))
	}

	type scored struct {
		record nocodb.Record
		score  ProductScore
	}
	var matches []scored
	for _, record := range records {
		score := ScoreProduct(recordText(record), desire, cachedTerms)
		if score.Normalized <= 0 {
			continue
		}
		matches = append(matches, scored{record: record, score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score.Normalized > matches[j].score.Normalized
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	products := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		products = append(products, map[string]any{
			"sku":              firstStringField(m.record, skuFieldCandidates),
			"name":             firstStringField(m.record, productNameFields),
			"score":            m.score.Raw,
			"match_score":      m.score.Normalized,
			"match_confidence": m.score.Confidence,
		})
	}

	return okResult(ToolRetrieveProducts, map[string]any{
		"desires":           query,
		"parsed_desire":     desire,
		"desire_confidence": desire.Confidence,
		"products":          products,
		"total_considered":  len(records),
	})
}

// parseDesire asks the model for a structured reading of the query. Any
// parse failure drops to a plain keyword split with low trust.
func (c *Catalog) parseDesire(ctx context.Context, query string) ProductDesire {
	if c.deps.LLM != nil && c.deps.Prompts.Desires != "" {
		out, err := c.deps.LLM.Complete(ctx, llmx.Request{
			System:      c.deps.Prompts.Desires,
			User:        query,
			Temperature: desireParseTemp,
		})
		if err == nil {
			var desire ProductDesire
			if err := json.Unmarshal([]byte(llmx.ExtractJSON(out)), &desire); err == nil {
				if desire.Confidence == 0 {
					desire.Confidence = 0.7
				}
				return desire
			}
			log.Warn().Str("raw", out).Msg("desire parse returned non-json, using keyword fallback")
		} else {
			log.Warn().Err(err).Msg("desire parse failed, using keyword fallback")
		}
	}
	return fallbackDesire(query)
}

func fallbackDesire(query string) ProductDesire {
	return ProductDesire{
		Keywords:   strings.Fields(strings.ToLower(query)),
		Confidence: fallbackDesireTrust,
	}
}

// ScoreProduct applies the additive rubric to one product's searchable
// text. The normalized score divides by the maximum attainable for the
// components this desire actually carries.
func ScoreProduct(text string, desire ProductDesire, cachedTerms []string) ProductScore {
	text = strings.ToLower(text)
	var score, maxScore float64

	if category := strings.ToLower(strings.TrimSpace(desire.Category)); category != "" {
		maxScore += categoryMatchPoints
		if strings.Contains(text, category) {
			score += categoryMatchPoints
		}
	}

	if len(desire.Keywords) > 0 {
		maxScore += keywordPoolPoints
		score += termFraction(text, desire.Keywords) * keywordPoolPoints
	}

	if len(desire.MustHave) > 0 {
		maxScore += mustHaveBonus
		if termFraction(text, desire.MustHave) == 1.0 {
			score += mustHaveBonus
		} else {
			score -= mustHavePenalty
		}
	}

	if len(desire.NiceToHave) > 0 {
		maxScore += niceToHavePoints
		score += termFraction(text, desire.NiceToHave) * niceToHavePoints
	}

	for _, term := range desire.Excluded {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" && strings.Contains(text, term) {
			score -= excludedTermPenalty
		}
	}

	if len(desire.Attributes) > 0 {
		maxScore += attributePointsCap
		score += attributePoints(text, desire.Attributes)
	}

	if len(desire.Emulating) > 0 {
		maxScore += emulationPointsCap
		score += emulationPoints(text, desire.Emulating)
	}

	if len(cachedTerms) > 0 {
		maxScore += cacheAlignedCap
		score += cacheAlignedPoints(text, cachedTerms)
	}

	result := ProductScore{Raw: score}
	if maxScore > 0 {
		result.Normalized = max(0, score) / maxScore
		if result.Normalized > 1.0 {
			result.Normalized = 1.0
		}
	}
	switch {
	case result.Normalized >= 0.8:
		result.Confidence = "high"
	case result.Normalized >= 0.5:
		result.Confidence = "medium"
	default:
		result.Confidence = "low"
	}
	return result
}

// termFraction is the share of terms found verbatim in the text.
func termFraction(text string, terms []string) float64 {
	var present, total int
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		total++
		if strings.Contains(text, term) {
			present++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(present) / float64(total)
}

// attributePoints weighs aesthetic and lifestyle attributes over the rest.
// A value of "any" matches nothing and costs nothing.
func attributePoints(text string, attributes map[string]string) float64 {
	var points float64
	for key, value := range attributes {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" || value == "any" {
			continue
		}
		if !strings.Contains(text, value) {
			continue
		}
		switch strings.ToLower(key) {
		case "aesthetic", "lifestyle":
			points += 3
		default:
			points += 2
		}
	}
	if points > attributePointsCap {
		points = attributePointsCap
	}
	return points
}

// emulationPoints credits each emulated-brand factor by the fraction of
// its words appearing in the text.
func emulationPoints(text string, factors []string) float64 {
	var points float64
	for _, factor := range factors {
		words := strings.Fields(strings.ToLower(factor))
		if len(words) == 0 {
			continue
		}
		var hit int
		for _, word := range words {
			if strings.Contains(text, word) {
				hit++
			}
		}
		points += float64(hit) / float64(len(words)) * 7
	}
	if points > emulationPointsCap {
		points = emulationPointsCap
	}
	return points
}

// cacheAlignedPoints rewards alignment with the session's cached style
// vocabulary. Exact phrase hits score full credit, scattered word hits
// score partially.
func cacheAlignedPoints(text string, terms []string) float64 {
	var points float64
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(text, term) {
			points += 20
			continue
		}
		words := strings.Fields(term)
		if len(words) < 2 {
			continue
		}
		var hit int
		for _, word := range words {
			if strings.Contains(text, word) {
				hit++
			}
		}
		points += float64(hit) / float64(len(words)) * 10
	}
	if points > cacheAlignedCap {
		points = cacheAlignedCap
	}
	return points
}

func (c *Catalog) cachedStyleTerms(ctx context.Context, sess contractx.SessionContext) []string {
	rec, err := c.deps.Store.LatestAnalysis(ctx, sess.Key)
	if err != nil {
		return nil
	}
	g := rec.Guidance()
	if g == nil {
		return nil
	}
	var terms []string
	if raw, ok := g["style_keywords"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok && s != "" {
				terms = append(terms, s)
			}
		}
	}
	if style, ok := g["visual_style"].(string); ok && style != "" {
		terms = append(terms, style)
	}
	return terms
}

func recordText(record nocodb.Record) string {
	var b strings.Builder
	for _, v := range record {
		if s, ok := v.(string); ok && s != "" {
			b.WriteString(s)
			b.WriteByte(' ')
		}
	}
	return b.String()
}
