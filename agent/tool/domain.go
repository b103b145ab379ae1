package tool

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	"github.com/meetkeeps15/brandbox-agent/pkg/domaincheck"
)

// competitorKeywords flag industries this brand program will not serve.
var competitorKeywords = []string{
	"vape", "smoke", "cigarette", "tobacco", "nicotine",
	"alcohol", "beer", "wine", "liquor",
	"pharmaceutical", "prescription", "drugs",
}

func (c *Catalog) executeValidateBrand(ctx context.Context, args map[string]any) contractx.ToolResult {
	brand := strings.TrimSpace(stringArg(args, "brand_name"))
	if brand == "" {
		return errorResult(ToolValidateBrand, "brand_name is required")
	}

	domains := map[string]domaincheck.Status{}
	if c.deps.Domains != nil {
		domains = domaincheck.CheckTLDs(ctx, c.deps.Domains, brand, nil)
	}
	available := 0
	for _, status := range domains {
		if status == domaincheck.StatusAvailable || status == domaincheck.StatusLikelyAvailable {
			available++
		}
	}

	level, signals := c.competitionLevel(ctx, brand)
	score, recommendation := ViabilityScore(available, level)

	return okResult(ToolValidateBrand, map[string]any{
		"brand_name":          brand,
		"domains":             domains,
		"available_domains":   available,
		"competition_level":   level,
		"competition_signals": signals,
		"viability_score":     score,
		"recommendation":      recommendation,
	})
}

// competitionLevel classifies market competition from search volume and
// competitor-industry topics. Every sub-failure degrades to a neutral
// signal; validation never fails because a lookup did.
func (c *Catalog) competitionLevel(ctx context.Context, brand string) (string, map[string]any) {
	signals := map[string]any{}

	if c.deps.Search == nil || !c.deps.Search.Configured() {
		signals["search"] = "not configured"
		return "Low", signals
	}

	result, err := c.deps.Search.SearchExact(ctx, brand, 10)
	if err != nil {
		log.Warn().Err(err).Str("brand", brand).Msg("competition search failed, assuming low")
		signals["search"] = "failed"
		return "Low", signals
	}
	signals["total_results"] = result.TotalResults
	signals["result_count"] = len(result.Items)

	topicMatches := 0
	if c.deps.Topics != nil && c.deps.Topics.Configured() && len(result.Items) > 0 {
		var corpus strings.Builder
		for _, item := range result.Items {
			corpus.WriteString(item.Title)
			corpus.WriteString(" ")
			corpus.WriteString(item.Snippet)
			corpus.WriteString("\n")
		}
		topics, err := c.deps.Topics.Topics(ctx, corpus.String())
		if err != nil {
			log.Warn().Err(err).Msg("topic extraction failed, ignoring")
		} else {
			topicMatches = countCompetitorTopics(topics)
			signals["competitor_topics"] = topicMatches
		}
	}

	level := CompetitionLevel(result.TotalResults, len(result.Items), topicMatches)
	return level, signals
}

func countCompetitorTopics(topics []string) int {
	matches := 0
	for _, topic := range topics {
		lower := strings.ToLower(topic)
		for _, keyword := range competitorKeywords {
			if strings.Contains(lower, keyword) {
				matches++
				break
			}
		}
	}
	return matches
}

// CompetitionLevel folds search volume and competitor-topic counts into a
// Low/Medium/High classification.
func CompetitionLevel(totalResults int64, resultCount, competitorTopics int) string {
	score := 0
	switch {
	case totalResults > 10_000_000:
		score += 4
	case totalResults > 1_000_000:
		score += 2
	default:
		switch {
		case resultCount <= 3:
			// no signal
		case resultCount <= 6:
			score++
		default:
			score += 2
		}
	}

	switch {
	case competitorTopics >= 2:
		score += 2
	case competitorTopics == 1:
		score++
	}

	switch {
	case score <= 1:
		return "Low"
	case score <= 2:
		return "Medium"
	default:
		return "High"
	}
}

// ViabilityScore combines domain availability (0-5) and competition (0-5)
// into a 0-10 score and a go/no-go recommendation.
func ViabilityScore(availableDomains int, competitionLevel string) (float64, string) {
	domainScore := math.Min(float64(availableDomains)*1.67, 5)

	var competitionScore float64
	switch competitionLevel {
	case "Low":
		competitionScore = 5
	case "Medium":
		competitionScore = 3
	default:
		competitionScore = 1
	}

	total := math.Min(domainScore+competitionScore, 10)
	total = math.Round(total*10) / 10

	switch {
	case total >= 7:
		return total, "PROCEED"
	case total >= 4:
		return total, "CAUTION"
	default:
		return total, "RECONSIDER"
	}
}
