package tool

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	"github.com/meetkeeps15/brandbox-agent/pkg/nocodb"
)

const defaultConversionRate = 0.02

// Catalog exports arrive with inconsistent casing and header text, so
// each logical column gets a candidate list probed in order.
var (
	skuFieldCandidates = []string{
		"SKU", "sku", "Sku", "product_sku", "Product SKU", "productSKU",
		"code", "Code", "CODE",
	}
	productNameFields = []string{
		"Name", "name", "Product Name", "product_name", "Title", "title",
		"Label", "label",
	}
	costFieldCandidates = []string{
		"Non Member Pricing\n(T1)", "Non Member Pricing (T1)", "T1",
		"non_member_price", "Base Cost", "base cost", "Cost", "cost",
		"Cost Price", "cost price", "Unit Cost", "unit cost",
		"Wholesale Cost", "wholesale cost", "COGS", "cogs",
		"standard_price", "Standard Price",
	}
)

var (
	numberPattern    = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	spreadsheetError = map[string]bool{
		"#REF!": true, "#N/A": true, "#VALUE!": true, "#ERROR!": true,
	}
)

// ProfitEstimate is the earnings projection for one product at one
// audience size.
type ProfitEstimate struct {
	CostPerUnit    float64 `json:"cost_per_unit"`
	RetailPrice    float64 `json:"retail_price"`
	ProfitPerUnit  float64 `json:"profit_per_unit"`
	Buyers         int     `json:"estimated_buyers"`
	Earnings       float64 `json:"estimated_earnings"`
	MarginPercent  float64 `json:"margin_percent"`
	ConversionRate float64 `json:"conversion_rate"`
	Followers      int     `json:"followers"`
}

func (c *Catalog) executeCalculateProfit(ctx context.Context, sess contractx.SessionContext, args map[string]any) contractx.ToolResult {
	sku := strings.TrimSpace(stringArg(args, "sku"))
	if sku == "" {
		return errorResult(ToolCalculateProfit, "sku is required")
	}

	record, err := c.productBySKU(ctx, sku)
	if err != nil {
		return errorResult(ToolCalculateProfit, err.Error())
	}

	cost, ok := recordPrice(record, costFieldCandidates)
	if !ok {
		return errorResult(ToolCalculateProfit, fmt.Sprintf("no usable cost column for sku=%s", sku))
	}

	if boolArg(args, "check_price_only") {
		out := map[string]any{
			"sku":           sku,
			"name":          firstStringField(record, productNameFields),
			"cost_per_unit": cost,
		}
		if retail, ok := floatArg(args, "retail_price"); ok && retail > 0 {
			out["retail_price"] = retail
			out["profit_per_unit"] = math.Max(0, round2(retail-cost))
		}
		return okResult(ToolCalculateProfit, out)
	}

	retail, ok := floatArg(args, "retail_price")
	if !ok || retail <= 0 {
		return errorResult(ToolCalculateProfit, "retail_price is required and must be positive")
	}

	followers, err := c.resolveFollowers(ctx, sess, args)
	if err != nil {
		return errorResult(ToolCalculateProfit, err.Error())
	}

	rate := defaultConversionRate
	if r, ok := floatArg(args, "conversion_rate"); ok && r > 0 && r <= 1 {
		rate = r
	}

	estimate := EstimateProfit(cost, retail, followers, rate)
	return okResult(ToolCalculateProfit, map[string]any{
		"sku":      sku,
		"name":     firstStringField(record, productNameFields),
		"estimate": estimate,
	})
}

// EstimateProfit projects per-unit profit and campaign earnings. Negative
// margins clamp to zero profit rather than reporting a loss per unit.
func EstimateProfit(cost, retail float64, followers int, conversionRate float64) ProfitEstimate {
	profitPerUnit := math.Max(0, retail-cost)
	buyers := int(float64(followers) * conversionRate)
	earnings := round2(profitPerUnit * float64(buyers))

	var margin float64
	if retail > 0 {
		margin = math.Round(profitPerUnit/retail*100*10) / 10
	}

	return ProfitEstimate{
		CostPerUnit:    round2(cost),
		RetailPrice:    round2(retail),
		ProfitPerUnit:  round2(profitPerUnit),
		Buyers:         buyers,
		Earnings:       earnings,
		MarginPercent:  margin,
		ConversionRate: conversionRate,
		Followers:      followers,
	}
}

func (c *Catalog) resolveFollowers(ctx context.Context, sess contractx.SessionContext, args map[string]any) (int, error) {
	if n, ok := intArg(args, "followers"); ok && n > 0 {
		return n, nil
	}
	if rec, err := c.deps.Store.LatestAnalysis(ctx, sess.Key); err == nil {
		if n, ok := rec.FollowerCount(); ok && n > 0 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("follower count unknown; pass followers explicitly or run %s first", ToolAnalyzeSocialProfile)
}

func recordPrice(record nocodb.Record, candidates []string) (float64, bool) {
	for _, key := range candidates {
		raw, ok := record[key]
		if !ok {
			continue
		}
		if price, ok := ParsePrice(raw); ok {
			return price, true
		}
	}
	return 0, false
}

// ParsePrice reads a price out of a spreadsheet-shaped cell. Formula
// errors and empty cells are skipped; currency symbols and thousands
// separators are stripped before the first numeric run is taken.
func ParsePrice(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return round2(v), true
	case int:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" || spreadsheetError[s] {
			return 0, false
		}
		s = strings.ReplaceAll(s, "$", "")
		s = strings.ReplaceAll(s, ",", "")
		match := numberPattern.FindString(s)
		if match == "" {
			return 0, false
		}
		price, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return 0, false
		}
		return round2(price), true
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
