package tool

import (
	"context"
	"testing"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	"github.com/meetkeeps15/brandbox-agent/pkg/nocodb"
)

func TestParsePrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  any
		want float64
		ok   bool
	}{
		{"$1,234.56", 1234.56, true},
		{"12.5", 12.5, true},
		{" $9 ", 9, true},
		{"approx 19.99 each", 19.99, true},
		{12.345, 12.35, true},
		{7, 7, true},
		{"#REF!", 0, false},
		{"#N/A", 0, false},
		{"#VALUE!", 0, false},
		{"", 0, false},
		{"tbd", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParsePrice(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParsePrice(%v) = (%.2f, %v), want (%.2f, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEstimateProfit(t *testing.T) {
	t.Parallel()

	estimate := EstimateProfit(10, 25, 1000, 0.02)

	if estimate.ProfitPerUnit != 15.0 {
		t.Fatalf("profit per unit = %.2f, want 15.00", estimate.ProfitPerUnit)
	}
	if estimate.Buyers != 20 {
		t.Fatalf("buyers = %d, want 20", estimate.Buyers)
	}
	if estimate.Earnings != 300.0 {
		t.Fatalf("earnings = %.2f, want 300.00", estimate.Earnings)
	}
	if estimate.MarginPercent != 60.0 {
		t.Fatalf("margin = %.1f, want 60.0", estimate.MarginPercent)
	}
}

func TestEstimateProfitClampsNegativeMargin(t *testing.T) {
	t.Parallel()

	estimate := EstimateProfit(30, 25, 1000, 0.02)

	if estimate.ProfitPerUnit != 0 {
		t.Fatalf("profit per unit = %.2f, want 0", estimate.ProfitPerUnit)
	}
	if estimate.Earnings != 0 {
		t.Fatalf("earnings = %.2f, want 0", estimate.Earnings)
	}
}

type fakeProducts struct {
	records []nocodb.Record
	err     error
}

func (f *fakeProducts) ListRecords(context.Context) ([]nocodb.Record, error) {
	return f.records, f.err
}

func profitCatalog(t *testing.T) *Catalog {
	t.Helper()
	return testCatalog(t, func(deps *Deps) {
		deps.Products = &fakeProducts{records: []nocodb.Record{
			{"SKU": "GLOW-01", "Name": "Glow Serum", "Cost": "$10.00"},
		}}
	})
}

func TestCheckPriceOnlySkipsRetailValidation(t *testing.T) {
	t.Parallel()

	catalog := profitCatalog(t)
	sess := contractx.SessionContext{Key: "sess1234"}

	result := catalog.dispatch(context.Background(), sess, ToolCalculateProfit, map[string]any{
		"sku":              "GLOW-01",
		"check_price_only": true,
	})
	if result.Error != "" {
		t.Fatalf("check_price_only without retail errored: %s", result.Error)
	}

	payload, ok := result.Result.(map[string]any)
	if !ok {
		t.Fatalf("result payload type %T", result.Result)
	}
	if payload["cost_per_unit"] != 10.0 {
		t.Fatalf("cost_per_unit = %v", payload["cost_per_unit"])
	}
	if _, present := payload["retail_price"]; present {
		t.Fatalf("retail_price should be omitted when not supplied")
	}
	if _, present := payload["profit_per_unit"]; present {
		t.Fatalf("profit_per_unit should be omitted when not supplied")
	}
}

func TestCheckPriceOnlyWithRetailIncludesProfit(t *testing.T) {
	t.Parallel()

	catalog := profitCatalog(t)
	sess := contractx.SessionContext{Key: "sess1234"}

	result := catalog.dispatch(context.Background(), sess, ToolCalculateProfit, map[string]any{
		"sku":              "GLOW-01",
		"retail_price":     25.0,
		"check_price_only": true,
	})
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	payload := result.Result.(map[string]any)
	if payload["profit_per_unit"] != 15.0 {
		t.Fatalf("profit_per_unit = %v, want 15", payload["profit_per_unit"])
	}
}

func TestResolveFollowers(t *testing.T) {
	t.Parallel()

	catalog := profitCatalog(t)
	sess := contractx.SessionContext{Key: "sess1234"}
	ctx := context.Background()

	if _, err := catalog.resolveFollowers(ctx, sess, nil); err == nil {
		t.Fatal("expected error with no followers anywhere")
	}

	if n, err := catalog.resolveFollowers(ctx, sess, map[string]any{"followers": 900}); err != nil || n != 900 {
		t.Fatalf("explicit followers = (%d, %v), want 900", n, err)
	}

	doc := map[string]any{
		"profile": map[string]any{"followersCount": float64(4200)},
	}
	if _, err := catalog.deps.Store.SaveAnalysis(ctx, sess.Key, "keeps", doc); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if n, err := catalog.resolveFollowers(ctx, sess, nil); err != nil || n != 4200 {
		t.Fatalf("cached followers = (%d, %v), want 4200", n, err)
	}
}
