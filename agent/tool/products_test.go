package tool

import (
	"math"
	"testing"
)

func TestScoreProductFullMatch(t *testing.T) {
	t.Parallel()

	desire := ProductDesire{
		Category: "supplement",
		Keywords: []string{"protein", "vanilla"},
		MustHave: []string{"protein"},
	}
	score := ScoreProduct("Vanilla Protein Supplement Powder", desire, nil)

	if score.Raw != 90 {
		t.Fatalf("raw score = %.1f, want 90", score.Raw)
	}
	if score.Normalized != 1.0 {
		t.Fatalf("normalized = %.3f, want 1.0", score.Normalized)
	}
	if score.Confidence != "high" {
		t.Fatalf("confidence = %s, want high", score.Confidence)
	}
}

func TestScoreProductExcludedTermPenalty(t *testing.T) {
	t.Parallel()

	desire := ProductDesire{
		Category: "supplement",
		Keywords: []string{"protein", "vanilla"},
		MustHave: []string{"protein"},
		Excluded: []string{"vape"},
	}
	score := ScoreProduct("Vanilla Protein Supplement Powder with vape flavoring", desire, nil)

	if score.Raw != 70 {
		t.Fatalf("raw score = %.1f, want 70", score.Raw)
	}
	if score.Confidence != "medium" {
		t.Fatalf("confidence = %s, want medium", score.Confidence)
	}
}

func TestScoreProductMustHaveMiss(t *testing.T) {
	t.Parallel()

	desire := ProductDesire{MustHave: []string{"collagen"}}
	score := ScoreProduct("Vanilla Protein Powder", desire, nil)

	if score.Raw != -mustHavePenalty {
		t.Fatalf("raw score = %.1f, want %.1f", score.Raw, -mustHavePenalty)
	}
	if score.Normalized != 0 || score.Confidence != "low" {
		t.Fatalf("got (%.2f, %s), want (0.00, low)", score.Normalized, score.Confidence)
	}
}

func TestScoreProductAttributeWeights(t *testing.T) {
	t.Parallel()

	desire := ProductDesire{
		Attributes: map[string]string{
			"aesthetic": "minimal",
			"flavor":    "vanilla",
			"size":      "any",
		},
	}
	score := ScoreProduct("minimal vanilla blend", desire, nil)

	// aesthetic matches at weight 3, flavor at weight 2, "any" is skipped
	if score.Raw != 5 {
		t.Fatalf("raw score = %.1f, want 5", score.Raw)
	}
}

func TestScoreProductCacheAlignment(t *testing.T) {
	t.Parallel()

	score := ScoreProduct("clean girl aesthetic glam serum", ProductDesire{}, []string{"clean girl", "soft glam look"})

	// exact phrase hit scores 20, the partial only matches one of three words
	want := 20 + 1.0/3.0*10
	if math.Abs(score.Raw-want) > 1e-9 {
		t.Fatalf("raw score = %.3f, want %.3f", score.Raw, want)
	}
	if score.Confidence != "medium" {
		t.Fatalf("confidence = %s, want medium", score.Confidence)
	}
}

func TestFallbackDesire(t *testing.T) {
	t.Parallel()

	desire := fallbackDesire("Vegan Protein Bars")
	if desire.Confidence != fallbackDesireTrust {
		t.Fatalf("confidence = %.2f, want %.2f", desire.Confidence, fallbackDesireTrust)
	}
	if len(desire.Keywords) != 3 || desire.Keywords[0] != "vegan" {
		t.Fatalf("keywords = %v", desire.Keywords)
	}
}
