package tool

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
)

func TestNormalizeHex(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#3366FF", "#3366FF", true},
		{"3366ff", "#3366FF", true},
		{"#36f", "#3366FF", true},
		{"  #ABC  ", "#AABBCC", true},
		{"", "", false},
		{"#12", "", false},
		{"#12345", "", false},
		{"#GGGGGG", "", false},
		{"not a color", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeHex(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("NormalizeHex(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestGeneratePaletteSizeAndPrimary(t *testing.T) {
	t.Parallel()

	for size := 1; size <= maxPaletteSize; size++ {
		palette, err := GeneratePalette("#3366FF", size)
		if err != nil {
			t.Fatalf("GeneratePalette(size=%d): %v", size, err)
		}
		if len(palette) != size {
			t.Fatalf("size=%d: got %d colors", size, len(palette))
		}
		if palette[0] != "#3366FF" {
			t.Fatalf("size=%d: primary not first, got %s", size, palette[0])
		}
	}
}

func TestGeneratePaletteUniqueValidHex(t *testing.T) {
	t.Parallel()

	palette, err := GeneratePalette("#FF6B6B", maxPaletteSize)
	if err != nil {
		t.Fatalf("GeneratePalette: %v", err)
	}

	seen := map[string]bool{}
	for _, hex := range palette {
		if seen[hex] {
			t.Fatalf("duplicate color %s in %v", hex, palette)
		}
		seen[hex] = true
		if normalized, ok := NormalizeHex(hex); !ok || normalized != hex {
			t.Fatalf("palette entry %q is not normalized hex", hex)
		}
	}
}

func TestGeneratePaletteRejectsBadPrimary(t *testing.T) {
	t.Parallel()

	if _, err := GeneratePalette("nope", 5); err == nil {
		t.Fatal("expected error for invalid primary color")
	}
}

func TestDefaultPaletteIsNormalized(t *testing.T) {
	t.Parallel()

	for _, hex := range DefaultPalette {
		if !strings.HasPrefix(hex, "#") || len(hex) != 7 {
			t.Fatalf("default palette entry %q is malformed", hex)
		}
	}
}

func paletteCatalogWithCache(t *testing.T, cached []string) (*Catalog, contractx.SessionContext) {
	t.Helper()
	catalog := testCatalog(t, nil)
	sess := contractx.SessionContext{Key: "sess1234"}
	if len(cached) > 0 {
		hexes := make([]any, 0, len(cached))
		for _, h := range cached {
			hexes = append(hexes, h)
		}
		doc := map[string]any{
			"brand_design_guidance": map[string]any{"color_palette_hex": hexes},
		}
		if _, err := catalog.deps.Store.SaveAnalysis(context.Background(), sess.Key, "keeps", doc); err != nil {
			t.Fatalf("SaveAnalysis: %v", err)
		}
	}
	return catalog, sess
}

func TestResolvePalettePrecedence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("explicit beats cache", func(t *testing.T) {
		t.Parallel()
		catalog, sess := paletteCatalogWithCache(t, []string{"#112233", "#445566"})
		res := catalog.resolvePalette(ctx, sess, []string{"#ABCDEF"}, nil, "", 5)
		if res.Source != "explicit" || len(res.Palette) != 1 || res.Palette[0] != "#ABCDEF" {
			t.Fatalf("resolution = %+v", res)
		}
	})

	t.Run("cache beats primary", func(t *testing.T) {
		t.Parallel()
		catalog, sess := paletteCatalogWithCache(t, []string{"#112233", "#445566"})
		res := catalog.resolvePalette(ctx, sess, nil, nil, "#3366FF", 5)
		if res.Source != "social_analysis" {
			t.Fatalf("source = %s, want social_analysis", res.Source)
		}
		if len(res.Palette) != 2 || res.Palette[0] != "#112233" || res.Palette[1] != "#445566" {
			t.Fatalf("palette = %v", res.Palette)
		}
	})

	t.Run("primary generates without cache", func(t *testing.T) {
		t.Parallel()
		catalog, sess := paletteCatalogWithCache(t, nil)
		res := catalog.resolvePalette(ctx, sess, nil, nil, "#3366FF", 5)
		if res.Source != "generated" {
			t.Fatalf("source = %s, want generated", res.Source)
		}
		if len(res.Palette) != 5 || res.Palette[0] != "#3366FF" {
			t.Fatalf("palette = %v", res.Palette)
		}
	})

	t.Run("default when nothing given", func(t *testing.T) {
		t.Parallel()
		catalog, sess := paletteCatalogWithCache(t, nil)
		res := catalog.resolvePalette(ctx, sess, nil, nil, "", 5)
		if res.Source != "default" {
			t.Fatalf("source = %s, want default", res.Source)
		}
	})
}

func TestResolvePaletteRoles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	catalog, sess := paletteCatalogWithCache(t, []string{"#112233"})
	roles := []roleAssignment{
		{Hex: "36f", Role: "Primary"},
		{Hex: "#FFD93D", Role: "accent"},
		{Hex: "zzz", Role: "neutral"},
	}
	res := catalog.resolvePalette(ctx, sess, []string{"#111111"}, roles, "", 5)

	if res.Source != "explicit" {
		t.Fatalf("source = %s, want explicit", res.Source)
	}
	want := []string{"#111111", "#3366FF", "#FFD93D"}
	if len(res.Palette) != len(want) {
		t.Fatalf("palette = %v, want %v", res.Palette, want)
	}
	for i := range want {
		if res.Palette[i] != want[i] {
			t.Fatalf("palette[%d] = %s, want %s", i, res.Palette[i], want[i])
		}
	}
	if res.Roles["primary"] != "#3366FF" || res.Roles["accent"] != "#FFD93D" {
		t.Fatalf("roles = %v", res.Roles)
	}
	if _, present := res.Roles["neutral"]; present {
		t.Fatalf("invalid hex should not claim a role: %v", res.Roles)
	}
}

func TestRoleArgs(t *testing.T) {
	t.Parallel()

	args := map[string]any{
		"roles": []any{
			map[string]any{"hex": "#3366FF", "role": "primary"},
			map[string]any{"hex": "#FFD93D"},
			map[string]any{"role": "accent"},
			"not-an-object",
		},
	}
	got := roleArgs(args, "roles")
	if len(got) != 2 {
		t.Fatalf("roleArgs = %v, want 2 entries", got)
	}
	if got[0].Hex != "#3366FF" || got[0].Role != "primary" {
		t.Fatalf("first entry = %+v", got[0])
	}
	if got[1].Hex != "#FFD93D" || got[1].Role != "" {
		t.Fatalf("second entry = %+v", got[1])
	}
}
