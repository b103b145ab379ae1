package tool

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog/log"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	statex "github.com/meetkeeps15/brandbox-agent/agent/state"
)

const maxPaletteSize = 5

// DefaultPalette is used when nothing else resolves.
var DefaultPalette = []string{"#0B0F19", "#1F3B73", "#3366FF", "#6BCB77", "#FFD93D"}

// fallbackAccents complete a palette when generation fails mid-way.
var fallbackAccents = []string{"#FF6B6B", "#FFD93D", "#6BCB77", "#4D96FF"}

// NormalizeHex canonicalizes a hex color: optional leading hash, 3- or
// 6-digit forms, output uppercase with a hash. ok is false for anything else.
func NormalizeHex(raw string) (string, bool) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
	if len(s) != 3 && len(s) != 6 {
		return "", false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return "", false
		}
	}
	if len(s) == 3 {
		var b strings.Builder
		for _, r := range s {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		s = b.String()
	}
	return "#" + strings.ToUpper(s), true
}

// GeneratePalette derives size colors from one primary via HSL shifts,
// primary first, all unique. size is capped at 5.
func GeneratePalette(primary string, size int) ([]string, error) {
	normalized, ok := NormalizeHex(primary)
	if !ok {
		return nil, fmt.Errorf("invalid primary color %q", primary)
	}
	if size < 1 {
		size = 1
	}
	if size > maxPaletteSize {
		size = maxPaletteSize
	}

	base, err := colorful.Hex(normalized)
	if err != nil {
		return nil, fmt.Errorf("parse primary color: %w", err)
	}
	h, s, l := base.Hsl()

	out := []string{normalized}
	seen := map[string]struct{}{normalized: {}}

	hueShifts := []float64{0.08, -0.08, 0.16, -0.16, 0.24, -0.24, 0.32, -0.32}
	for i := 1; len(out) < size && i <= len(hueShifts); i++ {
		shift := hueShifts[i-1]

		lightness := l - 0.10
		if i%2 == 0 {
			lightness = l + 0.10
		}
		saturation := s - 0.05
		if i < 2 {
			saturation = s + 0.10
		}

		hue := math360(h + shift*360)
		candidate := colorful.Hsl(hue, clamp01(saturation), clamp01(lightness)).Clamped()
		hex := strings.ToUpper(candidate.Hex())
		if _, dup := seen[hex]; dup {
			continue
		}
		seen[hex] = struct{}{}
		out = append(out, hex)
	}

	// Degenerate primaries (pure black, pure white) collapse shifts into
	// duplicates; top up from the fixed accents.
	for _, accent := range fallbackAccents {
		if len(out) >= size {
			break
		}
		if _, dup := seen[accent]; dup {
			continue
		}
		seen[accent] = struct{}{}
		out = append(out, accent)
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func math360(h float64) float64 {
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	return h
}

// paletteResolution records where the rendered palette came from.
type paletteResolution struct {
	Palette []string
	Roles   map[string]string
	Source  string
}

// roleAssignment is one caller-supplied color role, e.g.
// {hex: "#3366FF", role: "primary"}.
type roleAssignment struct {
	Hex  string
	Role string
}

// resolvePalette applies the precedence order: explicit colors and role
// assignments, then the session's social-analysis cache, then generation
// from a primary color, then the default palette. A cached palette wins
// over a supplied primary; the primary only seeds generation when the
// session has nothing cached.
func (c *Catalog) resolvePalette(ctx context.Context, sess contractx.SessionContext, explicit []string, roles []roleAssignment, primary string, size int) paletteResolution {
	if size < 1 {
		size = maxPaletteSize
	}
	if size > maxPaletteSize {
		size = maxPaletteSize
	}

	merged := append([]string(nil), explicit...)
	roleMap := map[string]string{}
	for _, r := range roles {
		hex, ok := NormalizeHex(r.Hex)
		if !ok {
			continue
		}
		merged = append(merged, hex)
		role := strings.ToLower(strings.TrimSpace(r.Role))
		if role == "" {
			role = "unspecified"
		}
		roleMap[role] = hex
	}
	if normalized := normalizeAll(merged); len(normalized) > 0 {
		if len(normalized) > size {
			normalized = normalized[:size]
		}
		res := paletteResolution{Palette: normalized, Source: "explicit"}
		if len(roleMap) > 0 {
			res.Roles = roleMap
		}
		return res
	}

	if rec, err := c.deps.Store.LatestAnalysis(ctx, sess.Key); err == nil {
		if cached := normalizeAll(rec.PaletteHex()); len(cached) > 0 {
			if len(cached) > size {
				cached = cached[:size]
			}
			return paletteResolution{
				Palette: cached,
				Roles:   guidanceRoles(rec),
				Source:  "social_analysis",
			}
		}
	} else if !errors.Is(err, statex.ErrRecordNotFound) {
		log.Warn().Err(err).Str("session", sess.Key).Msg("palette cache read failed")
	}

	if primary != "" {
		generated, err := GeneratePalette(primary, size)
		if err == nil {
			return paletteResolution{Palette: generated, Source: "generated"}
		}
		log.Warn().Err(err).Str("primary", primary).Msg("palette generation failed, using fallback")
		if normalized, ok := NormalizeHex(primary); ok {
			fallback := append([]string{normalized}, fallbackAccents...)
			if len(fallback) > size {
				fallback = fallback[:size]
			}
			return paletteResolution{Palette: fallback, Source: "fallback"}
		}
	}

	palette := append([]string(nil), DefaultPalette...)
	if len(palette) > size {
		palette = palette[:size]
	}
	return paletteResolution{Palette: palette, Source: "default"}
}

func normalizeAll(raw []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, v := range raw {
		hex, ok := NormalizeHex(v)
		if !ok {
			continue
		}
		if _, dup := seen[hex]; dup {
			continue
		}
		seen[hex] = struct{}{}
		out = append(out, hex)
	}
	return out
}

// roleArgs reads a [{hex, role}] argument list.
func roleArgs(args map[string]any, key string) []roleAssignment {
	raw, _ := args[key].([]any)
	out := make([]roleAssignment, 0, len(raw))
	for _, v := range raw {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		hex, _ := entry["hex"].(string)
		role, _ := entry["role"].(string)
		if strings.TrimSpace(hex) == "" {
			continue
		}
		out = append(out, roleAssignment{Hex: hex, Role: role})
	}
	return out
}

func guidanceRoles(rec *statex.AnalysisRecord) map[string]string {
	g := rec.Guidance()
	if g == nil {
		return nil
	}
	raw, _ := g["color_roles"].(map[string]any)
	if len(raw) == 0 {
		return nil
	}
	roles := make(map[string]string, len(raw))
	for role, v := range raw {
		if s, ok := v.(string); ok {
			if hex, valid := NormalizeHex(s); valid {
				roles[role] = hex
			}
		}
	}
	return roles
}

func (c *Catalog) executeRenderPalette(ctx context.Context, sess contractx.SessionContext, args map[string]any) contractx.ToolResult {
	explicit := stringSliceArg(args, "colors")
	roles := roleArgs(args, "roles")
	primary := strings.TrimSpace(stringArg(args, "primary_color"))
	size, _ := intArg(args, "size")

	resolution := c.resolvePalette(ctx, sess, explicit, roles, primary, size)

	swatchDir := filepath.Join(c.deps.OutputsDir, "palettes", fmt.Sprintf("%d", c.now().Unix()))
	swatches, err := renderSwatches(swatchDir, resolution.Palette)
	if err != nil {
		return errorResult(ToolRenderPalette, fmt.Sprintf("render swatches: %v", err))
	}

	if boolArg(args, "save_override") {
		override := statex.PaletteOverride{
			Palette: resolution.Palette,
			Roles:   resolution.Roles,
			Source:  resolution.Source,
		}
		if err := c.deps.Store.SavePaletteOverride(ctx, sess.Key, override); err != nil {
			log.Warn().Err(err).Str("session", sess.Key).Msg("palette override save failed")
		}
	}

	return okResult(ToolRenderPalette, map[string]any{
		"palette":  resolution.Palette,
		"roles":    resolution.Roles,
		"source":   resolution.Source,
		"swatches": swatches,
	})
}

// renderSwatches writes one square PNG per color and returns their paths.
func renderSwatches(dir string, palette []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	const edge = 200
	paths := make([]string, 0, len(palette))
	for _, hex := range palette {
		parsed, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", hex, err)
		}
		r, g, b := parsed.RGB255()

		img := image.NewRGBA(image.Rect(0, 0, edge, edge))
		fill := color.RGBA{R: r, G: g, B: b, A: 255}
		for y := 0; y < edge; y++ {
			for x := 0; x < edge; x++ {
				img.SetRGBA(x, y, fill)
			}
		}

		path := filepath.Join(dir, "swatch_"+strings.TrimPrefix(hex, "#")+".png")
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
