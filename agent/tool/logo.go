package tool

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	statex "github.com/meetkeeps15/brandbox-agent/agent/state"
	"github.com/meetkeeps15/brandbox-agent/pkg/highlevel"
)

const (
	logoSubject   = "LOGO"
	logosPerBatch = 3

	logoBasePrompt = "Design a professional, brandable LOGO with: clean negative space, " +
		"legible typography, cohesive icon-wordmark relation, high contrast, minimal " +
		"gradients or textures, and a transparent background. Vector-like clarity."

	logoEditPrompt = "You are an expert logo designer editing an existing logo. " +
		"PRIORITIZE the user's change request. Only modify what the user asks for; " +
		"preserve other elements such as composition, typography, and colors."
)

// LogoStyle is one entry from the embedded style template file.
type LogoStyle struct {
	Name       string
	Prompt     string
	StyleGuide string
}

// ParseLogoStyles reads the numbered style template format: a numbered
// name line, then "prompt:" and "style_guide:" lines.
func ParseLogoStyles(text string) []LogoStyle {
	var styles []LogoStyle
	var current *LogoStyle

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case isNumberedName(line):
			if current != nil && current.Name != "" {
				styles = append(styles, *current)
			}
			_, name, _ := strings.Cut(line, ".")
			current = &LogoStyle{Name: strings.TrimSpace(name)}
		case strings.HasPrefix(strings.ToLower(line), "prompt:"):
			if current != nil {
				current.Prompt = strings.TrimSpace(line[len("prompt:"):])
			}
		case strings.HasPrefix(strings.ToLower(line), "style_guide:"):
			if current != nil {
				current.StyleGuide = strings.TrimSpace(line[len("style_guide:"):])
			}
		}
	}
	if current != nil && current.Name != "" {
		styles = append(styles, *current)
	}

	if len(styles) == 0 {
		styles = fallbackLogoStyles()
	}
	return styles
}

func isNumberedName(line string) bool {
	before, _, found := strings.Cut(line, ".")
	if !found || before == "" {
		return false
	}
	for _, r := range before {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func fallbackLogoStyles() []LogoStyle {
	return []LogoStyle{
		{
			Name:   "Minimalist",
			Prompt: "Ultra-clean minimalist logo, flat vector style, generous negative space, no gradients.",
		},
		{
			Name:   "Elegant",
			Prompt: "Refined elegant logo, high-contrast serif wordmark, balanced symmetry, monochrome.",
		},
		{
			Name:   "Athletic",
			Prompt: "Bold athletic logo, dynamic angular forms, condensed typography, solid saturated colors.",
		},
	}
}

// DistributeImages splits total outputs across styles, remainder to the
// first styles.
func DistributeImages(total int, styleCount int) []int {
	if styleCount <= 0 {
		return nil
	}
	out := make([]int, styleCount)
	base := total / styleCount
	remainder := total % styleCount
	for i := range out {
		out[i] = base
		if i < remainder {
			out[i]++
		}
	}
	return out
}

func (c *Catalog) executeGenerateLogo(ctx context.Context, sess contractx.SessionContext, args map[string]any) contractx.ToolResult {
	brand := strings.TrimSpace(stringArg(args, "brand_name"))
	if brand == "" {
		return errorResult(ToolGenerateLogo, "brand_name is required")
	}
	if c.deps.Images == nil || !c.deps.Images.Configured() {
		return errorResult(ToolGenerateLogo, "image generation is not configured; set a fal key")
	}

	styles := c.selectLogoStyles(stringSliceArg(args, "styles"))
	counts := DistributeImages(logosPerBatch, len(styles))
	design := c.designContext(ctx, sess)
	requirements := strings.TrimSpace(stringArg(args, "requirements"))

	outDir := filepath.Join(c.deps.OutputsDir, "logos", fmt.Sprintf("%d", c.now().Unix()))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errorResult(ToolGenerateLogo, fmt.Sprintf("create output dir: %v", err))
	}

	var saved []map[string]any
	imageIndex := 0
	for i, style := range styles {
		if counts[i] == 0 {
			continue
		}
		prompt := buildLogoPrompt(brand, requirements, design, style)

		images, err := c.deps.Images.Generate(ctx, prompt, counts[i], "png")
		if err != nil {
			return errorResult(ToolGenerateLogo, fmt.Sprintf("generate %s logos: %v", style.Name, err))
		}
		for _, img := range images {
			imageIndex++
			path := filepath.Join(outDir, fmt.Sprintf("logo_%d.png", imageIndex))
			if err := c.saveImage(ctx, img.URL, path); err != nil {
				return errorResult(ToolGenerateLogo, fmt.Sprintf("save logo: %v", err))
			}
			entry := statex.ImageEntry{
				ImagePath: path,
				ImageURL:  img.URL,
				Prompt:    prompt,
			}
			if err := c.deps.Store.AppendImage(ctx, sess.Key, logoSubject, entry); err != nil {
				return errorResult(ToolGenerateLogo, fmt.Sprintf("record logo history: %v", err))
			}
			saved = append(saved, map[string]any{
				"style":      style.Name,
				"image_path": path,
				"image_url":  img.URL,
			})
		}
	}

	c.syncBrandNameToCRM(ctx, sess, brand)

	return okResult(ToolGenerateLogo, map[string]any{
		"brand_name": brand,
		"logos":      saved,
	})
}

func (c *Catalog) executeEditLogo(ctx context.Context, sess contractx.SessionContext, args map[string]any) contractx.ToolResult {
	request := strings.TrimSpace(stringArg(args, "request"))
	if request == "" {
		return errorResult(ToolEditLogo, "request is required")
	}
	if c.deps.Images == nil || !c.deps.Images.Configured() {
		return errorResult(ToolEditLogo, "image generation is not configured; set a fal key")
	}

	sourcePath := strings.TrimSpace(stringArg(args, "image_path"))
	if sourcePath == "" {
		last, err := c.deps.Store.LastImage(ctx, sess.Key, logoSubject)
		if err != nil {
			if errors.Is(err, statex.ErrRecordNotFound) {
				return errorResult(ToolEditLogo, "no logo exists yet for this session; generate one first")
			}
			return errorResult(ToolEditLogo, fmt.Sprintf("load logo history: %v", err))
		}
		sourcePath = last.ImagePath
	}

	dataURI, err := fileDataURI(sourcePath)
	if err != nil {
		return errorResult(ToolEditLogo, fmt.Sprintf("read source logo: %v", err))
	}

	prompt := fmt.Sprintf("%s USER REQUEST: %s", logoEditPrompt, request)
	images, err := c.deps.Images.Edit(ctx, prompt, []string{dataURI}, "png")
	if err != nil {
		return errorResult(ToolEditLogo, fmt.Sprintf("edit logo: %v", err))
	}

	editNumber, err := c.deps.Store.NextEditNumber(ctx, sess.Key, logoSubject)
	if err != nil {
		return errorResult(ToolEditLogo, fmt.Sprintf("resolve edit number: %v", err))
	}

	outDir := filepath.Join(c.deps.OutputsDir, "logos", fmt.Sprintf("%d", c.now().Unix()))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errorResult(ToolEditLogo, fmt.Sprintf("create output dir: %v", err))
	}
	path := filepath.Join(outDir, fmt.Sprintf("logo_edit_%d.png", editNumber))
	if err := c.saveImage(ctx, images[0].URL, path); err != nil {
		return errorResult(ToolEditLogo, fmt.Sprintf("save edited logo: %v", err))
	}

	entry := statex.ImageEntry{
		ImagePath:  path,
		ImageURL:   images[0].URL,
		Prompt:     prompt,
		IsEdit:     true,
		EditNumber: editNumber,
	}
	if err := c.deps.Store.AppendImage(ctx, sess.Key, logoSubject, entry); err != nil {
		return errorResult(ToolEditLogo, fmt.Sprintf("record logo history: %v", err))
	}

	logoURL := c.publishLogo(ctx, sess, path, images[0].URL)

	return okResult(ToolEditLogo, map[string]any{
		"image_path":  path,
		"image_url":   logoURL,
		"edit_number": editNumber,
	})
}

func (c *Catalog) selectLogoStyles(requested []string) []LogoStyle {
	all := ParseLogoStyles(c.deps.Prompts.LogoStyles)
	if len(requested) == 0 {
		if len(all) > logosPerBatch {
			return all[:logosPerBatch]
		}
		return all
	}

	var picked []LogoStyle
	for _, want := range requested {
		for _, style := range all {
			if strings.EqualFold(strings.TrimSpace(want), style.Name) {
				picked = append(picked, style)
				break
			}
		}
		if len(picked) == logosPerBatch {
			break
		}
	}
	if len(picked) == 0 {
		if len(all) > logosPerBatch {
			return all[:logosPerBatch]
		}
		return all
	}
	return picked
}

// designContext collects archetype, tone, palette, and typography hints
// from the session caches into a prompt fragment. Missing pieces are
// simply omitted.
func (c *Catalog) designContext(ctx context.Context, sess contractx.SessionContext) string {
	var b strings.Builder

	if rec, err := c.deps.Store.LatestAnalysis(ctx, sess.Key); err == nil {
		if archetype, ok := rec.Doc["inferred_archetype"].(map[string]any); ok {
			if name, ok := archetype["name"].(string); ok && name != "" {
				fmt.Fprintf(&b, "Archetype: %s. ", name)
			}
		}
		if g := rec.Guidance(); g != nil {
			if tone, ok := g["tone_words"].([]any); ok && len(tone) > 0 {
				words := make([]string, 0, len(tone))
				for _, t := range tone {
					if s, ok := t.(string); ok {
						words = append(words, s)
					}
				}
				fmt.Fprintf(&b, "Tone: %s. ", strings.Join(words, ", "))
			}
			if typography, ok := g["typography"].(string); ok && typography != "" {
				fmt.Fprintf(&b, "Typography: %s. ", typography)
			}
		}
	}

	if override, err := c.deps.Store.LoadPaletteOverride(ctx, sess.Key); err == nil {
		fmt.Fprintf(&b, "HEX Palette: %s. ", strings.Join(override.Palette, ", "))
		if len(override.Roles) > 0 {
			var roles []string
			for role, hex := range override.Roles {
				roles = append(roles, role+"="+hex)
			}
			fmt.Fprintf(&b, "Roles: %s. ", strings.Join(roles, ", "))
		}
	} else if rec, err := c.deps.Store.LatestAnalysis(ctx, sess.Key); err == nil {
		if palette := rec.PaletteHex(); len(palette) > 0 {
			fmt.Fprintf(&b, "HEX Palette: %s. ", strings.Join(palette, ", "))
		}
	}

	return strings.TrimSpace(b.String())
}

func buildLogoPrompt(brand, requirements, design string, style LogoStyle) string {
	var b strings.Builder
	b.WriteString(logoBasePrompt)
	fmt.Fprintf(&b, " Brand name: %s.", brand)
	if requirements != "" {
		fmt.Fprintf(&b, " USER REQUIREMENTS (highest priority): %s.", requirements)
	}
	if design != "" {
		fmt.Fprintf(&b, " DESIGN CONTEXT: %s", design)
	}
	fmt.Fprintf(&b, " STYLE TEMPLATE: %s - %s", style.Name, style.Prompt)
	if style.StyleGuide != "" {
		fmt.Fprintf(&b, " | GUIDE: %s", style.StyleGuide)
	}
	return b.String()
}

func (c *Catalog) saveImage(ctx context.Context, imageURL, path string) error {
	data, err := c.deps.Images.Download(ctx, imageURL)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func fileDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (c *Catalog) syncBrandNameToCRM(ctx context.Context, sess contractx.SessionContext, brand string) {
	if c.deps.CRM == nil || !c.deps.CRM.Configured() {
		return
	}
	_, err := c.sessionContact(ctx, sess, []highlevel.CustomFieldValue{
		{ID: c.deps.CRM.Fields().BrandName, Value: brand},
	})
	if err != nil {
		log.Warn().Err(err).Str("session", sess.Key).Msg("crm brand name sync failed")
	}
}

// publishLogo uploads the edited logo to the CRM media library and writes
// its URL onto the contact. The fal URL is the fallback when upload fails.
func (c *Catalog) publishLogo(ctx context.Context, sess contractx.SessionContext, path, falURL string) string {
	logoURL := falURL
	if c.deps.CRM == nil || !c.deps.CRM.Configured() {
		return logoURL
	}

	if data, err := os.ReadFile(path); err == nil {
		if uploaded, err := c.deps.CRM.UploadMedia(ctx, filepath.Base(path), data); err == nil && uploaded != "" {
			logoURL = uploaded
		} else if err != nil {
			log.Warn().Err(err).Msg("logo media upload failed, using fal url")
		}
	}

	_, err := c.sessionContact(ctx, sess, []highlevel.CustomFieldValue{
		{ID: c.deps.CRM.Fields().LogoURL, Value: logoURL},
	})
	if err != nil {
		log.Warn().Err(err).Str("session", sess.Key).Msg("crm logo url sync failed")
	}
	return logoURL
}
