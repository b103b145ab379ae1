package tool

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"

	"github.com/rs/zerolog/log"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	llmx "github.com/meetkeeps15/brandbox-agent/agent/llm"
	statex "github.com/meetkeeps15/brandbox-agent/agent/state"
	"github.com/meetkeeps15/brandbox-agent/pkg/highlevel"
	"github.com/meetkeeps15/brandbox-agent/pkg/nocodb"
)

const (
	mockupEditPrompt = "You are an expert packaging designer editing an existing product " +
		"mockup. PRIORITIZE the user's change request. Only modify what the user asks " +
		"for; preserve the product geometry, label placement, and lighting."

	designSummaryMaxTokens = 400
)

// archetypeEnhancements are appended to the render prompt when the cached
// analysis carries a matching archetype.
var archetypeEnhancements = map[string]string{
	"athlete":   "ARCHETYPE: performance athlete. Energetic studio lighting, gym or track setting cues, bold condensed type.",
	"lifestyle": "ARCHETYPE: lifestyle creator. Warm natural light, candid home or cafe setting, soft editorial styling.",
	"wellness":  "ARCHETYPE: wellness guide. Calm neutral palette, organic textures, plants and natural materials in frame.",
	"fitness":   "ARCHETYPE: fitness coach. High-contrast lighting, matte dark surfaces, equipment subtly in background.",
	"beauty":    "ARCHETYPE: beauty expert. Glossy highlights, pastel gradient backdrop, vanity-style product staging.",
	"tech":      "ARCHETYPE: tech reviewer. Cool tones, clean desk setup, minimal geometric background.",
}

const archetypeFallback = "ARCHETYPE: modern creator brand. Clean commercial product photography, neutral backdrop, premium finish."

var (
	productPhotoFields  = []string{"Product Photo", "product_photo", "Photo", "photo", "Image", "image", "Image URL", "image_url"}
	labelTemplateFields = []string{"Label Template", "label_template", "Template", "template", "Label", "label"}
)

func mockupSubject(sku string) string {
	return "MOCKUP_" + strings.ToUpper(sanitizeSKU(sku))
}

func sanitizeSKU(sku string) string {
	var b strings.Builder
	for _, r := range sku {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteByte(byte(r))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// executeMockup serves both the creation and the edit tool. Creation
// composes the product photo, the center-cropped label template, and the
// session logo into one render; edits feed the prior render back with the
// change request.
func (c *Catalog) executeMockup(ctx context.Context, sess contractx.SessionContext, args map[string]any, isEdit bool) contractx.ToolResult {
	tool := ToolGenerateMockup
	if isEdit {
		tool = ToolEditMockup
	}

	sku := strings.TrimSpace(stringArg(args, "sku"))
	if sku == "" {
		return errorResult(tool, "sku is required")
	}
	if c.deps.Images == nil || !c.deps.Images.Configured() {
		return errorResult(tool, "image generation is not configured; set a fal key")
	}

	subject := mockupSubject(sku)
	var prompt string
	var sources []string

	if isEdit {
		request := strings.TrimSpace(stringArg(args, "request"))
		if request == "" {
			return errorResult(tool, "request is required")
		}
		history, err := c.deps.Store.ImageHistory(ctx, sess.Key, subject)
		if err != nil || len(history) == 0 {
			return errorResult(tool, fmt.Sprintf("no mockup exists for sku=%s in this session; generate one first", sku))
		}
		sources, err = mockupProgression(history)
		if err != nil {
			return errorResult(tool, fmt.Sprintf("load mockup progression: %v", err))
		}
		prompt = fmt.Sprintf("%s USER REQUEST: %s", mockupEditPrompt, request)
	} else {
		var err error
		prompt, sources, err = c.prepareMockupCreation(ctx, sess, sku, args)
		if err != nil {
			return errorResult(tool, err.Error())
		}
	}

	images, err := c.deps.Images.Edit(ctx, prompt, sources, "png")
	if err != nil {
		return errorResult(tool, fmt.Sprintf("render mockup: %v", err))
	}

	outDir := filepath.Join(c.deps.OutputsDir, "mockups", fmt.Sprintf("%d", c.now().Unix()))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errorResult(tool, fmt.Sprintf("create output dir: %v", err))
	}

	entry := statex.ImageEntry{
		ImageURL: images[0].URL,
		Prompt:   prompt,
	}
	name := fmt.Sprintf("mockup_%s.png", sanitizeSKU(sku))
	if isEdit {
		editNumber, err := c.deps.Store.NextEditNumber(ctx, sess.Key, subject)
		if err != nil {
			return errorResult(tool, fmt.Sprintf("resolve edit number: %v", err))
		}
		entry.IsEdit = true
		entry.EditNumber = editNumber
		name = fmt.Sprintf("mockup_%s_edit_%d.png", sanitizeSKU(sku), editNumber)
	}
	entry.ImagePath = filepath.Join(outDir, name)
	if err := c.saveImage(ctx, images[0].URL, entry.ImagePath); err != nil {
		return errorResult(tool, fmt.Sprintf("save mockup: %v", err))
	}
	if err := c.deps.Store.AppendImage(ctx, sess.Key, subject, entry); err != nil {
		return errorResult(tool, fmt.Sprintf("record mockup history: %v", err))
	}

	mockupURL := c.publishMockup(ctx, sess, entry.ImagePath, images[0].URL)

	payload := map[string]any{
		"sku":        sku,
		"image_path": entry.ImagePath,
		"image_url":  mockupURL,
	}
	if entry.IsEdit {
		payload["edit_number"] = entry.EditNumber
	}
	return okResult(tool, payload)
}

// mockupProgression returns the prior render plus the one before it when a
// previous edit exists, so the model sees the change trajectory. The first
// edit gets the single original.
func mockupProgression(history []statex.ImageEntry) ([]string, error) {
	latest := history[len(history)-1]
	current, err := fileDataURI(latest.ImagePath)
	if err != nil {
		return nil, err
	}
	if len(history) < 2 {
		return []string{current}, nil
	}
	previous, err := fileDataURI(history[len(history)-2].ImagePath)
	if err != nil {
		return []string{current}, nil
	}
	return []string{previous, current}, nil
}

func (c *Catalog) prepareMockupCreation(ctx context.Context, sess contractx.SessionContext, sku string, args map[string]any) (string, []string, error) {
	record, err := c.productBySKU(ctx, sku)
	if err != nil {
		return "", nil, err
	}

	var sources []string
	if photoURL := firstStringField(record, productPhotoFields); photoURL != "" {
		if uri, err := c.downloadDataURI(ctx, photoURL); err == nil {
			sources = append(sources, uri)
		} else {
			log.Warn().Err(err).Str("sku", sku).Msg("product photo download failed")
		}
	}
	if templateURL := firstStringField(record, labelTemplateFields); templateURL != "" {
		if uri, err := c.croppedTemplateDataURI(ctx, templateURL); err == nil {
			sources = append(sources, uri)
		} else {
			log.Warn().Err(err).Str("sku", sku).Msg("label template download failed")
		}
	}
	if logo, err := c.deps.Store.LastImage(ctx, sess.Key, logoSubject); err == nil {
		if uri, err := fileDataURI(logo.ImagePath); err == nil {
			sources = append(sources, uri)
		}
	}
	if len(sources) == 0 {
		return "", nil, errors.New("no source imagery available; the product needs a photo or the session needs a logo")
	}

	brand := strings.TrimSpace(stringArg(args, "brand_name"))
	summary := c.designSummary(ctx, sess, brand, record)

	var b strings.Builder
	b.WriteString("Compose a photorealistic branded product mockup. Apply the supplied logo and label artwork to the supplied product photo. Keep proportions and perspective true to the product.")
	if brand != "" {
		fmt.Fprintf(&b, " Brand name: %s.", brand)
	}
	if request := strings.TrimSpace(stringArg(args, "request")); request != "" {
		fmt.Fprintf(&b, " USER REQUIREMENTS (highest priority): %s.", request)
	}
	if summary != "" {
		fmt.Fprintf(&b, " DESIGN DIRECTION: %s", summary)
	}
	b.WriteString(" " + c.archetypeEnhancement(ctx, sess))

	return b.String(), sources, nil
}

// designSummary asks the model for a short art-direction brief from the
// cached session analysis. An empty string on any failure keeps the render
// going with the base prompt.
func (c *Catalog) designSummary(ctx context.Context, sess contractx.SessionContext, brand string, record nocodb.Record) string {
	if c.deps.LLM == nil || c.deps.Prompts.DesignSummary == "" {
		return ""
	}

	var user strings.Builder
	if brand != "" {
		fmt.Fprintf(&user, "Brand: %s\n", brand)
	}
	if name := firstStringField(record, productNameFields); name != "" {
		fmt.Fprintf(&user, "Product: %s\n", name)
	}
	if design := c.designContext(ctx, sess); design != "" {
		fmt.Fprintf(&user, "Design context: %s\n", design)
	}
	if user.Len() == 0 {
		return ""
	}

	out, err := c.deps.LLM.Complete(ctx, llmx.Request{
		System:      c.deps.Prompts.DesignSummary,
		User:        user.String(),
		Temperature: 0.8,
		MaxTokens:   designSummaryMaxTokens,
	})
	if err != nil {
		log.Warn().Err(err).Msg("design summary generation failed")
		return ""
	}
	return strings.TrimSpace(out)
}

func (c *Catalog) archetypeEnhancement(ctx context.Context, sess contractx.SessionContext) string {
	rec, err := c.deps.Store.LatestAnalysis(ctx, sess.Key)
	if err != nil {
		return archetypeFallback
	}
	archetype, _ := rec.Doc["inferred_archetype"].(map[string]any)
	name, _ := archetype["name"].(string)
	name = strings.ToLower(name)
	for key, enhancement := range archetypeEnhancements {
		if strings.Contains(name, key) {
			return enhancement
		}
	}
	return archetypeFallback
}

func (c *Catalog) productBySKU(ctx context.Context, sku string) (nocodb.Record, error) {
	if c.deps.Products == nil {
		return nil, errors.New("product catalog is not configured")
	}
	records, err := c.deps.Products.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	for _, record := range records {
		if strings.EqualFold(firstStringField(record, skuFieldCandidates), sku) {
			return record, nil
		}
	}
	return nil, fmt.Errorf("sku=%s not found in the product catalog", sku)
}

func firstStringField(record nocodb.Record, candidates []string) string {
	for _, key := range candidates {
		if v, ok := record[key].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func (c *Catalog) downloadDataURI(ctx context.Context, imageURL string) (string, error) {
	data, err := c.deps.Images.Download(ctx, imageURL)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// croppedTemplateDataURI center-crops the label template to a square so
// the render model sees only the artwork region.
func (c *Catalog) croppedTemplateDataURI(ctx context.Context, templateURL string) (string, error) {
	data, err := c.deps.Images.Download(ctx, templateURL)
	if err != nil {
		return "", err
	}
	cropped, err := centerCropSquare(data)
	if err != nil {
		// fall back to the original artwork
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(cropped), nil
}

func centerCropSquare(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	side := min(w, h)
	x0 := bounds.Min.X + (w-side)/2
	y0 := bounds.Min.Y + (h-side)/2
	rect := image.Rect(x0, y0, x0+side, y0+side)

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	si, ok := img.(subImager)
	if !ok {
		return nil, errors.New("image does not support cropping")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, si.SubImage(rect)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Catalog) publishMockup(ctx context.Context, sess contractx.SessionContext, path, falURL string) string {
	mockupURL := falURL
	if c.deps.CRM == nil || !c.deps.CRM.Configured() {
		return mockupURL
	}

	if data, err := os.ReadFile(path); err == nil {
		if uploaded, err := c.deps.CRM.UploadMedia(ctx, filepath.Base(path), data); err == nil && uploaded != "" {
			mockupURL = uploaded
		} else if err != nil {
			log.Warn().Err(err).Msg("mockup media upload failed, using fal url")
		}
	}

	_, err := c.sessionContact(ctx, sess, []highlevel.CustomFieldValue{
		{ID: c.deps.CRM.Fields().ProductMockupURL, Value: mockupURL},
	})
	if err != nil {
		log.Warn().Err(err).Str("session", sess.Key).Msg("crm mockup url sync failed")
	}
	return mockupURL
}
