package state

import (
	"strings"
	"time"
)

// AnalysisRecord is one persisted social-media analysis document.
type AnalysisRecord struct {
	Username string         `json:"username"`
	Path     string         `json:"path"`
	SavedAt  time.Time      `json:"saved_at"`
	Doc      map[string]any `json:"doc"`
}

// Guidance digs the brand_design_guidance block out of the raw document.
func (r *AnalysisRecord) Guidance() map[string]any {
	if r == nil || r.Doc == nil {
		return nil
	}
	g, _ := r.Doc["brand_design_guidance"].(map[string]any)
	return g
}

// PaletteHex returns the analyzer-recommended palette, normalized upstream.
func (r *AnalysisRecord) PaletteHex() []string {
	g := r.Guidance()
	if g == nil {
		return nil
	}
	raw, _ := g["color_palette_hex"].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// FollowerCount extracts a follower count from the scraped profile block.
func (r *AnalysisRecord) FollowerCount() (int, bool) {
	if r == nil || r.Doc == nil {
		return 0, false
	}
	profile, _ := r.Doc["profile"].(map[string]any)
	if profile == nil {
		return 0, false
	}
	for _, key := range []string{"followersCount", "followers_count", "followers", "fans"} {
		switch v := profile[key].(type) {
		case float64:
			if v > 0 {
				return int(v), true
			}
		case int:
			if v > 0 {
				return v, true
			}
		}
	}
	return 0, false
}

// PaletteOverride is a session-chosen color set that takes precedence over
// analyzer-derived colors in the logo and mockup tools.
type PaletteOverride struct {
	Palette []string          `json:"palette"`
	Roles   map[string]string `json:"roles,omitempty"`
	Source  string            `json:"source,omitempty"`
	SavedAt time.Time         `json:"saved_at"`
}

// ImageEntry is one generated or edited image in a subject's history.
// Subject is "LOGO" for logos and the product SKU for mockups.
type ImageEntry struct {
	ImagePath  string `json:"image_path"`
	ImageURL   string `json:"image_url,omitempty"`
	Prompt     string `json:"prompt"`
	Timestamp  int64  `json:"timestamp"`
	CreatedAt  string `json:"created_at"`
	IsEdit     bool   `json:"is_edit"`
	EditNumber int    `json:"edit_number"`
	SessionID  string `json:"session_id"`
}

// ContactBinding maps a session to the CRM contact created for it.
type ContactBinding struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Slot is a normalized availability window.
type Slot struct {
	StartISO string `json:"start_iso"`
	EndISO   string `json:"end_iso"`
}
