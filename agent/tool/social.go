package tool

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	llmx "github.com/meetkeeps15/brandbox-agent/agent/llm"
	statex "github.com/meetkeeps15/brandbox-agent/agent/state"
	"github.com/meetkeeps15/brandbox-agent/pkg/apify"
	"github.com/meetkeeps15/brandbox-agent/pkg/highlevel"
)

const (
	defaultAnalysisMaxAge = 720 * time.Minute
	maxAnalyzedPosts      = 6
	maxCommentsPerPost    = 10
)

func (c *Catalog) executeAnalyzeSocialProfile(ctx context.Context, sess contractx.SessionContext, args map[string]any) contractx.ToolResult {
	profileURL := strings.TrimSpace(stringArg(args, "profile_url"))
	if profileURL == "" {
		return errorResult(ToolAnalyzeSocialProfile, "profile_url is required")
	}
	platform, username := detectProfile(profileURL)
	if username == "" {
		return errorResult(ToolAnalyzeSocialProfile, fmt.Sprintf("could not extract a username from %q", profileURL))
	}

	if !boolArg(args, "force_refresh") {
		if rec, err := c.deps.Store.LatestAnalysisFor(ctx, sess.Key, username); err == nil {
			if c.now().Sub(rec.SavedAt) <= defaultAnalysisMaxAge {
				return okResult(ToolAnalyzeSocialProfile, analysisSummary(rec.Doc, rec.Path, true))
			}
		}
	}

	if c.deps.Scraper == nil || !c.deps.Scraper.Configured() {
		return errorResult(ToolAnalyzeSocialProfile, "profile scraping is not configured; set an Apify token")
	}
	if c.deps.LLM == nil {
		return errorResult(ToolAnalyzeSocialProfile, "language model is not configured")
	}

	items, err := c.deps.Scraper.RunFirst(ctx, apify.ProfileCalls(platform, username, profileURL, maxAnalyzedPosts))
	if err != nil {
		return errorResult(ToolAnalyzeSocialProfile, fmt.Sprintf("profile scrape failed: %v", err))
	}
	profile := items[0]
	posts := extractPosts(items)

	parts := c.buildVisionParts(ctx, platform, username, profile, posts)

	content, err := c.deps.LLM.CompleteVision(ctx, llmx.VisionRequest{
		System:      c.deps.Prompts.ArchetypeRubric,
		Parts:       parts,
		Temperature: 0.5,
	})
	if err != nil {
		return errorResult(ToolAnalyzeSocialProfile, fmt.Sprintf("profile analysis failed: %v", err))
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(llmx.ExtractJSON(content)), &doc); err != nil {
		return errorResult(ToolAnalyzeSocialProfile, "profile analysis returned malformed output")
	}

	doc["profile"] = map[string]any{
		"username":       username,
		"url":            profileURL,
		"platform":       platform,
		"followersCount": profileFollowers(profile),
	}

	path, err := c.deps.Store.SaveAnalysis(ctx, sess.Key, username, doc)
	if err != nil {
		return errorResult(ToolAnalyzeSocialProfile, fmt.Sprintf("persist analysis: %v", err))
	}

	c.syncProfileToCRM(ctx, sess, platform, username, profileFollowers(profile))

	return okResult(ToolAnalyzeSocialProfile, analysisSummary(doc, path, false))
}

func detectProfile(profileURL string) (platform, username string) {
	platform = "instagram"
	if strings.Contains(strings.ToLower(profileURL), "tiktok") {
		platform = "tiktok"
	}

	parsed, err := url.Parse(profileURL)
	if err != nil {
		return platform, ""
	}
	for _, segment := range strings.Split(parsed.Path, "/") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		segment = strings.TrimPrefix(segment, "@")
		if segment != "" {
			return platform, segment
		}
	}
	return platform, ""
}

func extractPosts(items []map[string]any) []map[string]any {
	var posts []map[string]any
	appendPost := func(v any) {
		if m, ok := v.(map[string]any); ok && len(posts) < maxAnalyzedPosts {
			posts = append(posts, m)
		}
	}

	for _, key := range []string{"latestPosts", "posts", "items"} {
		if raw, ok := items[0][key].([]any); ok {
			for _, v := range raw {
				appendPost(v)
			}
		}
	}
	// Some actors emit each post as its own dataset item after the profile.
	if len(posts) == 0 && len(items) > 1 {
		for _, item := range items[1:] {
			if len(posts) >= maxAnalyzedPosts {
				break
			}
			posts = append(posts, item)
		}
	}
	return posts
}

func (c *Catalog) buildVisionParts(ctx context.Context, platform, username string, profile map[string]any, posts []map[string]any) []llmx.Part {
	var summary strings.Builder
	fmt.Fprintf(&summary, "Platform: %s\nUsername: @%s\nFollowers: %d\n", platform, username, profileFollowers(profile))
	if bio, ok := profile["biography"].(string); ok && bio != "" {
		fmt.Fprintf(&summary, "Bio: %s\n", bio)
	}

	parts := []llmx.Part{}
	for i, post := range posts {
		if caption, ok := post["caption"].(string); ok && caption != "" {
			fmt.Fprintf(&summary, "\nPost %d caption: %s\n", i+1, caption)
		}
		for _, comment := range c.postComments(ctx, platform, post) {
			fmt.Fprintf(&summary, "Post %d comment: %s\n", i+1, comment)
		}
		if imageURL := postImageURL(post); imageURL != "" {
			parts = append(parts, llmx.Part{ImageURL: c.asDataURL(ctx, imageURL)})
		}
	}

	return append([]llmx.Part{{Text: summary.String()}}, parts...)
}

// postComments fetches up to maxCommentsPerPost comments; a failed comment
// scrape degrades to none.
func (c *Catalog) postComments(ctx context.Context, platform string, post map[string]any) []string {
	postURL, _ := post["url"].(string)
	if postURL == "" {
		return nil
	}
	items, err := c.deps.Scraper.RunFirst(ctx, apify.CommentCalls(platform, postURL, maxCommentsPerPost))
	if err != nil {
		log.Debug().Err(err).Str("post", postURL).Msg("comment scrape failed, continuing without")
		return nil
	}

	var out []string
	for _, item := range items {
		for _, key := range []string{"text", "comment"} {
			if s, ok := item[key].(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
				break
			}
		}
		if len(out) >= maxCommentsPerPost {
			break
		}
	}
	return out
}

func postImageURL(post map[string]any) string {
	for _, key := range []string{"displayUrl", "imageUrl", "coverUrl", "cover", "thumbnailUrl"} {
		if s, ok := post[key].(string); ok && strings.HasPrefix(s, "http") {
			return s
		}
	}
	if images, ok := post["images"].([]any); ok && len(images) > 0 {
		if s, ok := images[0].(string); ok && strings.HasPrefix(s, "http") {
			return s
		}
	}
	return ""
}

// asDataURL inlines a post image so the vision call does not depend on
// CDN URLs that expire or require cookies. Falls back to the remote URL.
func (c *Catalog) asDataURL(ctx context.Context, imageURL string) string {
	if c.deps.Images == nil {
		return imageURL
	}
	data, err := c.deps.Images.Download(ctx, imageURL)
	if err != nil || len(data) == 0 {
		return imageURL
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}

func profileFollowers(profile map[string]any) int {
	for _, key := range []string{"followersCount", "followers_count", "followers", "fans"} {
		if f, ok := profile[key].(float64); ok && f > 0 {
			return int(f)
		}
	}
	return 0
}

func (c *Catalog) syncProfileToCRM(ctx context.Context, sess contractx.SessionContext, platform, username string, followers int) {
	if c.deps.CRM == nil || !c.deps.CRM.Configured() {
		return
	}

	fields := c.deps.CRM.Fields()
	handleField, followersField := fields.IGHandle, fields.IGFollowers
	if platform == "tiktok" {
		handleField, followersField = fields.TikTokHandle, fields.TikTokFollowers
	}

	contact, err := c.sessionContact(ctx, sess, []highlevel.CustomFieldValue{
		{ID: handleField, Value: "@" + username},
		{ID: followersField, Value: followers},
	})
	if err != nil {
		log.Warn().Err(err).Str("session", sess.Key).Msg("crm profile sync failed")
		return
	}
	log.Debug().Str("contact", contact.ID).Str("handle", username).Msg("crm profile synced")
}

// sessionContact resolves the CRM contact for this session, creating and
// caching one on first use.
func (c *Catalog) sessionContact(ctx context.Context, sess contractx.SessionContext, fields []highlevel.CustomFieldValue) (*highlevel.Contact, error) {
	if binding, err := c.deps.Store.LoadContact(ctx, sess.Key); err == nil {
		if len(fields) > 0 {
			if err := c.deps.CRM.UpdateContactFields(ctx, binding.ID, fields); err != nil {
				return nil, err
			}
		}
		return &highlevel.Contact{ID: binding.ID, Email: binding.Email}, nil
	}

	contact, err := c.deps.CRM.UpsertContact(ctx, highlevel.UpsertContactInput{
		Email:        highlevel.SessionEmail(sess.Key),
		Tags:         []string{"brandbox"},
		CustomFields: fields,
	})
	if err != nil {
		return nil, err
	}
	binding := statex.ContactBinding{ID: contact.ID, Email: contact.Email}
	if err := c.deps.Store.SaveContact(ctx, sess.Key, binding); err != nil {
		log.Warn().Err(err).Str("session", sess.Key).Msg("contact binding save failed")
	}
	return contact, nil
}

func analysisSummary(doc map[string]any, path string, cached bool) map[string]any {
	out := map[string]any{
		"cache_path": path,
		"cached":     cached,
	}
	if archetype, ok := doc["inferred_archetype"].(map[string]any); ok {
		out["archetype"] = archetype
	}
	if types, ok := doc["recommended_product_types"]; ok {
		out["recommended_product_types"] = types
	}
	if angle, ok := doc["marketing_angle"]; ok {
		out["marketing_angle"] = angle
	}
	if guidance, ok := doc["brand_design_guidance"]; ok {
		out["brand_design_guidance"] = guidance
	}
	if profile, ok := doc["profile"]; ok {
		out["profile"] = profile
	}
	return out
}
