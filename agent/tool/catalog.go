package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	llmx "github.com/meetkeeps15/brandbox-agent/agent/llm"
	promptx "github.com/meetkeeps15/brandbox-agent/agent/prompt"
	statex "github.com/meetkeeps15/brandbox-agent/agent/state"
	"github.com/meetkeeps15/brandbox-agent/pkg/apify"
	"github.com/meetkeeps15/brandbox-agent/pkg/domaincheck"
	"github.com/meetkeeps15/brandbox-agent/pkg/fal"
	"github.com/meetkeeps15/brandbox-agent/pkg/gsearch"
	"github.com/meetkeeps15/brandbox-agent/pkg/highlevel"
	"github.com/meetkeeps15/brandbox-agent/pkg/nocodb"
	"github.com/meetkeeps15/brandbox-agent/pkg/textrazor"
)

const (
	ToolCheckTime            = "check_time"
	ToolValidateBrand        = "validate_brand"
	ToolGenerateBrandNames   = "generate_brand_names"
	ToolAnalyzeSocialProfile = "analyze_social_profile"
	ToolRenderPalette        = "render_palette"
	ToolGenerateLogo         = "generate_logo"
	ToolEditLogo             = "edit_logo"
	ToolGenerateMockup       = "generate_product_mockup"
	ToolEditMockup           = "edit_product_mockup"
	ToolRetrieveProducts     = "retrieve_products"
	ToolCalculateProfit      = "calculate_profit"
	ToolCalendarAvailability = "calendar_availability"
	ToolBookAppointment      = "book_appointment"
	ToolSaveSelectedProducts = "save_selected_products"
)

// Executor runs one tool call within a session. Tool failures come back as
// error-shaped results for the model to relay; the error return is reserved
// for broken invariants (nil catalog, unknown tool wiring bugs).
type Executor func(ctx context.Context, sess contractx.SessionContext, tool string, args map[string]any) (contractx.ToolResult, error)

// Completer is the slice of the LLM surface the tools need.
type Completer interface {
	Complete(ctx context.Context, req llmx.Request) (string, error)
	CompleteVision(ctx context.Context, req llmx.VisionRequest) (string, error)
}

// ProductSource lists catalog rows.
type ProductSource interface {
	ListRecords(ctx context.Context) ([]nocodb.Record, error)
}

// ImageClient generates and edits images.
type ImageClient interface {
	Generate(ctx context.Context, prompt string, numImages int, format string) ([]fal.Image, error)
	Edit(ctx context.Context, prompt string, imageDataURIs []string, format string) ([]fal.Image, error)
	Download(ctx context.Context, imageURL string) ([]byte, error)
	Configured() bool
}

// Scraper runs profile and comment scrapes.
type Scraper interface {
	RunFirst(ctx context.Context, calls []apify.ActorCall) ([]map[string]any, error)
	Configured() bool
}

// Deps are the external collaborators injected into the catalog.
// Optional services may be nil; the affected tools degrade or refuse
// with an instructive message instead of crashing.
type Deps struct {
	Store    statex.Store
	LLM      Completer
	CRM      *highlevel.Client
	Products ProductSource
	Images   ImageClient
	Scraper  Scraper
	Search   *gsearch.Client
	Topics   *textrazor.Client
	Domains  domaincheck.Checker
	Prompts  promptx.PromptSet

	OutputsDir string
	Timezone   string
	Now        func() time.Time
}

// Catalog owns the tool set exposed to the agent runtime.
type Catalog struct {
	deps Deps
	now  func() time.Time
}

func NewCatalog(deps Deps) (*Catalog, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: session store is required", contractx.ErrValidation)
	}
	if deps.OutputsDir == "" {
		deps.OutputsDir = "outputs"
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Catalog{deps: deps, now: now}, nil
}

// Build returns the tool definitions together with their executor.
func (c *Catalog) Build() ([]*schema.ToolInfo, Executor) {
	return c.Infos(), c.Executor()
}

func (c *Catalog) Executor() Executor {
	return func(ctx context.Context, sess contractx.SessionContext, tool string, args map[string]any) (contractx.ToolResult, error) {
		if c == nil {
			return contractx.ToolResult{}, fmt.Errorf("%w: tool catalog is nil", contractx.ErrValidation)
		}
		started := c.now()
		result := c.dispatch(ctx, sess, tool, args)
		log.Debug().
			Str("tool", tool).
			Str("session", sess.Key).
			Dur("elapsed", c.now().Sub(started)).
			Bool("errored", result.Error != "").
			Msg("tool executed")
		return result, nil
	}
}

func (c *Catalog) dispatch(ctx context.Context, sess contractx.SessionContext, tool string, args map[string]any) contractx.ToolResult {
	switch tool {
	case ToolCheckTime:
		return c.executeCheckTime(sess, args)
	case ToolValidateBrand:
		return c.executeValidateBrand(ctx, args)
	case ToolGenerateBrandNames:
		return c.executeGenerateBrandNames(ctx, sess, args)
	case ToolAnalyzeSocialProfile:
		return c.executeAnalyzeSocialProfile(ctx, sess, args)
	case ToolRenderPalette:
		return c.executeRenderPalette(ctx, sess, args)
	case ToolGenerateLogo:
		return c.executeGenerateLogo(ctx, sess, args)
	case ToolEditLogo:
		return c.executeEditLogo(ctx, sess, args)
	case ToolGenerateMockup:
		return c.executeMockup(ctx, sess, args, false)
	case ToolEditMockup:
		return c.executeMockup(ctx, sess, args, true)
	case ToolRetrieveProducts:
		return c.executeRetrieveProducts(ctx, sess, args)
	case ToolCalculateProfit:
		return c.executeCalculateProfit(ctx, sess, args)
	case ToolCalendarAvailability:
		return c.executeCalendarAvailability(ctx, sess, args)
	case ToolBookAppointment:
		return c.executeBookAppointment(ctx, sess, args)
	case ToolSaveSelectedProducts:
		return c.executeSaveSelectedProducts(ctx, sess, args)
	default:
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is not registered", tool),
		}
	}
}

func errorResult(tool, message string) contractx.ToolResult {
	return contractx.ToolResult{
		Tool: tool,
		Result: map[string]any{
			"status":  "error",
			"message": message,
		},
		Error: message,
	}
}

func okResult(tool string, payload map[string]any) contractx.ToolResult {
	if payload == nil {
		payload = map[string]any{}
	}
	if _, ok := payload["status"]; !ok {
		payload["status"] = "success"
	}
	return contractx.ToolResult{Tool: tool, Result: payload}
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}

func floatArg(args map[string]any, key string) (float64, bool) {
	if args == nil {
		return 0, false
	}
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func intArg(args map[string]any, key string) (int, bool) {
	f, ok := floatArg(args, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func boolArg(args map[string]any, key string) bool {
	if args == nil {
		return false
	}
	b, _ := args[key].(bool)
	return b
}

func stringSliceArg(args map[string]any, key string) []string {
	if args == nil {
		return nil
	}
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
