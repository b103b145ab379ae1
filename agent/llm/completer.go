package llm

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	openaix "github.com/meetkeeps15/brandbox-agent/pkg/openai"
)

// Request is one plain text completion.
type Request struct {
	Model       string
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Part is one element of a vision request: either text or an image URL
// (usually a data URI built from a downloaded post image).
type Part struct {
	Text     string
	ImageURL string
}

// VisionRequest is one multimodal completion.
type VisionRequest struct {
	Model       string
	System      string
	Parts       []Part
	Temperature float32
}

// Completer issues direct LLM calls outside the agent runtime graphs:
// vision analysis, desire parsing, name generation, design summaries.
type Completer struct {
	client       *openaisdk.Client
	visionModel  einomodel.BaseChatModel
	defaultModel string
}

func NewCompleter(ctx context.Context, cfg Config) (*Completer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := openaix.NewClient(cfg.OpenAIFor("utility"))
	if client == nil {
		return nil, fmt.Errorf("%w: create openai client", contractx.ErrModelInvoke)
	}

	visionCfg := cfg.OpenAIFor("vision")
	visionModel, err := visionCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create vision model: %v", contractx.ErrModelInvoke, err)
	}

	return &Completer{
		client:       client,
		visionModel:  visionModel,
		defaultModel: strings.TrimSpace(cfg.Model),
	}, nil
}

func (c *Completer) Complete(ctx context.Context, req Request) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.defaultModel
	}

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openaisdk.SystemMessage(req.System))
	}
	messages = append(messages, openaisdk.UserMessage(req.User))

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature >= 0 {
		params.Temperature = openaisdk.Float(float64(req.Temperature))
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion returned no choices", contractx.ErrModelInvoke)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Completer) CompleteVision(ctx context.Context, req VisionRequest) (string, error) {
	if len(req.Parts) == 0 {
		return "", fmt.Errorf("%w: vision request has no parts", contractx.ErrValidation)
	}

	parts := make([]schema.ChatMessagePart, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.ImageURL != "" {
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL: p.ImageURL,
				},
			})
			continue
		}
		if strings.TrimSpace(p.Text) != "" {
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeText,
				Text: p.Text,
			})
		}
	}

	messages := make([]*schema.Message, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, schema.SystemMessage(req.System))
	}
	messages = append(messages, &schema.Message{
		Role:         schema.User,
		MultiContent: parts,
	})

	msg, err := c.visionModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: vision completion: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: vision completion is empty", contractx.ErrSchemaViolation)
	}
	return msg.Content, nil
}

// ExtractJSON strips markdown fences and surrounding prose from a model
// response, leaving the outermost JSON object.
func ExtractJSON(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
