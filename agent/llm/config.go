package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	openaix "github.com/meetkeeps15/brandbox-agent/pkg/openai"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o-mini"`
	VisionModel        string        `envconfig:"VISION_MODEL" split_words:"true" default:"gpt-4o-mini"`
	AssistantModel     string        `envconfig:"ASSISTANT_MODEL" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openai api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenAIFor returns the provider config for one role. The assistant model
// drives the tool-calling runtime and may differ from the utility model
// used for parsing and summaries.
func (c Config) OpenAIFor(role string) openaix.Config {
	modelName := strings.TrimSpace(c.Model)
	if role == "assistant" {
		if v := strings.TrimSpace(c.AssistantModel); v != "" {
			modelName = v
		}
	}
	if role == "vision" {
		if v := strings.TrimSpace(c.VisionModel); v != "" {
			modelName = v
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openaix.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		VisionModel:        strings.TrimSpace(c.VisionModel),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
	}
}
