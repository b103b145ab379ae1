package textrazor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	APIKey   string        `envconfig:"API_KEY" split_words:"true"`
	BaseURL  string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.textrazor.com"`
	MinScore float64       `envconfig:"MIN_SCORE" split_words:"true" default:"0.7"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"20s"`
}

// Client extracts topics from free text. The service is optional; callers
// treat an unconfigured client as "no topics", never as a failure.
type Client struct {
	baseURL    string
	apiKey     string
	minScore   float64
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("textrazor base url is required")
	}

	minScore := cfg.MinScore
	if minScore <= 0 {
		minScore = 0.7
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		baseURL:  baseURL,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		minScore: minScore,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Topics returns topic labels scoring at or above the configured minimum.
func (c *Client) Topics(ctx context.Context, text string) ([]string, error) {
	if !c.Configured() {
		return nil, errors.New("textrazor api key is not configured")
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("extractors", "topics")

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-textrazor-key", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("textrazor status %d", resp.StatusCode)
	}

	var decoded struct {
		Response struct {
			Topics []struct {
				Label string  `json:"label"`
				Score float64 `json:"score"`
			} `json:"topics"`
		} `json:"response"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode textrazor response: %w", err)
	}

	var out []string
	for _, topic := range decoded.Response.Topics {
		if topic.Score >= c.minScore && topic.Label != "" {
			out = append(out, topic.Label)
		}
	}
	return out, nil
}
