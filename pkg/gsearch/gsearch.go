package gsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIKey   string        `envconfig:"GOOGLE_API_KEY"`
	EngineID string        `envconfig:"SEARCH_ENGINE_ID"`
	BaseURL  string        `envconfig:"GOOGLE_SEARCH_BASE_URL" default:"https://www.googleapis.com/customsearch/v1"`
	Timeout  time.Duration `envconfig:"GOOGLE_SEARCH_TIMEOUT" default:"20s"`
}

// Client wraps the Google Custom Search JSON API.
type Client struct {
	baseURL    string
	apiKey     string
	engineID   string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("google search base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		baseURL:  baseURL,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		engineID: strings.TrimSpace(cfg.EngineID),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.engineID != ""
}

type Item struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type Result struct {
	Items        []Item
	TotalResults int64
}

// SearchExact runs an exact-phrase query for the given term.
func (c *Client) SearchExact(ctx context.Context, term string, num int) (*Result, error) {
	if !c.Configured() {
		return nil, errors.New("google search is not configured")
	}
	if num <= 0 || num > 10 {
		num = 10
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", fmt.Sprintf("%q", strings.TrimSpace(term)))
	q.Set("num", strconv.Itoa(num))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

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
		return nil, fmt.Errorf("google search status %d", resp.StatusCode)
	}

	var decoded struct {
		Items             []Item `json:"items"`
		SearchInformation struct {
			TotalResults string `json:"totalResults"`
		} `json:"searchInformation"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	total, _ := strconv.ParseInt(decoded.SearchInformation.TotalResults, 10, 64)
	return &Result{Items: decoded.Items, TotalResults: total}, nil
}
