package apify

import (
	"bytes"
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
	Token   string        `envconfig:"API_TOKEN" split_words:"true"`
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.apify.com"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"120s"`
}

// Client runs Apify actors synchronously and returns their dataset items.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("apify base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid apify base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

// ActorCall is one (actor, input) candidate for a scrape.
type ActorCall struct {
	Actor string
	Input map[string]any
}

// ProfileCalls returns the actor candidates for scraping a profile with
// its recent posts. Different actors have worked at different times; they
// are tried in order until one returns items.
func ProfileCalls(platform, username, profileURL string, postLimit int) []ActorCall {
	switch platform {
	case "tiktok":
		return []ActorCall{
			{
				Actor: "clockworks/tiktok-scraper",
				Input: map[string]any{
					"profiles":                []string{username},
					"resultsPerPage":          postLimit,
					"shouldDownloadVideos":    false,
					"shouldDownloadCovers":    false,
					"shouldDownloadSubtitles": false,
				},
			},
			{
				Actor: "clockworks/tiktok-profile-scraper",
				Input: map[string]any{
					"profiles":       []string{username},
					"resultsPerPage": postLimit,
				},
			},
		}
	default:
		return []ActorCall{
			{
				Actor: "apify/instagram-profile-scraper",
				Input: map[string]any{
					"usernames": []string{username},
				},
			},
			{
				Actor: "apify/instagram-scraper",
				Input: map[string]any{
					"directUrls":   []string{profileURL},
					"resultsType":  "details",
					"resultsLimit": postLimit,
				},
			},
			{
				Actor: "apify/instagram-api-scraper",
				Input: map[string]any{
					"usernames":    []string{username},
					"resultsLimit": postLimit,
				},
			},
		}
	}
}

// CommentCalls returns actor candidates for fetching comments on one post.
func CommentCalls(platform, postURL string, limit int) []ActorCall {
	switch platform {
	case "tiktok":
		return []ActorCall{
			{
				Actor: "clockworks/tiktok-comments-scraper",
				Input: map[string]any{
					"postURLs":        []string{postURL},
					"commentsPerPost": limit,
				},
			},
		}
	default:
		return []ActorCall{
			{
				Actor: "apify/instagram-comment-scraper",
				Input: map[string]any{
					"directUrls":   []string{postURL},
					"resultsLimit": limit,
				},
			},
		}
	}
}

// RunFirst executes calls in order and returns the first non-empty item set.
func (c *Client) RunFirst(ctx context.Context, calls []ActorCall) ([]map[string]any, error) {
	if !c.Configured() {
		return nil, errors.New("apify token is not configured")
	}
	if len(calls) == 0 {
		return nil, errors.New("no actor calls supplied")
	}

	var attempts []error
	for _, call := range calls {
		items, err := c.runSync(ctx, call)
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", call.Actor, err))
			continue
		}
		if len(items) > 0 {
			return items, nil
		}
		attempts = append(attempts, fmt.Errorf("%s: empty dataset", call.Actor))
	}
	return nil, fmt.Errorf("all scrape actors failed: %w", errors.Join(attempts...))
}

func (c *Client) runSync(ctx context.Context, call ActorCall) ([]map[string]any, error) {
	actorID := strings.ReplaceAll(call.Actor, "/", "~")
	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		c.baseURL, actorID, url.QueryEscape(c.token))

	body, err := json.Marshal(call.Input)
	if err != nil {
		return nil, fmt.Errorf("marshal actor input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > 300 {
			msg = msg[:300] + "..."
		}
		return nil, fmt.Errorf("actor status %d: %s", resp.StatusCode, msg)
	}

	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode dataset items: %w", err)
	}
	return items, nil
}
