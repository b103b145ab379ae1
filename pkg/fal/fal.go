package fal

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

const (
	defaultBaseURL = "https://fal.run"
	generateModel  = "fal-ai/nano-banana"
	editModel      = "fal-ai/nano-banana/edit"

	maxImagesPerCall = 3
)

type Config struct {
	Key     string        `envconfig:"KEY"`
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://fal.run"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"300s"`
}

// Client wraps the fal.ai synchronous image endpoints.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid fal base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		key:     strings.TrimSpace(cfg.Key),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) Configured() bool {
	return c != nil && c.key != ""
}

// Image is one generated output.
type Image struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// Generate produces numImages images (1..3) from a text prompt.
func (c *Client) Generate(ctx context.Context, prompt string, numImages int, format string) ([]Image, error) {
	if numImages < 1 {
		numImages = 1
	}
	if numImages > maxImagesPerCall {
		numImages = maxImagesPerCall
	}
	if format == "" {
		format = "png"
	}

	payload := map[string]any{
		"prompt":        prompt,
		"num_images":    numImages,
		"output_format": format,
	}
	return c.invoke(ctx, generateModel, payload)
}

// Edit applies a change request to one or more source images supplied as
// data URIs. The endpoint returns a single edited image.
func (c *Client) Edit(ctx context.Context, prompt string, imageDataURIs []string, format string) ([]Image, error) {
	if len(imageDataURIs) == 0 {
		return nil, errors.New("edit requires at least one source image")
	}
	if format == "" {
		format = "png"
	}

	payload := map[string]any{
		"prompt":        prompt,
		"image_urls":    imageDataURIs,
		"num_images":    1,
		"output_format": format,
	}
	return c.invoke(ctx, editModel, payload)
}

func (c *Client) invoke(ctx context.Context, model string, payload map[string]any) ([]Image, error) {
	if !c.Configured() {
		return nil, errors.New("fal key is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal fal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/"+model, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Key "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > 300 {
			msg = msg[:300] + "..."
		}
		return nil, fmt.Errorf("fal %s status %d: %s", model, resp.StatusCode, msg)
	}

	var decoded struct {
		Images []Image `json:"images"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode fal response: %w", err)
	}
	if len(decoded.Images) == 0 {
		return nil, errors.New("fal returned no images")
	}
	return decoded.Images, nil
}

// Download fetches a generated image by URL.
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 32<<20))
}
