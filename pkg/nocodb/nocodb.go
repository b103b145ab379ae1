package nocodb

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
	BaseURL  string        `envconfig:"BASE_URL" split_words:"true"`
	APIToken string        `envconfig:"API_TOKEN" split_words:"true"`
	TableID  string        `envconfig:"TABLE_ID" split_words:"true"`
	PageSize int           `envconfig:"PAGE_SIZE" split_words:"true" default:"1000"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Client reads product records from one NocoDB table.
type Client struct {
	baseURL    string
	token      string
	tableID    string
	pageSize   int
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("nocodb base url is required")
	}
	parsed, err := url.ParseRequestURI(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("nocodb base url must be http(s), got %q", cfg.BaseURL)
	}

	tableID := strings.TrimSpace(cfg.TableID)
	if tableID == "" {
		return nil, errors.New("nocodb table id is required")
	}
	// A full URL pasted into the table id is a recurring configuration
	// mistake; reject it early with a usable message.
	if strings.Contains(tableID, "/") || strings.Contains(tableID, "://") {
		return nil, fmt.Errorf("nocodb table id %q looks like a URL; expected a bare table id", tableID)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:  baseURL,
		token:    strings.TrimSpace(cfg.APIToken),
		tableID:  tableID,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Record is one table row, field names preserved as stored.
type Record map[string]any

// ListRecords fetches every row of the configured table.
func (c *Client) ListRecords(ctx context.Context) ([]Record, error) {
	var out []Record
	offset := 0
	for {
		page, more, err := c.listPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if !more || len(page) == 0 {
			return out, nil
		}
		offset += len(page)
	}
}

func (c *Client) listPage(ctx context.Context, offset int) ([]Record, bool, error) {
	endpoint := fmt.Sprintf("%s/api/v2/tables/%s/records?limit=%d&offset=%d",
		c.baseURL, c.tableID, c.pageSize, offset)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("xc-token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, false, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("nocodb status %s: %s", strconv.Itoa(resp.StatusCode), strings.TrimSpace(string(body[:min(len(body), 300)])))
	}

	var payload struct {
		List     []Record `json:"list"`
		PageInfo struct {
			IsLastPage bool `json:"isLastPage"`
		} `json:"pageInfo"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, fmt.Errorf("decode nocodb response: %w", err)
	}
	return payload.List, !payload.PageInfo.IsLastPage, nil
}
