package highlevel

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

const apiVersion = "2021-07-28"

type Config struct {
	AccessToken   string        `envconfig:"ACCESS_TOKEN" split_words:"true"`
	LocationID    string        `envconfig:"LOCATION_ID" split_words:"true"`
	BaseURL       string        `envconfig:"BASE_URL" split_words:"true" default:"https://services.leadconnectorhq.com"`
	LegacyBaseURL string        `envconfig:"LEGACY_BASE_URL" split_words:"true" default:"https://rest.gohighlevel.com/v1"`
	CalendarID    string        `envconfig:"CALENDAR_ID" split_words:"true" default:"UL9SNgWU3gjlVPKyzTMv"`
	Timezone      string        `envconfig:"TIMEZONE" split_words:"true" default:"UTC"`
	Timeout       time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// FieldIDs carries CRM custom-field ids, overridable per deployment.
// The defaults match the location this project was built against.
type FieldIDs struct {
	IGHandle         string `envconfig:"HL_CF_IG_HANDLE" default:"qeGZxU9HDjLh4fqox8P0"`
	IGFollowers      string `envconfig:"HL_CF_IG_FOLLOWERS" default:"TnOg3Hx3oQYvZ8XFkdzF"`
	TikTokHandle     string `envconfig:"HL_CF_TIKTOK_HANDLE" default:"jGSnwEscvSll6T777l8G"`
	TikTokFollowers  string `envconfig:"HL_CF_TIKTOK_FOLLOWERS" default:"R8gkuL48aUJxnC2INpHy"`
	BrandName        string `envconfig:"HL_CF_BRAND_NAME" default:"THAfasnMIWf5rAPC4YJI"`
	LogoURL          string `envconfig:"HL_CF_LOGO_URL" default:"8oJXwurKogmEUNfsByPE"`
	ProductMockupURL string `envconfig:"HL_CF_PRODUCT_MOCKUP_URL" default:"vrZmKfqO3ntKXYFpQKji"`
	ProductSKUs      string `envconfig:"HL_CF_PRODUCT_SKUS"`
}

type Client struct {
	baseURL       string
	legacyBaseURL string
	token         string
	locationID    string
	calendarID    string
	timezone      string
	fields        FieldIDs
	httpClient    *http.Client
}

func NewClient(cfg Config, fields FieldIDs) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("highlevel base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid highlevel base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:       baseURL,
		legacyBaseURL: strings.TrimRight(strings.TrimSpace(cfg.LegacyBaseURL), "/"),
		token:         strings.TrimSpace(cfg.AccessToken),
		locationID:    strings.TrimSpace(cfg.LocationID),
		calendarID:    strings.TrimSpace(cfg.CalendarID),
		timezone:      strings.TrimSpace(cfg.Timezone),
		fields:        fields,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func MustNew(cfg Config, fields FieldIDs) *Client {
	client, err := NewClient(cfg, fields)
	if err != nil {
		panic(err)
	}
	return client
}

// Configured reports whether the client holds enough credentials to talk
// to the CRM. Tools degrade gracefully when it returns false.
func (c *Client) Configured() bool {
	return c != nil && c.token != "" && c.locationID != ""
}

func (c *Client) Fields() FieldIDs { return c.fields }

func (c *Client) LocationID() string { return c.locationID }

func (c *Client) DefaultCalendarID() string { return c.calendarID }

func (c *Client) DefaultTimezone() string { return c.timezone }

func (c *Client) requireCredentials() error {
	if c == nil || c.token == "" {
		return errors.New("highlevel access token is not configured")
	}
	if c.locationID == "" {
		return errors.New("highlevel location id is not configured")
	}
	return nil
}

// doJSON issues one JSON request and decodes the response body. Non-2xx
// responses are returned as errors carrying the status and a body excerpt.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: excerpt(data)}
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	if c.locationID != "" {
		req.Header.Set("LocationId", c.locationID)
	}
}

// APIError is a non-2xx CRM response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("highlevel api status %d: %s", e.Status, e.Body)
}

func excerpt(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
