package highlevel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// UploadMedia pushes an image file into the CRM media library and returns
// its hosted URL. The v2 API has shipped under several paths; the legacy v1
// endpoint is the final fallback.
func (c *Client) UploadMedia(ctx context.Context, filename string, data []byte) (string, error) {
	if err := c.requireCredentials(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("media payload is empty")
	}

	targets := []string{
		c.baseURL + "/media/upload",
		c.baseURL + "/media",
		c.baseURL + "/locations/" + c.locationID + "/media",
		c.baseURL + "/locations/" + c.locationID + "/media/upload",
	}
	if c.legacyBaseURL != "" {
		targets = append(targets, c.legacyBaseURL+"/media")
	}

	var attempts []error
	for _, target := range targets {
		mediaURL, err := c.uploadMediaOnce(ctx, target, filename, data)
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", target, err))
			continue
		}
		if mediaURL != "" {
			return mediaURL, nil
		}
		attempts = append(attempts, fmt.Errorf("%s: response has no media url", target))
	}
	return "", fmt.Errorf("upload media: %w", errors.Join(attempts...))
}

func (c *Client) uploadMediaOnce(ctx context.Context, target, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.WriteField("locationId", c.locationID); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", target, &buf)
	if err != nil {
		return "", err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{Status: resp.StatusCode, Body: excerpt(body)}
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("decode media response: %w", err)
	}
	return mediaURLFrom(doc), nil
}

func mediaURLFrom(doc map[string]any) string {
	for _, key := range []string{"fileUrl", "url", "secureUrl"} {
		if s, ok := doc[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	if media, ok := doc["media"].(map[string]any); ok {
		if s, ok := media["url"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
