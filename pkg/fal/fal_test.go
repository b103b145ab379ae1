package fal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testServer(t *testing.T, capture *map[string]any) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Key secret" {
			t.Errorf("authorization header = %q", got)
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("decode payload: %v", err)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"images": []map[string]any{{"url": "https://cdn.fal.ai/out.png", "content_type": "image/png"}},
		})
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Key: "secret", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGenerateClampsImageCount(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	client := testServer(t, &payload)

	if _, err := client.Generate(context.Background(), "a logo", 9, ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if payload["num_images"] != float64(maxImagesPerCall) {
		t.Fatalf("num_images = %v, want %d", payload["num_images"], maxImagesPerCall)
	}
	if payload["output_format"] != "png" {
		t.Fatalf("output_format = %v, want png default", payload["output_format"])
	}
}

func TestEditSendsSourceImages(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	client := testServer(t, &payload)

	images, err := client.Edit(context.Background(), "make it blue", []string{"data:image/png;base64,AAAA"}, "png")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if images[0].URL != "https://cdn.fal.ai/out.png" {
		t.Fatalf("image url = %s", images[0].URL)
	}
	urls := payload["image_urls"].([]any)
	if len(urls) != 1 || urls[0] != "data:image/png;base64,AAAA" {
		t.Fatalf("image_urls = %v", urls)
	}
	if payload["num_images"] != float64(1) {
		t.Fatalf("edit num_images = %v, want 1", payload["num_images"])
	}
}

func TestEditRequiresSources(t *testing.T) {
	t.Parallel()

	client := testServer(t, nil)
	if _, err := client.Edit(context.Background(), "x", nil, ""); err == nil {
		t.Fatal("expected error without source images")
	}
}

func TestInvokeRequiresKey(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Configured() {
		t.Fatal("client without a key reports configured")
	}
	if _, err := client.Generate(context.Background(), "x", 1, ""); err == nil {
		t.Fatal("expected error without a key")
	}
}
