package nocodb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  Config
	}{
		{"empty base url", Config{TableID: "tbl1"}},
		{"bad scheme", Config{BaseURL: "ftp://db.example.com", TableID: "tbl1"}},
		{"missing table", Config{BaseURL: "https://db.example.com"}},
		{"url pasted as table id", Config{BaseURL: "https://db.example.com", TableID: "https://db.example.com/tbl1"}},
	}
	for _, tc := range cases {
		if _, err := NewClient(tc.cfg); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestListRecordsPaginates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("xc-token"); got != "tok" {
			t.Errorf("xc-token = %q", got)
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		page := map[string]any{
			"list": []map[string]any{
				{"SKU": "sku-" + strconv.Itoa(offset)},
				{"SKU": "sku-" + strconv.Itoa(offset+1)},
			},
			"pageInfo": map[string]any{"isLastPage": offset >= 2},
		}
		json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, APIToken: "tok", TableID: "tbl1", PageSize: 2})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	records, err := client.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4 across two pages", len(records))
	}
	if records[2]["SKU"] != "sku-2" {
		t.Fatalf("second page starts with %v", records[2]["SKU"])
	}
}

func TestListRecordsSurfacesStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "table not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, TableID: "tbl1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.ListRecords(context.Background()); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
