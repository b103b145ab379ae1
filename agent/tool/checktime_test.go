package tool

import (
	"context"
	"testing"
	"time"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	statex "github.com/meetkeeps15/brandbox-agent/agent/state"
)

func testCatalog(t *testing.T, mutate func(*Deps)) *Catalog {
	t.Helper()

	deps := Deps{
		Store: statex.MustNewFileStore(t.TempDir()),
		Now: func() time.Time {
			return time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
		},
	}
	if mutate != nil {
		mutate(&deps)
	}
	catalog, err := NewCatalog(deps)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return catalog
}

func TestCheckTimeUTC(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t, nil)
	sess := contractx.SessionContext{Key: "sess1234"}

	result := catalog.dispatch(context.Background(), sess, ToolCheckTime, nil)
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	payload := result.Result.(map[string]any)
	utc := payload["utc"].(map[string]any)
	if utc["date"] != "2025-03-10" || utc["weekday"] != "Monday" {
		t.Fatalf("utc block = %v", utc)
	}

	anchors := payload["anchors"].(map[string]any)
	week := anchors["next_7_days_local"].(map[string]any)
	if week["start_iso"] != "2025-03-10T00:00:00Z" || week["end_iso"] != "2025-03-16T23:59:59Z" {
		t.Fatalf("week anchor = %v", week)
	}
}

func TestCheckTimeRejectsUnknownTimezone(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t, nil)
	sess := contractx.SessionContext{Key: "sess1234"}

	result := catalog.dispatch(context.Background(), sess, ToolCheckTime, map[string]any{
		"timezone": "Atlantis/Nowhere",
	})
	if result.Error == "" {
		t.Fatal("expected an error for an unknown timezone")
	}
}

func TestCheckTimeSessionClockWins(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t, nil)
	sess := contractx.SessionContext{
		Key: "sess1234",
		Now: time.Date(2025, 12, 25, 8, 0, 0, 0, time.UTC),
	}

	result := catalog.dispatch(context.Background(), sess, ToolCheckTime, nil)
	payload := result.Result.(map[string]any)
	utc := payload["utc"].(map[string]any)
	if utc["date"] != "2025-12-25" {
		t.Fatalf("utc date = %v, want session clock date", utc["date"])
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t, nil)
	result := catalog.dispatch(context.Background(), contractx.SessionContext{Key: "sess1234"}, "no_such_tool", nil)
	if result.Error == "" {
		t.Fatal("expected an error for an unregistered tool")
	}
}
