package highlevel

import "testing"

func TestNormalizeSlotsObjectList(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"slots": []any{
			map[string]any{"startTime": "2025-03-10T10:00:00Z", "endTime": "2025-03-10T10:30:00Z"},
			map[string]any{"start": "2025-03-10T09:00:00Z", "end": "2025-03-10T09:30:00Z"},
		},
	}
	slots := NormalizeSlots(raw)
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}
	if slots[0].StartISO != "2025-03-10T09:00:00Z" {
		t.Fatalf("slots not sorted by start: %v", slots)
	}
}

func TestNormalizeSlotsEpochMillis(t *testing.T) {
	t.Parallel()

	raw := []any{
		map[string]any{"startTime": float64(1741600800000), "endTime": float64(1741602600000)},
	}
	slots := NormalizeSlots(raw)
	if len(slots) != 1 {
		t.Fatalf("got %d slots, want 1", len(slots))
	}
	if slots[0].StartISO != "2025-03-10T10:00:00Z" || slots[0].EndISO != "2025-03-10T10:30:00Z" {
		t.Fatalf("millis slot = %+v", slots[0])
	}
}

func TestNormalizeSlotsDateKeyedStrings(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"2025-03-10": map[string]any{
			"slots": []any{"2025-03-10T14:00:00Z", "2025-03-10T15:00:00Z"},
		},
	}
	slots := NormalizeSlots(raw)
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}
	// bare start strings become 30-minute windows
	if slots[0].EndISO != "2025-03-10T14:30:00Z" {
		t.Fatalf("first slot end = %s", slots[0].EndISO)
	}
}

func TestNormalizeSlotsDedupes(t *testing.T) {
	t.Parallel()

	raw := []any{
		map[string]any{"startTime": "2025-03-10T10:00:00Z", "endTime": "2025-03-10T10:30:00Z"},
		map[string]any{"start": "2025-03-10T10:00:00Z", "end": "2025-03-10T10:30:00Z"},
	}
	if slots := NormalizeSlots(raw); len(slots) != 1 {
		t.Fatalf("got %d slots, want 1 after dedupe", len(slots))
	}
}

func TestNormalizeSlotsMissingEndGetsWindow(t *testing.T) {
	t.Parallel()

	raw := []any{map[string]any{"startTime": "2025-03-10T10:00:00Z"}}
	slots := NormalizeSlots(raw)
	if len(slots) != 1 || slots[0].EndISO != "2025-03-10T10:30:00Z" {
		t.Fatalf("slots = %v", slots)
	}
}

func TestNormalizeSlotsIgnoresNoise(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"traceId": "abc",
		"count":   float64(0),
		"slots":   []any{},
	}
	if slots := NormalizeSlots(raw); len(slots) != 0 {
		t.Fatalf("got %d slots from noise, want 0", len(slots))
	}
}
