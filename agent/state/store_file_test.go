package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return store
}

func TestFileStoreImageHistoryRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	entry := ImageEntry{
		ImagePath: "outputs/logos/1700000000/logo_1.png",
		Prompt:    "minimalist wordmark",
	}
	if err := store.AppendImage(ctx, "abc12345", "LOGO", entry); err != nil {
		t.Fatalf("AppendImage() error = %v", err)
	}

	got, err := store.LastImage(ctx, "abc12345", "LOGO")
	if err != nil {
		t.Fatalf("LastImage() error = %v", err)
	}
	if got.ImagePath != entry.ImagePath {
		t.Fatalf("LastImage().ImagePath = %q, want %q", got.ImagePath, entry.ImagePath)
	}
	if got.SessionID != "abc12345" {
		t.Fatalf("LastImage().SessionID = %q, want %q", got.SessionID, "abc12345")
	}

	if _, err := store.LastImage(ctx, "other999", "LOGO"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("LastImage() for foreign session error = %v, want ErrRecordNotFound", err)
	}
}

func TestFileStoreImageHistoryCapped(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		entry := ImageEntry{ImagePath: "img", EditNumber: i}
		if err := store.AppendImage(ctx, "abc12345", "SKU-1", entry); err != nil {
			t.Fatalf("AppendImage() error = %v", err)
		}
	}

	history, err := store.ImageHistory(ctx, "abc12345", "SKU-1")
	if err != nil {
		t.Fatalf("ImageHistory() error = %v", err)
	}
	if len(history) != defaultHistoryLimit {
		t.Fatalf("history length = %d, want %d", len(history), defaultHistoryLimit)
	}
	if history[len(history)-1].EditNumber != 24 {
		t.Fatalf("newest edit number = %d, want 24", history[len(history)-1].EditNumber)
	}
}

func TestFileStoreNextEditNumber(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.NextEditNumber(ctx, "abc12345", "LOGO")
	if err != nil {
		t.Fatalf("NextEditNumber() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("NextEditNumber() on empty history = %d, want 1", n)
	}

	if err := store.AppendImage(ctx, "abc12345", "LOGO", ImageEntry{IsEdit: true, EditNumber: 3}); err != nil {
		t.Fatalf("AppendImage() error = %v", err)
	}
	n, err = store.NextEditNumber(ctx, "abc12345", "LOGO")
	if err != nil {
		t.Fatalf("NextEditNumber() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("NextEditNumber() = %d, want 4", n)
	}
}

func TestFileStoreLatestAnalysisPicksNewest(t *testing.T) {
	t.Parallel()

	clock := time.Unix(1_700_000_000, 0)
	store, err := NewFileStore(t.TempDir(), WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	if _, err := store.SaveAnalysis(ctx, "abc12345", "fituser", map[string]any{"v": "old"}); err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}
	clock = clock.Add(time.Minute)
	if _, err := store.SaveAnalysis(ctx, "abc12345", "fituser", map[string]any{"v": "new"}); err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}

	rec, err := store.LatestAnalysis(ctx, "abc12345")
	if err != nil {
		t.Fatalf("LatestAnalysis() error = %v", err)
	}
	if rec.Doc["v"] != "new" {
		t.Fatalf("LatestAnalysis().Doc[v] = %v, want new", rec.Doc["v"])
	}
	if rec.Username != "fituser" {
		t.Fatalf("LatestAnalysis().Username = %q, want fituser", rec.Username)
	}
}

func TestFileStorePaletteOverridePrecedenceRecord(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.LoadPaletteOverride(ctx, "abc12345"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("LoadPaletteOverride() error = %v, want ErrRecordNotFound", err)
	}

	override := PaletteOverride{Palette: []string{"#3366FF", "#FFD93D"}, Source: "user"}
	if err := store.SavePaletteOverride(ctx, "abc12345", override); err != nil {
		t.Fatalf("SavePaletteOverride() error = %v", err)
	}

	got, err := store.LoadPaletteOverride(ctx, "abc12345")
	if err != nil {
		t.Fatalf("LoadPaletteOverride() error = %v", err)
	}
	if len(got.Palette) != 2 || got.Palette[0] != "#3366FF" {
		t.Fatalf("LoadPaletteOverride().Palette = %v", got.Palette)
	}
}

func TestFileStoreContactBinding(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	binding := ContactBinding{ID: "contact-1", Email: "abc12345@example.com"}
	if err := store.SaveContact(ctx, "abc12345", binding); err != nil {
		t.Fatalf("SaveContact() error = %v", err)
	}
	got, err := store.LoadContact(ctx, "abc12345")
	if err != nil {
		t.Fatalf("LoadContact() error = %v", err)
	}
	if got.ID != "contact-1" {
		t.Fatalf("LoadContact().ID = %q, want contact-1", got.ID)
	}
}

func TestFileStoreSlotsCapped(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	slots := make([]Slot, 250)
	for i := range slots {
		slots[i] = Slot{StartISO: "2026-01-01T00:00:00Z", EndISO: "2026-01-01T00:30:00Z"}
	}
	if err := store.SaveSlots(ctx, "abc12345", "cal-1", slots); err != nil {
		t.Fatalf("SaveSlots() error = %v", err)
	}
	got, err := store.LoadSlots(ctx, "abc12345", "cal-1")
	if err != nil {
		t.Fatalf("LoadSlots() error = %v", err)
	}
	if len(got) != defaultSlotLimit {
		t.Fatalf("slot count = %d, want %d", len(got), defaultSlotLimit)
	}
}

func TestFileStoreRejectsEmptySession(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, err := store.LastImage(context.Background(), "   ", "LOGO"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("LastImage() error = %v, want ErrInvalidSession", err)
	}
}
