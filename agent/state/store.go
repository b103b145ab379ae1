package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrRecordNotFound = errors.New("session record not found")
	ErrInvalidSession = errors.New("session key is empty")
)

const (
	defaultHistoryLimit = 20
	defaultSlotLimit    = 200

	socialDir   = "social_media_analysis"
	imagesDir   = "generated_images"
	contactsDir = "highlevel_contacts"
	palettesDir = "palettes"
	slotsDir    = "calendar_slots"
)

// Store is the session-scoped persistence contract shared by the tools.
// Records are partitioned by the 8-character session key; cross-tool
// coordination happens only through this interface.
type Store interface {
	SaveAnalysis(ctx context.Context, sessionKey, username string, doc map[string]any) (string, error)
	LatestAnalysis(ctx context.Context, sessionKey string) (*AnalysisRecord, error)
	LatestAnalysisFor(ctx context.Context, sessionKey, username string) (*AnalysisRecord, error)

	SavePaletteOverride(ctx context.Context, sessionKey string, override PaletteOverride) error
	LoadPaletteOverride(ctx context.Context, sessionKey string) (*PaletteOverride, error)

	AppendImage(ctx context.Context, sessionKey, subject string, entry ImageEntry) error
	LastImage(ctx context.Context, sessionKey, subject string) (*ImageEntry, error)
	ImageHistory(ctx context.Context, sessionKey, subject string) ([]ImageEntry, error)
	NextEditNumber(ctx context.Context, sessionKey, subject string) (int, error)

	SaveContact(ctx context.Context, sessionKey string, binding ContactBinding) error
	LoadContact(ctx context.Context, sessionKey string) (*ContactBinding, error)

	SaveSlots(ctx context.Context, sessionKey, calendarID string, slots []Slot) error
	LoadSlots(ctx context.Context, sessionKey, calendarID string) ([]Slot, error)
}

// StoreOption customizes FileStore.
type StoreOption func(*FileStore)

func WithHistoryLimit(limit int) StoreOption {
	return func(s *FileStore) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

func WithSlotLimit(limit int) StoreOption {
	return func(s *FileStore) {
		if limit > 0 {
			s.slotLimit = limit
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// FileStore persists session records as JSON files under a cache root.
// Latest-file-wins is the only consistency rule; there is no locking and
// no expiry, matching the single-user chat session assumption.
type FileStore struct {
	root         string
	historyLimit int
	slotLimit    int
	now          func() time.Time
}

func NewFileStore(root string, opts ...StoreOption) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("cache root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}

	store := &FileStore{
		root:         root,
		historyLimit: defaultHistoryLimit,
		slotLimit:    defaultSlotLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func MustNewFileStore(root string, opts ...StoreOption) *FileStore {
	store, err := NewFileStore(root, opts...)
	if err != nil {
		panic(err)
	}
	return store
}

func (s *FileStore) SaveAnalysis(_ context.Context, sessionKey, username string, doc map[string]any) (string, error) {
	if err := validSession(sessionKey); err != nil {
		return "", err
	}
	username = sanitizeComponent(username)
	if username == "" {
		username = "unknown"
	}

	dir := filepath.Join(s.root, socialDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%d.json", username, sessionKey, s.now().Unix()))
	if err := writeJSON(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

func (s *FileStore) LatestAnalysis(ctx context.Context, sessionKey string) (*AnalysisRecord, error) {
	return s.latestAnalysis(ctx, sessionKey, "")
}

func (s *FileStore) LatestAnalysisFor(ctx context.Context, sessionKey, username string) (*AnalysisRecord, error) {
	return s.latestAnalysis(ctx, sessionKey, sanitizeComponent(username))
}

func (s *FileStore) latestAnalysis(_ context.Context, sessionKey, username string) (*AnalysisRecord, error) {
	if err := validSession(sessionKey); err != nil {
		return nil, err
	}

	pattern := fmt.Sprintf("*_%s_*.json", sessionKey)
	if username != "" {
		pattern = fmt.Sprintf("%s_%s_*.json", username, sessionKey)
	}
	matches, err := filepath.Glob(filepath.Join(s.root, socialDir, pattern))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrRecordNotFound
	}

	sort.Slice(matches, func(i, j int) bool {
		return analysisStamp(matches[i]) > analysisStamp(matches[j])
	})

	path := matches[0]
	var doc map[string]any
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), ".json")
	user := name
	if idx := strings.Index(name, "_"+sessionKey+"_"); idx > 0 {
		user = name[:idx]
	}

	return &AnalysisRecord{
		Username: user,
		Path:     path,
		SavedAt:  time.Unix(analysisStamp(path), 0).UTC(),
		Doc:      doc,
	}, nil
}

func (s *FileStore) SavePaletteOverride(_ context.Context, sessionKey string, override PaletteOverride) error {
	if err := validSession(sessionKey); err != nil {
		return err
	}
	if len(override.Palette) == 0 {
		return fmt.Errorf("palette override is empty")
	}
	if override.SavedAt.IsZero() {
		override.SavedAt = s.now().UTC()
	}

	dir := filepath.Join(s.root, palettesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	latest := filepath.Join(dir, fmt.Sprintf("PALETTE_%s_latest.json", sessionKey))
	if err := writeJSON(latest, override); err != nil {
		return err
	}

	historyPath := filepath.Join(dir, fmt.Sprintf("PALETTE_%s_history.json", sessionKey))
	var history []PaletteOverride
	_ = readJSON(historyPath, &history)
	history = append(history, override)
	if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}
	return writeJSON(historyPath, history)
}

func (s *FileStore) LoadPaletteOverride(_ context.Context, sessionKey string) (*PaletteOverride, error) {
	if err := validSession(sessionKey); err != nil {
		return nil, err
	}
	path := filepath.Join(s.root, palettesDir, fmt.Sprintf("PALETTE_%s_latest.json", sessionKey))
	var override PaletteOverride
	if err := readJSON(path, &override); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if len(override.Palette) == 0 {
		return nil, ErrRecordNotFound
	}
	return &override, nil
}

func (s *FileStore) AppendImage(ctx context.Context, sessionKey, subject string, entry ImageEntry) error {
	if err := validSession(sessionKey); err != nil {
		return err
	}
	subject = sanitizeComponent(subject)
	if subject == "" {
		return fmt.Errorf("image subject is required")
	}

	dir := filepath.Join(s.root, imagesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if entry.Timestamp == 0 {
		entry.Timestamp = s.now().Unix()
	}
	if entry.CreatedAt == "" {
		entry.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}
	entry.SessionID = sessionKey

	history, err := s.ImageHistory(ctx, sessionKey, subject)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return err
	}
	history = append(history, entry)
	if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}

	if err := writeJSON(s.historyPath(sessionKey, subject), history); err != nil {
		return err
	}
	return writeJSON(s.latestImagePath(sessionKey, subject), entry)
}

func (s *FileStore) ImageHistory(_ context.Context, sessionKey, subject string) ([]ImageEntry, error) {
	if err := validSession(sessionKey); err != nil {
		return nil, err
	}
	var history []ImageEntry
	if err := readJSON(s.historyPath(sessionKey, sanitizeComponent(subject)), &history); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return history, nil
}

func (s *FileStore) LastImage(ctx context.Context, sessionKey, subject string) (*ImageEntry, error) {
	history, err := s.ImageHistory(ctx, sessionKey, subject)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrRecordNotFound
	}
	last := history[len(history)-1]
	return &last, nil
}

func (s *FileStore) NextEditNumber(ctx context.Context, sessionKey, subject string) (int, error) {
	history, err := s.ImageHistory(ctx, sessionKey, subject)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return 1, nil
		}
		return 0, err
	}
	max := 0
	for _, entry := range history {
		if entry.EditNumber > max {
			max = entry.EditNumber
		}
	}
	return max + 1, nil
}

func (s *FileStore) SaveContact(_ context.Context, sessionKey string, binding ContactBinding) error {
	if err := validSession(sessionKey); err != nil {
		return err
	}
	if strings.TrimSpace(binding.ID) == "" {
		return fmt.Errorf("contact id is required")
	}
	dir := filepath.Join(s.root, contactsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, sessionKey+".json"), binding)
}

func (s *FileStore) LoadContact(_ context.Context, sessionKey string) (*ContactBinding, error) {
	if err := validSession(sessionKey); err != nil {
		return nil, err
	}
	var binding ContactBinding
	if err := readJSON(filepath.Join(s.root, contactsDir, sessionKey+".json"), &binding); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if binding.ID == "" {
		return nil, ErrRecordNotFound
	}
	return &binding, nil
}

func (s *FileStore) SaveSlots(_ context.Context, sessionKey, calendarID string, slots []Slot) error {
	if err := validSession(sessionKey); err != nil {
		return err
	}
	if len(slots) > s.slotLimit {
		slots = slots[:s.slotLimit]
	}
	dir := filepath.Join(s.root, slotsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return writeJSON(s.slotsPath(sessionKey, calendarID), slots)
}

func (s *FileStore) LoadSlots(_ context.Context, sessionKey, calendarID string) ([]Slot, error) {
	if err := validSession(sessionKey); err != nil {
		return nil, err
	}
	var slots []Slot
	if err := readJSON(s.slotsPath(sessionKey, calendarID), &slots); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return slots, nil
}

func (s *FileStore) historyPath(sessionKey, subject string) string {
	return filepath.Join(s.root, imagesDir, fmt.Sprintf("%s_%s_history.json", subject, sessionKey))
}

func (s *FileStore) latestImagePath(sessionKey, subject string) string {
	return filepath.Join(s.root, imagesDir, fmt.Sprintf("%s_%s_latest.json", subject, sessionKey))
}

func (s *FileStore) slotsPath(sessionKey, calendarID string) string {
	return filepath.Join(s.root, slotsDir, fmt.Sprintf("SLOTS_%s_%s.json", sessionKey, sanitizeComponent(calendarID)))
}

func validSession(sessionKey string) error {
	if strings.TrimSpace(sessionKey) == "" {
		return ErrInvalidSession
	}
	return nil
}

func sanitizeComponent(v string) string {
	v = strings.TrimSpace(v)
	var b strings.Builder
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func analysisStamp(path string) int64 {
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	idx := strings.LastIndex(name, "_")
	if idx < 0 {
		return 0
	}
	ts, err := strconv.ParseInt(name[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode record %s: %w", filepath.Base(path), err)
	}
	return nil
}
