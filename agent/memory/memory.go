// Package memory persists per-session conversation summaries in Postgres.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Config struct {
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// Summary is one row of rolling conversation memory, keyed by session.
type Summary struct {
	bun.BaseModel `bun:"table:memory_summaries"`

	SessionKey string    `bun:"session_key,pk"`
	Summary    string    `bun:"summary,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Store is a contract.MemoryStore backed by Postgres via bun.
type Store struct {
	db      *bun.DB
	timeout time.Duration
}

func NewStore(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("memory dsn is empty")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &Store{db: db, timeout: timeout}, nil
}

func MustNewStore(cfg Config) *Store {
	store, err := NewStore(cfg)
	if err != nil {
		panic(err)
	}
	return store
}

// Init creates the backing table when it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.NewCreateTable().
		Model((*Summary)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// ReadSummary returns the stored summary for the session, or an empty
// string when none exists yet.
func (s *Store) ReadSummary(ctx context.Context, sessionKey string) (string, error) {
	key := strings.TrimSpace(sessionKey)
	if key == "" {
		return "", errors.New("session key is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row Summary
	err := s.db.NewSelect().
		Model(&row).
		Where("session_key = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Summary, nil
}

// WriteSummary upserts the session summary.
func (s *Store) WriteSummary(ctx context.Context, sessionKey string, update string) error {
	key := strings.TrimSpace(sessionKey)
	if key == "" {
		return errors.New("session key is empty")
	}
	if strings.TrimSpace(update) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := &Summary{
		SessionKey: key,
		Summary:    update,
		UpdatedAt:  time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (session_key) DO UPDATE").
		Set("summary = EXCLUDED.summary").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
