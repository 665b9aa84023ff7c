package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps documents and the per-request cost ledger in one database
// file under the config directory.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS cost_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			provider TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			cost REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cost_created ON cost_entries(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, path string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = ?`, path)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return data, nil
}

func (s *SQLiteStore) Set(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, data, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, path, data)
	if err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CostEntry is one provider call's cost accounting row.
type CostEntry struct {
	RequestID        string
	UserID           string
	Provider         string
	PromptTokens     int
	CompletionTokens int
	Cost             float64
}

func (s *SQLiteStore) AppendCost(ctx context.Context, entry CostEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cost_entries (request_id, user_id, provider, prompt_tokens, completion_tokens, cost)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.RequestID, entry.UserID, entry.Provider, entry.PromptTokens, entry.CompletionTokens, entry.Cost)
	if err != nil {
		return fmt.Errorf("append cost: %w", err)
	}
	return nil
}

// TotalCostSince sums ledger costs recorded at or after the given time.
func (s *SQLiteStore) TotalCostSince(ctx context.Context, since time.Time) (float64, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(cost), 0) FROM cost_entries WHERE created_at >= ?
	`, since.UTC().Format("2006-01-02 15:04:05"))
	var total float64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("total cost: %w", err)
	}
	return total, nil
}

// PruneCostEntries deletes ledger rows older than the cutoff, returning the
// number removed. Used by the daily rollup job.
func (s *SQLiteStore) PruneCostEntries(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cost_entries WHERE created_at < ?
	`, before.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("prune cost entries: %w", err)
	}
	return res.RowsAffected()
}
