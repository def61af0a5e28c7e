package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRegistry persists subscribers in a single `users` table.
type SQLiteRegistry struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRegistry opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRegistry(dbPath string, log zerolog.Logger) (*SQLiteRegistry, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	// WAL lets on-demand reads proceed while a subscribe writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRegistry{db: db, log: log.With().Str("component", "registry").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite registry opened")
	return r, nil
}

func (r *SQLiteRegistry) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			chat_id INTEGER PRIMARY KEY,
			alias   TEXT
		)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:26], err)
		}
	}
	return nil
}

func (r *SQLiteRegistry) ListRecipients(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chat_id FROM users ORDER BY chat_id`)
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &Error{Op: "list", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	return ids, nil
}

func (r *SQLiteRegistry) UpsertAlias(ctx context.Context, id int64, alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (chat_id, alias) VALUES (?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET alias = excluded.alias`,
		id, nullStr(alias),
	)
	if err != nil {
		return &Error{Op: "upsert", Err: err}
	}
	return nil
}

func (r *SQLiteRegistry) GetAlias(ctx context.Context, id int64) (string, bool, error) {
	var alias sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT alias FROM users WHERE chat_id = ?`, id).Scan(&alias)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &Error{Op: "get", Err: err}
	}
	if !alias.Valid || alias.String == "" {
		return "", false, nil
	}
	return alias.String, true, nil
}

func (r *SQLiteRegistry) Close() error {
	r.log.Info().Msg("closing sqlite registry")
	return r.db.Close()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
