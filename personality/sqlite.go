package personality

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/becomeliminal/astra/logging"
)

// SQLiteStore keeps the trait map in a SQLite table, one row per trait.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens the trait database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create trait db dir: %w", ErrStore, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", ErrStore, err)
	}
	// One writer per process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS traits (
			name TEXT PRIMARY KEY,
			strength REAL NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: init trait schema: %w", ErrStore, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads every trait. Rows outside the strength bounds are dropped.
func (s *SQLiteStore) Load(ctx context.Context) (TraitMap, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, strength FROM traits`)
	if err != nil {
		return nil, fmt.Errorf("%w: query traits: %w", ErrStore, err)
	}
	defer rows.Close()

	traits := TraitMap{}
	for rows.Next() {
		var (
			name     string
			strength float64
		)
		if err := rows.Scan(&name, &strength); err != nil {
			logging.For("personality").WithError(err).Warn("skipping unreadable trait row")
			continue
		}
		traits[name] = strength
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate traits: %w", ErrStore, err)
	}
	if n := traits.Sanitize(); n > 0 {
		logging.For("personality").WithField("dropped", n).Warn("trait table held out-of-range strengths")
	}
	return traits, nil
}

// Save replaces the stored map with traits in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, traits TraitMap) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrStore, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM traits`); err != nil {
		return fmt.Errorf("%w: clear traits: %w", ErrStore, err)
	}
	for name, strength := range traits {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO traits (name, strength) VALUES (?, ?)`, name, strength); err != nil {
			return fmt.Errorf("%w: insert trait %s: %w", ErrStore, name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrStore, err)
	}
	return nil
}
