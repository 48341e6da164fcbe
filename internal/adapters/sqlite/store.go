// Package sqlite stores the optimizer model in a local single-file database
// for command-line runs.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"domainwizard/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

type ModelStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*ModelStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &ModelStore{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (s *ModelStore) Load(ctx context.Context, key string) (domain.OptimizerModel, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT model FROM optimizer_models WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OptimizerModel{}, false, nil
	}
	if err != nil {
		return domain.OptimizerModel{}, false, fmt.Errorf("load model %s: %w", key, err)
	}
	var m domain.OptimizerModel
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return domain.OptimizerModel{}, false, fmt.Errorf("decode model %s: %w", key, err)
	}
	return m, true, nil
}

func (s *ModelStore) Save(ctx context.Context, key string, m domain.OptimizerModel) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO optimizer_models (key, model, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET model = excluded.model, updated_at = excluded.updated_at
	`, key, string(raw), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save model %s: %w", key, err)
	}
	return nil
}

func (s *ModelStore) Close() error { return s.db.Close() }
