package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"domainwizard/internal/domain"
)

// ModelStore keeps optimizer models as whole jsonb records.
type ModelStore struct{ db *DB }

func NewModelStore(db *DB) *ModelStore { return &ModelStore{db: db} }

func (s *ModelStore) Load(ctx context.Context, key string) (domain.OptimizerModel, bool, error) {
	var raw []byte
	err := s.db.Pool.QueryRow(ctx, `SELECT model FROM optimizer_models WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OptimizerModel{}, false, nil
	}
	if err != nil {
		return domain.OptimizerModel{}, false, fmt.Errorf("load model %s: %w", key, err)
	}
	var m domain.OptimizerModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.OptimizerModel{}, false, fmt.Errorf("decode model %s: %w", key, err)
	}
	return m, true, nil
}

func (s *ModelStore) Save(ctx context.Context, key string, m domain.OptimizerModel) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO optimizer_models (key, model, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET model = EXCLUDED.model, updated_at = now()
	`, key, raw)
	if err != nil {
		return fmt.Errorf("save model %s: %w", key, err)
	}
	return nil
}
