package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists each collection as one jsonb document in the
// content table, keyed by (profile, key).
type PostgresStore struct {
	db      *sql.DB
	profile string
}

func NewPostgresStore(db *sql.DB, profile string) *PostgresStore {
	return &PostgresStore{db: db, profile: profile}
}

func (s *PostgresStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM content WHERE profile = $1 AND key = $2`,
		s.profile, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO content (profile, key, doc, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (profile, key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		s.profile, key, raw,
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM content WHERE profile = $1 AND key = $2`,
		s.profile, key,
	)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
