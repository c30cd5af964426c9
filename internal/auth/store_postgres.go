package auth

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists API keys in the platform database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps the shared connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CompanyIDByEmail resolves a registered company by email.
func (s *PostgresStore) CompanyIDByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM companies WHERE email = $1`, email).Scan(&id)

	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no company registered for %s", email)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up company: %w", err)
	}
	return id, nil
}

// InsertKey stores a new API key record.
func (s *PostgresStore) InsertKey(ctx context.Context, key *Key) error {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, company_id, prefix, key_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, key.ID, key.CompanyID, key.Prefix, key.Hash, key.Active, key.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert API key: %w", err)
	}
	return nil
}

// ActiveKeysByPrefix returns every active key sharing a lookup prefix.
// Prefix collisions are possible, so callers verify the hash of each.
func (s *PostgresStore) ActiveKeysByPrefix(ctx context.Context, prefix string) ([]Key, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, prefix, key_hash, is_active, created_at
		FROM api_keys
		WHERE prefix = $1 AND is_active = TRUE
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query API keys: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.ID, &k.CompanyID, &k.Prefix, &k.Hash, &k.Active, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
