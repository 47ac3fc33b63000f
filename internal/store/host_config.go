package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const metadataSourceKey = "metadata_source"

// MetadataSource returns the host's shared metadata source slot. An unset slot
// reads as the empty string.
func (s *Store) MetadataSource(ctx context.Context) (string, error) {
	ctx = ensureContext(ctx)
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM host_config WHERE key = ?`, metadataSourceKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read metadata source: %w", err)
	}
	return value, nil
}

// SetMetadataSource overwrites the shared metadata source slot.
func (s *Store) SetMetadataSource(ctx context.Context, value string) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO host_config (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metadataSourceKey, value,
	)
	if err != nil {
		return fmt.Errorf("write metadata source: %w", err)
	}
	return nil
}
