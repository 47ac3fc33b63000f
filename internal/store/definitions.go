package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"lmbridge/internal/provider"
	"lmbridge/internal/services"
)

const definitionColumns = "id, name, implementation, enable, settings_json"

func scanDefinition(scanner interface{ Scan(dest ...any) error }) (*provider.Definition, error) {
	var (
		id             int64
		name           string
		implementation string
		enable         int64
		settingsJSON   string
	)
	if err := scanner.Scan(&id, &name, &implementation, &enable, &settingsJSON); err != nil {
		return nil, err
	}
	// Undecodable settings are kept verbatim so the row stays listable and
	// editable; Bridge() reports false for it until it is rewritten.
	settings, err := provider.DecodeSettings(implementation, []byte(settingsJSON))
	if err != nil {
		settings = &provider.OpaqueSettings{Kind: implementation, Raw: json.RawMessage(settingsJSON)}
	}
	return &provider.Definition{
		ID:             id,
		Name:           name,
		Implementation: implementation,
		Enable:         enable != 0,
		Settings:       settings,
	}, nil
}

// All returns every provider definition in insertion order.
func (s *Store) All(ctx context.Context) ([]*provider.Definition, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+definitionColumns+` FROM provider_definitions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	var defs []*provider.Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate definitions: %w", err)
	}
	return defs, nil
}

// Get fetches a single definition by identifier.
func (s *Store) Get(ctx context.Context, id int64) (*provider.Definition, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+definitionColumns+` FROM provider_definitions WHERE id = ?`, id)
	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("get", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get definition: %w", err)
	}
	return def, nil
}

// Add inserts a new definition and returns it with its assigned identifier.
func (s *Store) Add(ctx context.Context, def *provider.Definition) (*provider.Definition, error) {
	if def == nil {
		return nil, errors.New("definition is nil")
	}
	settings, err := provider.EncodeSettings(def.Settings)
	if err != nil {
		return nil, err
	}
	now := formatTime(time.Now())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO provider_definitions (name, implementation, enable, settings_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		def.Name, def.Implementation, boolToInt(def.Enable), string(settings), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert definition: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	out := def.Clone()
	out.ID = id
	return out, nil
}

// Update persists every field of an existing definition.
func (s *Store) Update(ctx context.Context, def *provider.Definition) error {
	if def == nil {
		return errors.New("definition is nil")
	}
	settings, err := provider.EncodeSettings(def.Settings)
	if err != nil {
		return err
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE provider_definitions
         SET name = ?, implementation = ?, enable = ?, settings_json = ?, updated_at = ?
         WHERE id = ?`,
		def.Name, def.Implementation, boolToInt(def.Enable), string(settings), formatTime(time.Now()), def.ID,
	)
	if err != nil {
		return fmt.Errorf("update definition: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return notFound("update", def.ID)
	}
	return nil
}

// Delete removes a definition and returns the record as it was before removal.
func (s *Store) Delete(ctx context.Context, id int64) (*provider.Definition, error) {
	def, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.execWithRetry(ctx, `DELETE FROM provider_definitions WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete definition: %w", err)
	}
	return def, nil
}

func notFound(operation string, id int64) error {
	return services.Wrap(services.ErrNotFound, "store", operation, "provider definition "+strconv.FormatInt(id, 10), nil)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
