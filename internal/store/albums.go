package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Album is one library album known to the host.
type Album struct {
	ID     int64  `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Artist string `json:"artist,omitempty" yaml:"artist"`
}

// ListAlbums returns every album ordered by identifier.
func (s *Store) ListAlbums(ctx context.Context) ([]Album, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, artist FROM albums ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	var albums []Album
	for rows.Next() {
		var album Album
		if err := rows.Scan(&album.ID, &album.Title, &album.Artist); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate albums: %w", err)
	}
	return albums, nil
}

// ReplaceAlbums swaps the album library for the provided set in one transaction.
func (s *Store) ReplaceAlbums(ctx context.Context, albums []Album) error {
	ctx = ensureContext(ctx)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM albums`); err != nil {
			return err
		}
		for _, album := range albums {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO albums (id, title, artist) VALUES (?, ?, ?)`,
				album.ID, album.Title, album.Artist,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace albums: %w", err)
	}
	return nil
}
