package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lmbridge/internal/services"
)

// CommandStatus tracks a refresh command through the host command queue.
type CommandStatus string

const (
	CommandQueued    CommandStatus = "queued"
	CommandCompleted CommandStatus = "completed"
)

// RefreshCommand asks the host to refresh one album's metadata.
type RefreshCommand struct {
	ID          string        `json:"id"`
	AlbumID     int64         `json:"albumId"`
	Status      CommandStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	CompletedAt time.Time     `json:"completedAt,omitzero"`
}

// PushMany enqueues all commands as one batch. Commands without an ID get one.
func (s *Store) PushMany(ctx context.Context, commands []RefreshCommand) error {
	if len(commands) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	now := formatTime(time.Now())
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, cmd := range commands {
			id := cmd.ID
			if id == "" {
				id = uuid.NewString()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO refresh_commands (id, album_id, status, created_at) VALUES (?, ?, ?, ?)`,
				id, cmd.AlbumID, CommandQueued, now,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("push refresh commands: %w", err)
	}
	return nil
}

// ListCommands returns commands in creation order, optionally filtered by status.
func (s *Store) ListCommands(ctx context.Context, status CommandStatus) ([]RefreshCommand, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, album_id, status, created_at, completed_at FROM refresh_commands`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	defer rows.Close()

	var commands []RefreshCommand
	for rows.Next() {
		var (
			cmd         RefreshCommand
			statusRaw   string
			createdRaw  string
			completedAt sql.NullString
		)
		if err := rows.Scan(&cmd.ID, &cmd.AlbumID, &statusRaw, &createdRaw, &completedAt); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		cmd.Status = CommandStatus(statusRaw)
		cmd.CreatedAt = parseTime(createdRaw)
		cmd.CompletedAt = parseTime(completedAt.String)
		commands = append(commands, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}
	return commands, nil
}

// CompleteCommand marks a queued command as completed.
func (s *Store) CompleteCommand(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE refresh_commands SET status = ?, completed_at = ? WHERE id = ?`,
		CommandCompleted, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("complete command: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "complete command", "command "+id, nil)
	}
	return nil
}
