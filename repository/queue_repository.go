package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cassette/model"
)

// QueueRepository defines the interface for playback queue operations.
type QueueRepository interface {
	AddQueueEntry(ctx context.Context, userID, songID int64) (int64, error)
	ListQueueByUser(ctx context.Context, userID int64) ([]*model.QueueEntry, error)
	ClearQueueByUser(ctx context.Context, userID int64) error
}

// mysqlQueueRepository implements QueueRepository for MySQL.
type mysqlQueueRepository struct {
	db *sql.DB
}

// NewMySQLQueueRepository creates a new mysqlQueueRepository.
func NewMySQLQueueRepository(db *sql.DB) QueueRepository {
	return &mysqlQueueRepository{db: db}
}

// AddQueueEntry appends a song to the end of a user's queue.
func (r *mysqlQueueRepository) AddQueueEntry(ctx context.Context, userID, songID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO queue_entries (user_id, song_id, created_at) VALUES (?, ?, ?)",
		userID, songID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to append song %d to queue of user %d: %w", songID, userID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for queue entry: %w", err)
	}
	return id, nil
}

// ListQueueByUser retrieves a user's queue in insertion order.
func (r *mysqlQueueRepository) ListQueueByUser(ctx context.Context, userID int64) ([]*model.QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, song_id, created_at FROM queue_entries WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue for user %d: %w", userID, err)
	}
	defer rows.Close()

	entries := make([]*model.QueueEntry, 0)
	for rows.Next() {
		entry := &model.QueueEntry{}
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.SongID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during queue rows iteration: %w", err)
	}
	return entries, nil
}

// ClearQueueByUser removes every queue entry belonging to a user.
func (r *mysqlQueueRepository) ClearQueueByUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM queue_entries WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to clear queue for user %d: %w", userID, err)
	}
	return nil
}
