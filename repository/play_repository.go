package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cassette/model"
)

// PlayRepository defines the interface for play event operations. One
// row is appended per stream start; aggregates sum play_count.
type PlayRepository interface {
	CreatePlay(ctx context.Context, play *model.Play) (int64, error)
	PlayTotalsBySong(ctx context.Context) ([]model.SongPlays, error)
	PlayTotalsByUser(ctx context.Context) ([]model.UserPlays, error)
	PlayTotalsForOwner(ctx context.Context, ownerID int64) ([]model.SongPlays, error)
	MonthlyPlayTotals(ctx context.Context) ([]model.MonthlyPlays, error)
}

// mysqlPlayRepository implements PlayRepository for MySQL.
type mysqlPlayRepository struct {
	db *sql.DB
}

// NewMySQLPlayRepository creates a new mysqlPlayRepository.
func NewMySQLPlayRepository(db *sql.DB) PlayRepository {
	return &mysqlPlayRepository{db: db}
}

// CreatePlay appends a play event row.
func (r *mysqlPlayRepository) CreatePlay(ctx context.Context, play *model.Play) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO plays (play_count, user_id, song_id, created_at) VALUES (?, ?, ?, ?)",
		play.PlayCount, play.UserID, play.SongID, play.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert play for song %d: %w", play.SongID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for play: %w", err)
	}
	return id, nil
}

// PlayTotalsBySong sums play counts grouped by song.
func (r *mysqlPlayRepository) PlayTotalsBySong(ctx context.Context) ([]model.SongPlays, error) {
	query := "SELECT song_id, SUM(play_count) FROM plays GROUP BY song_id ORDER BY song_id"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query play totals by song: %w", err)
	}
	defer rows.Close()

	totals := make([]model.SongPlays, 0)
	for rows.Next() {
		var row model.SongPlays
		if err := rows.Scan(&row.SongID, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan song play total: %w", err)
		}
		totals = append(totals, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during song play totals iteration: %w", err)
	}
	return totals, nil
}

// PlayTotalsByUser sums play counts grouped by listener.
func (r *mysqlPlayRepository) PlayTotalsByUser(ctx context.Context) ([]model.UserPlays, error) {
	query := "SELECT user_id, SUM(play_count) FROM plays GROUP BY user_id ORDER BY user_id"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query play totals by user: %w", err)
	}
	defer rows.Close()

	totals := make([]model.UserPlays, 0)
	for rows.Next() {
		var row model.UserPlays
		if err := rows.Scan(&row.UserID, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan user play total: %w", err)
		}
		totals = append(totals, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during user play totals iteration: %w", err)
	}
	return totals, nil
}

// PlayTotalsForOwner sums play counts per song, restricted to songs
// the given creator owns.
func (r *mysqlPlayRepository) PlayTotalsForOwner(ctx context.Context, ownerID int64) ([]model.SongPlays, error) {
	query := `SELECT p.song_id, SUM(p.play_count)
	           FROM plays p JOIN songs s ON s.id = p.song_id
	           WHERE s.user_id = ?
	           GROUP BY p.song_id ORDER BY p.song_id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query play totals for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	totals := make([]model.SongPlays, 0)
	for rows.Next() {
		var row model.SongPlays
		if err := rows.Scan(&row.SongID, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan owner play total: %w", err)
		}
		totals = append(totals, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during owner play totals iteration: %w", err)
	}
	return totals, nil
}

// MonthlyPlayTotals sums play counts grouped by calendar month of the
// play event.
func (r *mysqlPlayRepository) MonthlyPlayTotals(ctx context.Context) ([]model.MonthlyPlays, error) {
	query := `SELECT YEAR(created_at), MONTH(created_at), SUM(play_count)
	           FROM plays
	           GROUP BY YEAR(created_at), MONTH(created_at)
	           ORDER BY YEAR(created_at), MONTH(created_at)`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly play totals: %w", err)
	}
	defer rows.Close()

	totals := make([]model.MonthlyPlays, 0)
	for rows.Next() {
		var row model.MonthlyPlays
		if err := rows.Scan(&row.Year, &row.Month, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly play total: %w", err)
		}
		totals = append(totals, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during monthly play totals iteration: %w", err)
	}
	return totals, nil
}
