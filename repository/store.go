package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cassette/core/lifecycle"
)

// SQLStore opens transactions for the cascade deletes. Every cascade
// runs inside a single *sql.Tx so a mid-cascade failure rolls back
// every row already deleted.
type SQLStore struct {
	db *sql.DB
}

var _ lifecycle.Store = (*SQLStore)(nil)

// NewSQLStore creates a SQLStore over the shared handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Begin opens a transaction.
func (s *SQLStore) Begin(ctx context.Context) (lifecycle.StoreTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlStoreTx{ctx: ctx, tx: tx}, nil
}

type sqlStoreTx struct {
	ctx  context.Context
	tx   *sql.Tx
	done bool
}

var _ lifecycle.StoreTx = (*sqlStoreTx)(nil)

func (t *sqlStoreTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.done = true
	return nil
}

// Rollback is a no-op after Commit so callers can defer it.
func (t *sqlStoreTx) Rollback() error {
	if t.done {
		return nil
	}
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

func (t *sqlStoreTx) queryIDs(query string, arg int64) ([]int64, error) {
	rows, err := t.tx.QueryContext(t.ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during id rows iteration: %w", err)
	}
	return ids, nil
}

func (t *sqlStoreTx) exec(query string, args ...interface{}) error {
	if _, err := t.tx.ExecContext(t.ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute %q: %w", query, err)
	}
	return nil
}

func (t *sqlStoreTx) PlaylistIDsByUser(userID int64) ([]int64, error) {
	return t.queryIDs("SELECT id FROM playlists WHERE user_id = ?", userID)
}

func (t *sqlStoreTx) AlbumIDsByUser(userID int64) ([]int64, error) {
	return t.queryIDs("SELECT id FROM albums WHERE user_id = ?", userID)
}

func (t *sqlStoreTx) SongIDsByUser(userID int64) ([]int64, error) {
	return t.queryIDs("SELECT id FROM songs WHERE user_id = ?", userID)
}

func (t *sqlStoreTx) SongIDsByAlbum(albumID int64) ([]int64, error) {
	return t.queryIDs("SELECT song_id FROM album_songs WHERE album_id = ?", albumID)
}

func (t *sqlStoreTx) DeleteUser(userID int64) error {
	return t.exec("DELETE FROM users WHERE id = ?", userID)
}

func (t *sqlStoreTx) DeleteSong(songID int64) error {
	return t.exec("DELETE FROM songs WHERE id = ?", songID)
}

func (t *sqlStoreTx) DeleteAlbum(albumID int64) error {
	return t.exec("DELETE FROM albums WHERE id = ?", albumID)
}

func (t *sqlStoreTx) DeletePlaylist(playlistID int64) error {
	return t.exec("DELETE FROM playlists WHERE id = ?", playlistID)
}

func (t *sqlStoreTx) DeletePlaylistsByUser(userID int64) error {
	return t.exec("DELETE FROM playlists WHERE user_id = ?", userID)
}

func (t *sqlStoreTx) DeleteQueueByUser(userID int64) error {
	return t.exec("DELETE FROM queue_entries WHERE user_id = ?", userID)
}

func (t *sqlStoreTx) DeleteRatingsByUser(userID int64) error {
	return t.exec("DELETE FROM ratings WHERE user_id = ?", userID)
}

func (t *sqlStoreTx) DeleteAlbumSongsByAlbum(albumID int64) error {
	return t.exec("DELETE FROM album_songs WHERE album_id = ?", albumID)
}

func (t *sqlStoreTx) DeleteAlbumSongsBySong(songID int64) error {
	return t.exec("DELETE FROM album_songs WHERE song_id = ?", songID)
}

func (t *sqlStoreTx) DeletePlaylistSongsByPlaylist(playlistID int64) error {
	return t.exec("DELETE FROM playlist_songs WHERE playlist_id = ?", playlistID)
}

func (t *sqlStoreTx) DeletePlaylistSongsBySong(songID int64) error {
	return t.exec("DELETE FROM playlist_songs WHERE song_id = ?", songID)
}

func (t *sqlStoreTx) DeleteRatingsBySong(songID int64) error {
	return t.exec("DELETE FROM ratings WHERE song_id = ?", songID)
}

func (t *sqlStoreTx) DeletePlaysBySong(songID int64) error {
	return t.exec("DELETE FROM plays WHERE song_id = ?", songID)
}
