package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cassette/model"
)

// PlaylistRepository defines the interface for playlist data operations.
type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, playlist *model.Playlist) (int64, error)
	GetPlaylistByID(ctx context.Context, id int64) (*model.Playlist, error)
	GetPlaylistByUserAndTitle(ctx context.Context, userID int64, title string) (*model.Playlist, error)
	ListPlaylistsByUser(ctx context.Context, userID int64) ([]*model.Playlist, error)
	ListPublicPlaylists(ctx context.Context) ([]*model.Playlist, error)
	AddPlaylistSong(ctx context.Context, playlistID, songID int64) error
	RemovePlaylistSong(ctx context.Context, playlistID, songID int64) error
	GetPlaylistSongs(ctx context.Context, playlistID int64, includeFlagged bool) ([]*model.Song, error)
}

// mysqlPlaylistRepository implements PlaylistRepository for MySQL.
type mysqlPlaylistRepository struct {
	db *sql.DB
}

// NewMySQLPlaylistRepository creates a new mysqlPlaylistRepository.
func NewMySQLPlaylistRepository(db *sql.DB) PlaylistRepository {
	return &mysqlPlaylistRepository{db: db}
}

const playlistColumns = "id, user_id, title, description, access, created_at, updated_at"

func scanPlaylist(row interface{ Scan(...interface{}) error }) (*model.Playlist, error) {
	playlist := &model.Playlist{}
	var description sql.NullString
	err := row.Scan(&playlist.ID, &playlist.UserID, &playlist.Title, &description,
		&playlist.Access, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err != nil {
		return nil, err
	}
	playlist.Description = description.String
	return playlist, nil
}

// CreatePlaylist adds a new playlist to the database.
func (r *mysqlPlaylistRepository) CreatePlaylist(ctx context.Context, playlist *model.Playlist) (int64, error) {
	query := `INSERT INTO playlists (user_id, title, description, access, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		playlist.UserID, playlist.Title, playlist.Description, playlist.Access, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create playlist statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for playlist: %w", err)
	}
	return id, nil
}

// GetPlaylistByID retrieves a playlist by its ID.
func (r *mysqlPlaylistRepository) GetPlaylistByID(ctx context.Context, id int64) (*model.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE id = ?"
	playlist, err := scanPlaylist(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Playlist not found
		}
		return nil, fmt.Errorf("failed to scan playlist by ID %d: %w", id, err)
	}
	return playlist, nil
}

// GetPlaylistByUserAndTitle looks up a playlist by its owner and exact
// title, used to enforce per-owner title uniqueness.
func (r *mysqlPlaylistRepository) GetPlaylistByUserAndTitle(ctx context.Context, userID int64, title string) (*model.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE user_id = ? AND title = ?"
	playlist, err := scanPlaylist(r.db.QueryRowContext(ctx, query, userID, title))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan playlist for user %d title %q: %w", userID, title, err)
	}
	return playlist, nil
}

// ListPlaylistsByUser retrieves all playlists owned by a user.
func (r *mysqlPlaylistRepository) ListPlaylistsByUser(ctx context.Context, userID int64) ([]*model.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE user_id = ? ORDER BY created_at DESC"
	return r.queryPlaylists(ctx, query, userID)
}

// ListPublicPlaylists retrieves every playlist with public access.
func (r *mysqlPlaylistRepository) ListPublicPlaylists(ctx context.Context) ([]*model.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE access = ? ORDER BY created_at DESC"
	return r.queryPlaylists(ctx, query, model.AccessPublic)
}

func (r *mysqlPlaylistRepository) queryPlaylists(ctx context.Context, query string, args ...interface{}) ([]*model.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]*model.Playlist, 0)
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during playlist rows iteration: %w", err)
	}
	return playlists, nil
}

// AddPlaylistSong links a song into a playlist.
func (r *mysqlPlaylistRepository) AddPlaylistSong(ctx context.Context, playlistID, songID int64) error {
	_, err := r.db.ExecContext(ctx, "INSERT INTO playlist_songs (playlist_id, song_id) VALUES (?, ?)", playlistID, songID)
	if err != nil {
		return fmt.Errorf("failed to add song %d to playlist %d: %w", songID, playlistID, err)
	}
	return nil
}

// RemovePlaylistSong drops a song from a playlist.
func (r *mysqlPlaylistRepository) RemovePlaylistSong(ctx context.Context, playlistID, songID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?", playlistID, songID)
	if err != nil {
		return fmt.Errorf("failed to remove song %d from playlist %d: %w", songID, playlistID, err)
	}
	return nil
}

// GetPlaylistSongs retrieves the member songs of a playlist in the
// order they were added. Flagged members are hidden unless
// includeFlagged is set.
func (r *mysqlPlaylistRepository) GetPlaylistSongs(ctx context.Context, playlistID int64, includeFlagged bool) ([]*model.Song, error) {
	query := `SELECT s.id, s.user_id, s.title, s.singer, s.genre, s.release_date, s.duration,
	           s.file_path, s.lyrics, s.cover_path, s.flagged, s.created_at, s.updated_at
	           FROM songs s JOIN playlist_songs pls ON pls.song_id = s.id
	           WHERE pls.playlist_id = ?`
	if !includeFlagged {
		query += " AND s.flagged = false"
	}
	query += " ORDER BY pls.id"
	rows, err := r.db.QueryContext(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs for playlist %d: %w", playlistID, err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist song row: %w", err)
		}
		songs = append(songs, song)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during playlist song rows iteration: %w", err)
	}
	return songs, nil
}
