package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cassette/model"
)

// AlbumRepository defines the interface for album data operations.
type AlbumRepository interface {
	CreateAlbum(ctx context.Context, album *model.Album) (int64, error)
	GetAlbumByID(ctx context.Context, id int64) (*model.Album, error)
	ListAlbums(ctx context.Context, includeFlagged bool) ([]*model.Album, error)
	ListAlbumsByUser(ctx context.Context, userID int64) ([]*model.Album, error)
	UpdateAlbum(ctx context.Context, album *model.Album) error
	SetAlbumFlagged(ctx context.Context, id int64, flagged bool) error
	AddAlbumSong(ctx context.Context, albumID, songID int64) error
	RemoveAlbumSong(ctx context.Context, albumID, songID int64) error
	GetAlbumSongs(ctx context.Context, albumID int64, includeFlagged bool) ([]*model.Song, error)
	CountAlbums(ctx context.Context) (int64, error)
}

// mysqlAlbumRepository implements AlbumRepository for MySQL.
type mysqlAlbumRepository struct {
	db *sql.DB
}

// NewMySQLAlbumRepository creates a new mysqlAlbumRepository.
func NewMySQLAlbumRepository(db *sql.DB) AlbumRepository {
	return &mysqlAlbumRepository{db: db}
}

const albumColumns = "id, user_id, title, genre, cover_path, description, release_date, flagged, created_at, updated_at"

func scanAlbum(row interface{ Scan(...interface{}) error }) (*model.Album, error) {
	album := &model.Album{}
	var coverPath, description sql.NullString
	err := row.Scan(&album.ID, &album.UserID, &album.Title, &album.Genre,
		&coverPath, &description, &album.ReleaseDate, &album.Flagged,
		&album.CreatedAt, &album.UpdatedAt)
	if err != nil {
		return nil, err
	}
	album.CoverPath = coverPath.String
	album.Description = description.String
	return album, nil
}

// CreateAlbum adds a new album to the database.
func (r *mysqlAlbumRepository) CreateAlbum(ctx context.Context, album *model.Album) (int64, error) {
	query := `INSERT INTO albums (user_id, title, genre, cover_path, description, release_date, flagged, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		album.UserID, album.Title, album.Genre, album.CoverPath,
		album.Description, album.ReleaseDate, album.Flagged, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create album statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for album: %w", err)
	}
	return id, nil
}

// GetAlbumByID retrieves an album by its ID.
func (r *mysqlAlbumRepository) GetAlbumByID(ctx context.Context, id int64) (*model.Album, error) {
	query := "SELECT " + albumColumns + " FROM albums WHERE id = ?"
	album, err := scanAlbum(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Album not found
		}
		return nil, fmt.Errorf("failed to scan album by ID %d: %w", id, err)
	}
	return album, nil
}

// ListAlbums retrieves albums, newest first. Flagged albums are hidden
// unless includeFlagged is set.
func (r *mysqlAlbumRepository) ListAlbums(ctx context.Context, includeFlagged bool) ([]*model.Album, error) {
	query := "SELECT " + albumColumns + " FROM albums"
	if !includeFlagged {
		query += " WHERE flagged = false"
	}
	query += " ORDER BY created_at DESC"
	return r.queryAlbums(ctx, query)
}

// ListAlbumsByUser retrieves all albums owned by a user.
func (r *mysqlAlbumRepository) ListAlbumsByUser(ctx context.Context, userID int64) ([]*model.Album, error) {
	query := "SELECT " + albumColumns + " FROM albums WHERE user_id = ? ORDER BY created_at DESC"
	return r.queryAlbums(ctx, query, userID)
}

func (r *mysqlAlbumRepository) queryAlbums(ctx context.Context, query string, args ...interface{}) ([]*model.Album, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	albums := make([]*model.Album, 0)
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album row: %w", err)
		}
		albums = append(albums, album)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during album rows iteration: %w", err)
	}
	return albums, nil
}

// UpdateAlbum stores new metadata for an album.
func (r *mysqlAlbumRepository) UpdateAlbum(ctx context.Context, album *model.Album) error {
	query := `UPDATE albums SET title = ?, genre = ?, cover_path = ?, description = ?,
	           release_date = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		album.Title, album.Genre, album.CoverPath, album.Description,
		album.ReleaseDate, time.Now(), album.ID)
	if err != nil {
		return fmt.Errorf("failed to execute update album for ID %d: %w", album.ID, err)
	}
	return nil
}

// SetAlbumFlagged sets the visibility flag on an album.
func (r *mysqlAlbumRepository) SetAlbumFlagged(ctx context.Context, id int64, flagged bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE albums SET flagged = ?, updated_at = NOW() WHERE id = ?", flagged, id)
	if err != nil {
		return fmt.Errorf("failed to update flag for album %d: %w", id, err)
	}
	return nil
}

// AddAlbumSong links a song into an album.
func (r *mysqlAlbumRepository) AddAlbumSong(ctx context.Context, albumID, songID int64) error {
	_, err := r.db.ExecContext(ctx, "INSERT INTO album_songs (album_id, song_id) VALUES (?, ?)", albumID, songID)
	if err != nil {
		return fmt.Errorf("failed to add song %d to album %d: %w", songID, albumID, err)
	}
	return nil
}

// RemoveAlbumSong drops a song from an album.
func (r *mysqlAlbumRepository) RemoveAlbumSong(ctx context.Context, albumID, songID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM album_songs WHERE album_id = ? AND song_id = ?", albumID, songID)
	if err != nil {
		return fmt.Errorf("failed to remove song %d from album %d: %w", songID, albumID, err)
	}
	return nil
}

// GetAlbumSongs retrieves the member songs of an album in join order.
// Flagged members are hidden unless includeFlagged is set.
func (r *mysqlAlbumRepository) GetAlbumSongs(ctx context.Context, albumID int64, includeFlagged bool) ([]*model.Song, error) {
	query := `SELECT s.id, s.user_id, s.title, s.singer, s.genre, s.release_date, s.duration,
	           s.file_path, s.lyrics, s.cover_path, s.flagged, s.created_at, s.updated_at
	           FROM songs s JOIN album_songs als ON als.song_id = s.id
	           WHERE als.album_id = ?`
	if !includeFlagged {
		query += " AND s.flagged = false"
	}
	query += " ORDER BY als.id"
	rows, err := r.db.QueryContext(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs for album %d: %w", albumID, err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album song row: %w", err)
		}
		songs = append(songs, song)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during album song rows iteration: %w", err)
	}
	return songs, nil
}

// CountAlbums counts every album in the catalog.
func (r *mysqlAlbumRepository) CountAlbums(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM albums").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count albums: %w", err)
	}
	return count, nil
}
