package lifecycle

import (
	"context"

	"cassette/model"
)

// UserRepo is the user persistence surface the manager needs.
type UserRepo interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserRole(ctx context.Context, id int64, role model.Role) error
	SetUserBlacklisted(ctx context.Context, id int64, blacklisted bool) error
	SetUserDarkMode(ctx context.Context, id int64, darkMode bool) error
}

// SongRepo is the song persistence surface the manager needs.
type SongRepo interface {
	CreateSong(ctx context.Context, song *model.Song) (int64, error)
	GetSongByID(ctx context.Context, id int64) (*model.Song, error)
	UpdateSong(ctx context.Context, song *model.Song) error
	SetSongFlagged(ctx context.Context, id int64, flagged bool) error
}

// AlbumRepo is the album persistence surface the manager needs.
type AlbumRepo interface {
	CreateAlbum(ctx context.Context, album *model.Album) (int64, error)
	GetAlbumByID(ctx context.Context, id int64) (*model.Album, error)
	UpdateAlbum(ctx context.Context, album *model.Album) error
	SetAlbumFlagged(ctx context.Context, id int64, flagged bool) error
	AddAlbumSong(ctx context.Context, albumID, songID int64) error
	RemoveAlbumSong(ctx context.Context, albumID, songID int64) error
}

// PlaylistRepo is the playlist persistence surface the manager needs.
type PlaylistRepo interface {
	CreatePlaylist(ctx context.Context, playlist *model.Playlist) (int64, error)
	GetPlaylistByID(ctx context.Context, id int64) (*model.Playlist, error)
	GetPlaylistByUserAndTitle(ctx context.Context, userID int64, title string) (*model.Playlist, error)
	AddPlaylistSong(ctx context.Context, playlistID, songID int64) error
	RemovePlaylistSong(ctx context.Context, playlistID, songID int64) error
}

// QueueRepo is the queue persistence surface the manager needs.
type QueueRepo interface {
	AddQueueEntry(ctx context.Context, userID, songID int64) (int64, error)
	ClearQueueByUser(ctx context.Context, userID int64) error
}

// RatingRepo is the rating persistence surface the manager needs.
type RatingRepo interface {
	CreateRating(ctx context.Context, rating *model.Rating) (int64, error)
}

// PlayRepo is the play persistence surface the manager needs.
type PlayRepo interface {
	CreatePlay(ctx context.Context, play *model.Play) (int64, error)
}

// Store opens transactions for multi-row mutations. Every cascade runs
// inside exactly one StoreTx: either all of its statements commit or
// none do.
type Store interface {
	Begin(ctx context.Context) (StoreTx, error)
}

// StoreTx is the set of row operations available inside a transaction.
// Rollback after Commit must be a no-op so callers can defer it.
type StoreTx interface {
	Commit() error
	Rollback() error

	PlaylistIDsByUser(userID int64) ([]int64, error)
	AlbumIDsByUser(userID int64) ([]int64, error)
	SongIDsByUser(userID int64) ([]int64, error)
	SongIDsByAlbum(albumID int64) ([]int64, error)

	DeleteUser(userID int64) error
	DeleteSong(songID int64) error
	DeleteAlbum(albumID int64) error
	DeletePlaylist(playlistID int64) error

	DeletePlaylistsByUser(userID int64) error
	DeleteQueueByUser(userID int64) error
	DeleteRatingsByUser(userID int64) error

	DeleteAlbumSongsByAlbum(albumID int64) error
	DeleteAlbumSongsBySong(songID int64) error
	DeletePlaylistSongsByPlaylist(playlistID int64) error
	DeletePlaylistSongsBySong(songID int64) error
	DeleteRatingsBySong(songID int64) error
	DeletePlaysBySong(songID int64) error
}
