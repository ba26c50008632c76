package lifecycle

import (
	"context"

	"cassette/core/access"
	"cassette/core/fault"
	"cassette/logger"
	"cassette/model"
)

// CreateSong stores a new song owned by the actor. Only creators may
// upload.
func (m *Manager) CreateSong(ctx context.Context, actor Actor, song *model.Song) (*model.Song, error) {
	if err := access.Authorize(actor.Role, access.UploadSong, true); err != nil {
		return nil, err
	}
	if err := validateSong(song); err != nil {
		return nil, err
	}

	song.UserID = actor.ID
	song.Flagged = false
	id, err := m.songs.CreateSong(ctx, song)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to create song", err)
	}
	song.ID = id

	logger.Info("song created", logger.Int64("songId", id), logger.Int64("userId", actor.ID))
	return song, nil
}

// UpdateSong applies new metadata to a song the actor owns.
func (m *Manager) UpdateSong(ctx context.Context, actor Actor, song *model.Song) (*model.Song, error) {
	current, err := m.songs.GetSongByID(ctx, song.ID)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to look up song", err)
	}
	if current == nil {
		return nil, fault.Newf(fault.NotFound, "song %d does not exist", song.ID)
	}
	if err := access.Authorize(actor.Role, access.EditSong, current.UserID == actor.ID); err != nil {
		return nil, err
	}
	if err := validateSong(song); err != nil {
		return nil, err
	}

	current.Title = song.Title
	current.Singer = song.Singer
	current.Genre = song.Genre
	current.ReleaseDate = song.ReleaseDate
	current.Lyrics = song.Lyrics
	if song.FilePath != "" {
		current.FilePath = song.FilePath
		current.Duration = song.Duration
	}
	if song.CoverPath != "" {
		current.CoverPath = song.CoverPath
	}

	if err := m.songs.UpdateSong(ctx, current); err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to update song", err)
	}
	return current, nil
}

// DeleteSong removes a song and every playlist, album, rating and play
// row referencing it, atomically. Admins may delete any song, creators
// only their own.
func (m *Manager) DeleteSong(ctx context.Context, actor Actor, songID int64) error {
	song, err := m.songs.GetSongByID(ctx, songID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up song", err)
	}
	if song == nil {
		return fault.Newf(fault.NotFound, "song %d does not exist", songID)
	}
	if err := access.Authorize(actor.Role, access.DeleteSong, song.UserID == actor.ID); err != nil {
		return err
	}

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to open transaction", err)
	}
	defer tx.Rollback()

	if err := purgeSong(tx, songID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to delete song", err)
	}
	if err := tx.Commit(); err != nil {
		return fault.Wrap(fault.Persistence, "failed to commit song deletion", err)
	}

	logger.Info("song deleted", logger.Int64("songId", songID), logger.Int64("actorId", actor.ID))
	return nil
}

// ToggleSongFlag flips the visibility flag on a song. Admin only; data
// is never deleted, listings just stop showing the song.
func (m *Manager) ToggleSongFlag(ctx context.Context, actor Actor, songID int64) (*model.Song, error) {
	if err := access.Authorize(actor.Role, access.FlagContent, false); err != nil {
		return nil, err
	}

	song, err := m.songs.GetSongByID(ctx, songID)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to look up song", err)
	}
	if song == nil {
		return nil, fault.Newf(fault.NotFound, "song %d does not exist", songID)
	}

	if err := m.songs.SetSongFlagged(ctx, songID, !song.Flagged); err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to update flag", err)
	}
	song.Flagged = !song.Flagged

	logger.Info("song flag toggled", logger.Int64("songId", songID), logger.Bool("flagged", song.Flagged))
	return song, nil
}

// CreateAlbum stores a new album owned by the actor.
func (m *Manager) CreateAlbum(ctx context.Context, actor Actor, album *model.Album) (*model.Album, error) {
	if err := access.Authorize(actor.Role, access.UploadAlbum, true); err != nil {
		return nil, err
	}
	if album.Title == "" || album.Genre == "" {
		return nil, fault.New(fault.Validation, "album title and genre are required")
	}

	album.UserID = actor.ID
	album.Flagged = false
	id, err := m.albums.CreateAlbum(ctx, album)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to create album", err)
	}
	album.ID = id

	logger.Info("album created", logger.Int64("albumId", id), logger.Int64("userId", actor.ID))
	return album, nil
}

// UpdateAlbum applies new metadata to an album the actor owns.
func (m *Manager) UpdateAlbum(ctx context.Context, actor Actor, album *model.Album) (*model.Album, error) {
	current, err := m.albums.GetAlbumByID(ctx, album.ID)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to look up album", err)
	}
	if current == nil {
		return nil, fault.Newf(fault.NotFound, "album %d does not exist", album.ID)
	}
	if err := access.Authorize(actor.Role, access.EditAlbum, current.UserID == actor.ID); err != nil {
		return nil, err
	}
	if album.Title == "" || album.Genre == "" {
		return nil, fault.New(fault.Validation, "album title and genre are required")
	}

	current.Title = album.Title
	current.Genre = album.Genre
	current.Description = album.Description
	current.ReleaseDate = album.ReleaseDate
	if album.CoverPath != "" {
		current.CoverPath = album.CoverPath
	}

	if err := m.albums.UpdateAlbum(ctx, current); err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to update album", err)
	}
	return current, nil
}

// DeleteAlbum removes an album, its join rows and all of its member
// songs in one transaction. Admins may delete any album, creators only
// their own.
func (m *Manager) DeleteAlbum(ctx context.Context, actor Actor, albumID int64) error {
	album, err := m.albums.GetAlbumByID(ctx, albumID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up album", err)
	}
	if album == nil {
		return fault.Newf(fault.NotFound, "album %d does not exist", albumID)
	}
	if err := access.Authorize(actor.Role, access.DeleteAlbum, album.UserID == actor.ID); err != nil {
		return err
	}

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to open transaction", err)
	}
	defer tx.Rollback()

	songIDs, err := tx.SongIDsByAlbum(albumID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to list album songs", err)
	}
	for _, songID := range songIDs {
		if err := purgeSong(tx, songID); err != nil {
			return fault.Wrap(fault.Persistence, "failed to delete album song", err)
		}
	}
	if err := tx.DeleteAlbumSongsByAlbum(albumID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to delete album joins", err)
	}
	if err := tx.DeleteAlbum(albumID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to delete album", err)
	}
	if err := tx.Commit(); err != nil {
		return fault.Wrap(fault.Persistence, "failed to commit album deletion", err)
	}

	logger.Info("album deleted", logger.Int64("albumId", albumID), logger.Int64("actorId", actor.ID))
	return nil
}

// ToggleAlbumFlag flips the visibility flag on an album. Admin only.
func (m *Manager) ToggleAlbumFlag(ctx context.Context, actor Actor, albumID int64) (*model.Album, error) {
	if err := access.Authorize(actor.Role, access.FlagContent, false); err != nil {
		return nil, err
	}

	album, err := m.albums.GetAlbumByID(ctx, albumID)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to look up album", err)
	}
	if album == nil {
		return nil, fault.Newf(fault.NotFound, "album %d does not exist", albumID)
	}

	if err := m.albums.SetAlbumFlagged(ctx, albumID, !album.Flagged); err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to update flag", err)
	}
	album.Flagged = !album.Flagged

	logger.Info("album flag toggled", logger.Int64("albumId", albumID), logger.Bool("flagged", album.Flagged))
	return album, nil
}

// AddSongToAlbum links a song into an album. Both must belong to the
// acting creator.
func (m *Manager) AddSongToAlbum(ctx context.Context, actor Actor, albumID, songID int64) error {
	album, err := m.albums.GetAlbumByID(ctx, albumID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up album", err)
	}
	if album == nil {
		return fault.Newf(fault.NotFound, "album %d does not exist", albumID)
	}
	song, err := m.songs.GetSongByID(ctx, songID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up song", err)
	}
	if song == nil {
		return fault.Newf(fault.NotFound, "song %d does not exist", songID)
	}
	owns := album.UserID == actor.ID && song.UserID == actor.ID
	if err := access.Authorize(actor.Role, access.EditAlbum, owns); err != nil {
		return err
	}

	if err := m.albums.AddAlbumSong(ctx, albumID, songID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to add song to album", err)
	}
	return nil
}

// RemoveSongFromAlbum drops the album membership of a song; the song
// itself stays.
func (m *Manager) RemoveSongFromAlbum(ctx context.Context, actor Actor, albumID, songID int64) error {
	album, err := m.albums.GetAlbumByID(ctx, albumID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up album", err)
	}
	if album == nil {
		return fault.Newf(fault.NotFound, "album %d does not exist", albumID)
	}
	if err := access.Authorize(actor.Role, access.EditAlbum, album.UserID == actor.ID); err != nil {
		return err
	}

	if err := m.albums.RemoveAlbumSong(ctx, albumID, songID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to remove song from album", err)
	}
	return nil
}

func validateSong(song *model.Song) error {
	if song.Title == "" || song.Singer == "" || song.Genre == "" {
		return fault.New(fault.Validation, "song title, singer and genre are required")
	}
	if song.Duration < 0 {
		return fault.New(fault.Validation, "song duration cannot be negative")
	}
	if song.FilePath == "" && song.ID == 0 {
		return fault.New(fault.Validation, "song file is required")
	}
	return nil
}
