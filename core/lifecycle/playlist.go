package lifecycle

import (
	"context"

	"cassette/core/access"
	"cassette/core/fault"
	"cassette/logger"
	"cassette/model"
)

// CreatePlaylist stores a new playlist owned by the actor. Titles are
// unique per owner.
func (m *Manager) CreatePlaylist(ctx context.Context, actor Actor, playlist *model.Playlist) (*model.Playlist, error) {
	if err := access.Authorize(actor.Role, access.CreatePlaylist, true); err != nil {
		return nil, err
	}
	if playlist.Title == "" {
		return nil, fault.New(fault.Validation, "playlist title is required")
	}
	if playlist.Access != model.AccessPublic && playlist.Access != model.AccessPrivate {
		return nil, fault.New(fault.Validation, "playlist access must be public or private")
	}

	existing, err := m.playlists.GetPlaylistByUserAndTitle(ctx, actor.ID, playlist.Title)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to look up playlist", err)
	}
	if existing != nil {
		return nil, fault.Newf(fault.Conflict, "playlist %q already exists", playlist.Title)
	}

	playlist.UserID = actor.ID
	id, err := m.playlists.CreatePlaylist(ctx, playlist)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to create playlist", err)
	}
	playlist.ID = id

	logger.Info("playlist created", logger.Int64("playlistId", id), logger.Int64("userId", actor.ID))
	return playlist, nil
}

// DeletePlaylist removes a playlist and its join rows atomically.
// Admins may delete any playlist, owners their own.
func (m *Manager) DeletePlaylist(ctx context.Context, actor Actor, playlistID int64) error {
	playlist, err := m.playlists.GetPlaylistByID(ctx, playlistID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up playlist", err)
	}
	if playlist == nil {
		return fault.Newf(fault.NotFound, "playlist %d does not exist", playlistID)
	}
	if err := access.Authorize(actor.Role, access.DeletePlaylist, playlist.UserID == actor.ID); err != nil {
		return err
	}

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to open transaction", err)
	}
	defer tx.Rollback()

	if err := tx.DeletePlaylistSongsByPlaylist(playlistID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to delete playlist joins", err)
	}
	if err := tx.DeletePlaylist(playlistID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to delete playlist", err)
	}
	if err := tx.Commit(); err != nil {
		return fault.Wrap(fault.Persistence, "failed to commit playlist deletion", err)
	}

	logger.Info("playlist deleted", logger.Int64("playlistId", playlistID), logger.Int64("actorId", actor.ID))
	return nil
}

// AddSongToPlaylist links a song into a playlist the actor owns.
// Flagged songs cannot be added.
func (m *Manager) AddSongToPlaylist(ctx context.Context, actor Actor, playlistID, songID int64) error {
	playlist, err := m.playlists.GetPlaylistByID(ctx, playlistID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up playlist", err)
	}
	if playlist == nil {
		return fault.Newf(fault.NotFound, "playlist %d does not exist", playlistID)
	}
	if playlist.UserID != actor.ID {
		return fault.New(fault.Authorization, "can only modify your own playlists")
	}

	song, err := m.songs.GetSongByID(ctx, songID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up song", err)
	}
	if song == nil {
		return fault.Newf(fault.NotFound, "song %d does not exist", songID)
	}
	if song.Flagged {
		return fault.New(fault.Validation, "song is not available")
	}

	if err := m.playlists.AddPlaylistSong(ctx, playlistID, songID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to add song to playlist", err)
	}
	return nil
}

// RemoveSongFromPlaylist drops a song from a playlist the actor owns.
func (m *Manager) RemoveSongFromPlaylist(ctx context.Context, actor Actor, playlistID, songID int64) error {
	playlist, err := m.playlists.GetPlaylistByID(ctx, playlistID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up playlist", err)
	}
	if playlist == nil {
		return fault.Newf(fault.NotFound, "playlist %d does not exist", playlistID)
	}
	if playlist.UserID != actor.ID {
		return fault.New(fault.Authorization, "can only modify your own playlists")
	}

	if err := m.playlists.RemovePlaylistSong(ctx, playlistID, songID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to remove song from playlist", err)
	}
	return nil
}

// AddToQueue appends a song to the actor's playback queue.
func (m *Manager) AddToQueue(ctx context.Context, actor Actor, songID int64) error {
	song, err := m.songs.GetSongByID(ctx, songID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up song", err)
	}
	if song == nil {
		return fault.Newf(fault.NotFound, "song %d does not exist", songID)
	}

	if _, err := m.queue.AddQueueEntry(ctx, actor.ID, songID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to add song to queue", err)
	}
	return nil
}

// ClearQueue drops every queue entry of the actor. Called on logout.
func (m *Manager) ClearQueue(ctx context.Context, actor Actor) error {
	if err := m.queue.ClearQueueByUser(ctx, actor.ID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to clear queue", err)
	}
	return nil
}

// Rate appends a rating event for a song. Values outside 0..5 are
// rejected before anything is persisted; admins do not rate.
func (m *Manager) Rate(ctx context.Context, actor Actor, songID int64, value int) error {
	if err := access.Authorize(actor.Role, access.RateSong, false); err != nil {
		return err
	}
	if value < 0 || value > 5 {
		return fault.Newf(fault.Validation, "rating must be between 0 and 5, got %d", value)
	}

	song, err := m.songs.GetSongByID(ctx, songID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up song", err)
	}
	if song == nil {
		return fault.Newf(fault.NotFound, "song %d does not exist", songID)
	}

	rating := &model.Rating{
		Rating:    value,
		UserID:    actor.ID,
		SongID:    songID,
		CreatedAt: nowUTC(),
	}
	if _, err := m.ratings.CreateRating(ctx, rating); err != nil {
		return fault.Wrap(fault.Persistence, "failed to store rating", err)
	}

	logger.Info("song rated",
		logger.Int64("songId", songID),
		logger.Int64("userId", actor.ID),
		logger.Int("rating", value))
	return nil
}

// RecordPlay appends a play row for a stream event. Triggered by the
// presentation layer when a stream starts.
func (m *Manager) RecordPlay(ctx context.Context, actor Actor, songID int64) error {
	song, err := m.songs.GetSongByID(ctx, songID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up song", err)
	}
	if song == nil {
		return fault.Newf(fault.NotFound, "song %d does not exist", songID)
	}

	play := &model.Play{
		PlayCount: 1,
		UserID:    actor.ID,
		SongID:    songID,
		CreatedAt: nowUTC(),
	}
	if _, err := m.plays.CreatePlay(ctx, play); err != nil {
		return fault.Wrap(fault.Persistence, "failed to record play", err)
	}
	return nil
}
