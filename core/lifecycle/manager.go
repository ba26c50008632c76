// Package lifecycle enforces the create/update/delete rules for every
// entity in the catalog. All operations take the acting user
// explicitly; authorization and self-protection checks run before any
// transaction is opened, and every cascade is a single all-or-nothing
// store transaction.
package lifecycle

import (
	"context"
	"strings"
	"time"

	"cassette/core/access"
	"cassette/core/auth"
	"cassette/core/fault"
	"cassette/logger"
	"cassette/model"
)

// Actor identifies the user performing an operation.
type Actor struct {
	ID   int64
	Role model.Role
}

// Manager coordinates the lifecycle operations over the repositories.
type Manager struct {
	users     UserRepo
	songs     SongRepo
	albums    AlbumRepo
	playlists PlaylistRepo
	queue     QueueRepo
	ratings   RatingRepo
	plays     PlayRepo
	store     Store
}

// NewManager creates a lifecycle manager.
func NewManager(users UserRepo, songs SongRepo, albums AlbumRepo, playlists PlaylistRepo, queue QueueRepo, ratings RatingRepo, plays PlayRepo, store Store) *Manager {
	return &Manager{
		users:     users,
		songs:     songs,
		albums:    albums,
		playlists: playlists,
		queue:     queue,
		ratings:   ratings,
		plays:     plays,
		store:     store,
	}
}

// Register creates a standard account. Email must look like an email
// and be unused; the password is stored as a bcrypt hash.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, fault.New(fault.Validation, "name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, fault.New(fault.Validation, "enter a valid email")
	}

	existing, err := m.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to look up email", err)
	}
	if existing != nil {
		return nil, fault.New(fault.Conflict, "email already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to hash password", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleStandard,
	}
	id, err := m.users.CreateUser(ctx, user)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to create account", err)
	}
	user.ID = id

	logger.Info("user registered", logger.Int64("userId", id), logger.String("email", email))
	return user, nil
}

// Authenticate verifies credentials and the blacklist flag. A
// blacklisted user is denied regardless of credential correctness.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	if !strings.Contains(email, "@") {
		return nil, fault.New(fault.Validation, "enter a valid email")
	}

	user, err := m.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to look up user", err)
	}
	if user == nil || !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, fault.New(fault.Authorization, "invalid credentials")
	}
	if user.Blacklisted {
		logger.Warn("blacklisted login attempt", logger.Int64("userId", user.ID))
		return nil, fault.New(fault.Authorization, "account is blacklisted, contact the admin")
	}
	return user, nil
}

// DeleteUser removes a user and everything they own: playlists and
// their joins, queue entries, ratings, owned albums with their songs,
// remaining owned songs, then the user row. Admin only, never self.
func (m *Manager) DeleteUser(ctx context.Context, actor Actor, targetID int64) error {
	if err := access.Authorize(actor.Role, access.ManageUsers, false); err != nil {
		return err
	}
	if actor.ID == targetID {
		return fault.New(fault.Authorization, "cannot delete your own account")
	}

	target, err := m.users.GetUserByID(ctx, targetID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to look up user", err)
	}
	if target == nil {
		return fault.Newf(fault.NotFound, "user %d does not exist", targetID)
	}

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return fault.Wrap(fault.Persistence, "failed to open transaction", err)
	}
	defer tx.Rollback()

	if err := m.deleteUserRows(tx, targetID); err != nil {
		return fault.Wrap(fault.Persistence, "failed to delete user", err)
	}
	if err := tx.Commit(); err != nil {
		return fault.Wrap(fault.Persistence, "failed to commit user deletion", err)
	}

	logger.Info("user deleted",
		logger.Int64("userId", targetID),
		logger.Int64("actorId", actor.ID))
	return nil
}

func (m *Manager) deleteUserRows(tx StoreTx, userID int64) error {
	playlistIDs, err := tx.PlaylistIDsByUser(userID)
	if err != nil {
		return err
	}
	for _, playlistID := range playlistIDs {
		if err := tx.DeletePlaylistSongsByPlaylist(playlistID); err != nil {
			return err
		}
	}
	if err := tx.DeletePlaylistsByUser(userID); err != nil {
		return err
	}
	if err := tx.DeleteQueueByUser(userID); err != nil {
		return err
	}
	if err := tx.DeleteRatingsByUser(userID); err != nil {
		return err
	}

	albumIDs, err := tx.AlbumIDsByUser(userID)
	if err != nil {
		return err
	}
	for _, albumID := range albumIDs {
		songIDs, err := tx.SongIDsByAlbum(albumID)
		if err != nil {
			return err
		}
		for _, songID := range songIDs {
			if err := purgeSong(tx, songID); err != nil {
				return err
			}
		}
		if err := tx.DeleteAlbumSongsByAlbum(albumID); err != nil {
			return err
		}
		if err := tx.DeleteAlbum(albumID); err != nil {
			return err
		}
	}

	// Singles that never made it onto an album.
	songIDs, err := tx.SongIDsByUser(userID)
	if err != nil {
		return err
	}
	for _, songID := range songIDs {
		if err := purgeSong(tx, songID); err != nil {
			return err
		}
	}

	return tx.DeleteUser(userID)
}

// purgeSong removes a song row and every row referencing it.
func purgeSong(tx StoreTx, songID int64) error {
	if err := tx.DeletePlaylistSongsBySong(songID); err != nil {
		return err
	}
	if err := tx.DeleteAlbumSongsBySong(songID); err != nil {
		return err
	}
	if err := tx.DeleteRatingsBySong(songID); err != nil {
		return err
	}
	if err := tx.DeletePlaysBySong(songID); err != nil {
		return err
	}
	return tx.DeleteSong(songID)
}

// ToggleBlacklist flips the blacklist flag on the target account.
// Admin only, never self. Applying it twice restores the original state.
func (m *Manager) ToggleBlacklist(ctx context.Context, actor Actor, targetID int64) (*model.User, error) {
	if err := access.Authorize(actor.Role, access.ManageUsers, false); err != nil {
		return nil, err
	}
	if actor.ID == targetID {
		return nil, fault.New(fault.Authorization, "cannot blacklist your own account")
	}

	target, err := m.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to look up user", err)
	}
	if target == nil {
		return nil, fault.Newf(fault.NotFound, "user %d does not exist", targetID)
	}

	if err := m.users.SetUserBlacklisted(ctx, targetID, !target.Blacklisted); err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to update blacklist flag", err)
	}
	target.Blacklisted = !target.Blacklisted

	logger.Info("blacklist toggled",
		logger.Int64("userId", targetID),
		logger.Bool("blacklisted", target.Blacklisted))
	return target, nil
}

// UpgradeToCreator performs the one-way standard-to-creator role
// change. Calling it while already a creator is a no-op returning the
// current state; an admin account cannot change role.
func (m *Manager) UpgradeToCreator(ctx context.Context, actor Actor) (*model.User, error) {
	user, err := m.users.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to look up user", err)
	}
	if user == nil {
		return nil, fault.Newf(fault.NotFound, "user %d does not exist", actor.ID)
	}

	switch user.Role {
	case model.RoleCreator:
		return user, nil
	case model.RoleStandard:
		if err := m.users.UpdateUserRole(ctx, user.ID, model.RoleCreator); err != nil {
			return nil, fault.Wrap(fault.Persistence, "failed to update role", err)
		}
		user.Role = model.RoleCreator
		logger.Info("user upgraded to creator", logger.Int64("userId", user.ID))
		return user, nil
	default:
		return nil, fault.New(fault.Authorization, "admin account cannot change role")
	}
}

// SetDarkMode stores the actor's display preference.
func (m *Manager) SetDarkMode(ctx context.Context, actor Actor, enabled bool) error {
	if err := m.users.SetUserDarkMode(ctx, actor.ID, enabled); err != nil {
		return fault.Wrap(fault.Persistence, "failed to update dark mode", err)
	}
	return nil
}

func nowUTC() time.Time { return time.Now().UTC() }
