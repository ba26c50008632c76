package lifecycle

import (
	"context"
	"errors"
	"testing"

	"cassette/core/auth"
	"cassette/core/fault"
	"cassette/model"
)

type join struct {
	parent int64
	child  int64
}

// tables is the in-memory row set backing the fake store.
type tables struct {
	users         map[int64]*model.User
	songs         map[int64]*model.Song
	albums        map[int64]*model.Album
	playlists     map[int64]*model.Playlist
	albumSongs    []join
	playlistSongs []join
	queue         []model.QueueEntry
	ratings       []model.Rating
	plays         []model.Play
}

func newTables() *tables {
	return &tables{
		users:     map[int64]*model.User{},
		songs:     map[int64]*model.Song{},
		albums:    map[int64]*model.Album{},
		playlists: map[int64]*model.Playlist{},
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for id, u := range t.users {
		copied := *u
		c.users[id] = &copied
	}
	for id, s := range t.songs {
		copied := *s
		c.songs[id] = &copied
	}
	for id, a := range t.albums {
		copied := *a
		c.albums[id] = &copied
	}
	for id, p := range t.playlists {
		copied := *p
		c.playlists[id] = &copied
	}
	c.albumSongs = append(c.albumSongs, t.albumSongs...)
	c.playlistSongs = append(c.playlistSongs, t.playlistSongs...)
	c.queue = append(c.queue, t.queue...)
	c.ratings = append(c.ratings, t.ratings...)
	c.plays = append(c.plays, t.plays...)
	return c
}

// memStore implements every repository interface and the transactional
// store over in-memory tables. Transactions mutate a clone and swap it
// in on Commit, so a mid-cascade failure leaves the original untouched.
type memStore struct {
	data   *tables
	nextID int64
	failOn string // StoreTx method to fail, "" for none
}

func newMemStore() *memStore {
	return &memStore{data: newTables()}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// UserRepo

func (s *memStore) CreateUser(_ context.Context, user *model.User) (int64, error) {
	id := s.id()
	copied := *user
	copied.ID = id
	s.data.users[id] = &copied
	return id, nil
}

func (s *memStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := s.data.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range s.data.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) UpdateUserRole(_ context.Context, id int64, role model.Role) error {
	s.data.users[id].Role = role
	return nil
}

func (s *memStore) SetUserBlacklisted(_ context.Context, id int64, blacklisted bool) error {
	s.data.users[id].Blacklisted = blacklisted
	return nil
}

func (s *memStore) SetUserDarkMode(_ context.Context, id int64, darkMode bool) error {
	s.data.users[id].DarkMode = darkMode
	return nil
}

// SongRepo

func (s *memStore) CreateSong(_ context.Context, song *model.Song) (int64, error) {
	id := s.id()
	copied := *song
	copied.ID = id
	s.data.songs[id] = &copied
	return id, nil
}

func (s *memStore) GetSongByID(_ context.Context, id int64) (*model.Song, error) {
	if song, ok := s.data.songs[id]; ok {
		copied := *song
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) UpdateSong(_ context.Context, song *model.Song) error {
	copied := *song
	s.data.songs[song.ID] = &copied
	return nil
}

func (s *memStore) SetSongFlagged(_ context.Context, id int64, flagged bool) error {
	s.data.songs[id].Flagged = flagged
	return nil
}

// AlbumRepo

func (s *memStore) CreateAlbum(_ context.Context, album *model.Album) (int64, error) {
	id := s.id()
	copied := *album
	copied.ID = id
	s.data.albums[id] = &copied
	return id, nil
}

func (s *memStore) GetAlbumByID(_ context.Context, id int64) (*model.Album, error) {
	if album, ok := s.data.albums[id]; ok {
		copied := *album
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) UpdateAlbum(_ context.Context, album *model.Album) error {
	copied := *album
	s.data.albums[album.ID] = &copied
	return nil
}

func (s *memStore) SetAlbumFlagged(_ context.Context, id int64, flagged bool) error {
	s.data.albums[id].Flagged = flagged
	return nil
}

func (s *memStore) AddAlbumSong(_ context.Context, albumID, songID int64) error {
	s.data.albumSongs = append(s.data.albumSongs, join{albumID, songID})
	return nil
}

func (s *memStore) RemoveAlbumSong(_ context.Context, albumID, songID int64) error {
	kept := s.data.albumSongs[:0]
	for _, j := range s.data.albumSongs {
		if j.parent != albumID || j.child != songID {
			kept = append(kept, j)
		}
	}
	s.data.albumSongs = kept
	return nil
}

// PlaylistRepo

func (s *memStore) CreatePlaylist(_ context.Context, playlist *model.Playlist) (int64, error) {
	id := s.id()
	copied := *playlist
	copied.ID = id
	s.data.playlists[id] = &copied
	return id, nil
}

func (s *memStore) GetPlaylistByID(_ context.Context, id int64) (*model.Playlist, error) {
	if p, ok := s.data.playlists[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) GetPlaylistByUserAndTitle(_ context.Context, userID int64, title string) (*model.Playlist, error) {
	for _, p := range s.data.playlists {
		if p.UserID == userID && p.Title == title {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) AddPlaylistSong(_ context.Context, playlistID, songID int64) error {
	s.data.playlistSongs = append(s.data.playlistSongs, join{playlistID, songID})
	return nil
}

func (s *memStore) RemovePlaylistSong(_ context.Context, playlistID, songID int64) error {
	kept := s.data.playlistSongs[:0]
	for _, j := range s.data.playlistSongs {
		if j.parent != playlistID || j.child != songID {
			kept = append(kept, j)
		}
	}
	s.data.playlistSongs = kept
	return nil
}

// QueueRepo

func (s *memStore) AddQueueEntry(_ context.Context, userID, songID int64) (int64, error) {
	id := s.id()
	s.data.queue = append(s.data.queue, model.QueueEntry{ID: id, UserID: userID, SongID: songID})
	return id, nil
}

func (s *memStore) ClearQueueByUser(_ context.Context, userID int64) error {
	kept := s.data.queue[:0]
	for _, e := range s.data.queue {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	s.data.queue = kept
	return nil
}

// RatingRepo

func (s *memStore) CreateRating(_ context.Context, rating *model.Rating) (int64, error) {
	id := s.id()
	copied := *rating
	copied.ID = id
	s.data.ratings = append(s.data.ratings, copied)
	return id, nil
}

// PlayRepo

func (s *memStore) CreatePlay(_ context.Context, play *model.Play) (int64, error) {
	id := s.id()
	copied := *play
	copied.ID = id
	s.data.plays = append(s.data.plays, copied)
	return id, nil
}

// Store

func (s *memStore) Begin(_ context.Context) (StoreTx, error) {
	return &memTx{store: s, work: s.data.clone()}, nil
}

type memTx struct {
	store     *memStore
	work      *tables
	committed bool
}

func (t *memTx) Commit() error {
	t.store.data = t.work
	t.committed = true
	return nil
}

func (t *memTx) Rollback() error { return nil }

func (t *memTx) fail(op string) error {
	if t.store.failOn == op {
		return errors.New("injected failure: " + op)
	}
	return nil
}

func (t *memTx) PlaylistIDsByUser(userID int64) ([]int64, error) {
	if err := t.fail("PlaylistIDsByUser"); err != nil {
		return nil, err
	}
	var ids []int64
	for id, p := range t.work.playlists {
		if p.UserID == userID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t *memTx) AlbumIDsByUser(userID int64) ([]int64, error) {
	if err := t.fail("AlbumIDsByUser"); err != nil {
		return nil, err
	}
	var ids []int64
	for id, a := range t.work.albums {
		if a.UserID == userID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t *memTx) SongIDsByUser(userID int64) ([]int64, error) {
	if err := t.fail("SongIDsByUser"); err != nil {
		return nil, err
	}
	var ids []int64
	for id, s := range t.work.songs {
		if s.UserID == userID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t *memTx) SongIDsByAlbum(albumID int64) ([]int64, error) {
	if err := t.fail("SongIDsByAlbum"); err != nil {
		return nil, err
	}
	var ids []int64
	for _, j := range t.work.albumSongs {
		if j.parent == albumID {
			ids = append(ids, j.child)
		}
	}
	return ids, nil
}

func (t *memTx) DeleteUser(userID int64) error {
	if err := t.fail("DeleteUser"); err != nil {
		return err
	}
	delete(t.work.users, userID)
	return nil
}

func (t *memTx) DeleteSong(songID int64) error {
	if err := t.fail("DeleteSong"); err != nil {
		return err
	}
	delete(t.work.songs, songID)
	return nil
}

func (t *memTx) DeleteAlbum(albumID int64) error {
	if err := t.fail("DeleteAlbum"); err != nil {
		return err
	}
	delete(t.work.albums, albumID)
	return nil
}

func (t *memTx) DeletePlaylist(playlistID int64) error {
	if err := t.fail("DeletePlaylist"); err != nil {
		return err
	}
	delete(t.work.playlists, playlistID)
	return nil
}

func (t *memTx) DeletePlaylistsByUser(userID int64) error {
	if err := t.fail("DeletePlaylistsByUser"); err != nil {
		return err
	}
	for id, p := range t.work.playlists {
		if p.UserID == userID {
			delete(t.work.playlists, id)
		}
	}
	return nil
}

func (t *memTx) DeleteQueueByUser(userID int64) error {
	if err := t.fail("DeleteQueueByUser"); err != nil {
		return err
	}
	kept := t.work.queue[:0]
	for _, e := range t.work.queue {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	t.work.queue = kept
	return nil
}

func (t *memTx) DeleteRatingsByUser(userID int64) error {
	if err := t.fail("DeleteRatingsByUser"); err != nil {
		return err
	}
	kept := t.work.ratings[:0]
	for _, r := range t.work.ratings {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	t.work.ratings = kept
	return nil
}

func (t *memTx) DeleteAlbumSongsByAlbum(albumID int64) error {
	if err := t.fail("DeleteAlbumSongsByAlbum"); err != nil {
		return err
	}
	kept := t.work.albumSongs[:0]
	for _, j := range t.work.albumSongs {
		if j.parent != albumID {
			kept = append(kept, j)
		}
	}
	t.work.albumSongs = kept
	return nil
}

func (t *memTx) DeleteAlbumSongsBySong(songID int64) error {
	if err := t.fail("DeleteAlbumSongsBySong"); err != nil {
		return err
	}
	kept := t.work.albumSongs[:0]
	for _, j := range t.work.albumSongs {
		if j.child != songID {
			kept = append(kept, j)
		}
	}
	t.work.albumSongs = kept
	return nil
}

func (t *memTx) DeletePlaylistSongsByPlaylist(playlistID int64) error {
	if err := t.fail("DeletePlaylistSongsByPlaylist"); err != nil {
		return err
	}
	kept := t.work.playlistSongs[:0]
	for _, j := range t.work.playlistSongs {
		if j.parent != playlistID {
			kept = append(kept, j)
		}
	}
	t.work.playlistSongs = kept
	return nil
}

func (t *memTx) DeletePlaylistSongsBySong(songID int64) error {
	if err := t.fail("DeletePlaylistSongsBySong"); err != nil {
		return err
	}
	kept := t.work.playlistSongs[:0]
	for _, j := range t.work.playlistSongs {
		if j.child != songID {
			kept = append(kept, j)
		}
	}
	t.work.playlistSongs = kept
	return nil
}

func (t *memTx) DeleteRatingsBySong(songID int64) error {
	if err := t.fail("DeleteRatingsBySong"); err != nil {
		return err
	}
	kept := t.work.ratings[:0]
	for _, r := range t.work.ratings {
		if r.SongID != songID {
			kept = append(kept, r)
		}
	}
	t.work.ratings = kept
	return nil
}

func (t *memTx) DeletePlaysBySong(songID int64) error {
	if err := t.fail("DeletePlaysBySong"); err != nil {
		return err
	}
	kept := t.work.plays[:0]
	for _, p := range t.work.plays {
		if p.SongID != songID {
			kept = append(kept, p)
		}
	}
	t.work.plays = kept
	return nil
}

func newTestManager() (*Manager, *memStore) {
	store := newMemStore()
	m := NewManager(store, store, store, store, store, store, store, store)
	return m, store
}

func seedUser(store *memStore, role model.Role, email string) *model.User {
	hash, _ := auth.HashPassword("password")
	user := &model.User{Name: "user", Email: email, PasswordHash: hash, Role: role}
	id, _ := store.CreateUser(context.Background(), user)
	user.ID = id
	return user
}

func seedSong(store *memStore, ownerID int64, title string) *model.Song {
	song := &model.Song{UserID: ownerID, Title: title, Singer: "singer", Genre: "rock", FilePath: "audio/x.mp3"}
	id, _ := store.CreateSong(context.Background(), song)
	song.ID = id
	return song
}

func TestRegister(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	user, err := m.Register(ctx, "Alice", "alice@example.com", "password")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != model.RoleStandard {
		t.Errorf("new accounts must start as standard, got %v", user.Role)
	}
	if user.PasswordHash == "password" {
		t.Error("password must be stored hashed")
	}

	if _, err := m.Register(ctx, "Alice2", "alice@example.com", "password"); !fault.IsKind(err, fault.Conflict) {
		t.Errorf("duplicate email error = %v, want conflict", err)
	}
	if _, err := m.Register(ctx, "Bob", "not-an-email", "password"); !fault.IsKind(err, fault.Validation) {
		t.Errorf("bad email error = %v, want validation", err)
	}
	if _, err := m.Register(ctx, "", "c@example.com", "password"); !fault.IsKind(err, fault.Validation) {
		t.Errorf("empty name error = %v, want validation", err)
	}
}

func TestAuthenticate(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()
	user := seedUser(store, model.RoleStandard, "alice@example.com")

	got, err := m.Authenticate(ctx, "alice@example.com", "password")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("authenticated ID = %d, want %d", got.ID, user.ID)
	}

	if _, err := m.Authenticate(ctx, "alice@example.com", "wrong"); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("wrong password error = %v, want authorization", err)
	}
	if _, err := m.Authenticate(ctx, "nobody@example.com", "password"); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("unknown email error = %v, want authorization", err)
	}

	store.data.users[user.ID].Blacklisted = true
	if _, err := m.Authenticate(ctx, "alice@example.com", "password"); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("blacklisted error = %v, want authorization", err)
	}
}

func TestDeleteUserCascade(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	admin := seedUser(store, model.RoleAdmin, "admin@example.com")
	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	other := seedUser(store, model.RoleCreator, "other@example.com")

	albumSong := seedSong(store, creator.ID, "on album")
	single := seedSong(store, creator.ID, "single")
	foreign := seedSong(store, other.ID, "foreign")

	album := &model.Album{UserID: creator.ID, Title: "album", Genre: "rock"}
	albumID, _ := store.CreateAlbum(ctx, album)
	store.AddAlbumSong(ctx, albumID, albumSong.ID)

	playlist := &model.Playlist{UserID: creator.ID, Title: "mix", Access: model.AccessPrivate}
	playlistID, _ := store.CreatePlaylist(ctx, playlist)
	store.AddPlaylistSong(ctx, playlistID, foreign.ID)

	store.AddQueueEntry(ctx, creator.ID, foreign.ID)
	store.CreateRating(ctx, &model.Rating{Rating: 4, UserID: creator.ID, SongID: foreign.ID})
	store.CreateRating(ctx, &model.Rating{Rating: 5, UserID: other.ID, SongID: albumSong.ID})
	store.CreatePlay(ctx, &model.Play{PlayCount: 1, UserID: other.ID, SongID: single.ID})

	err := m.DeleteUser(ctx, Actor{ID: admin.ID, Role: model.RoleAdmin}, creator.ID)
	if err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}

	if _, ok := store.data.users[creator.ID]; ok {
		t.Error("user row should be gone")
	}
	if _, ok := store.data.albums[albumID]; ok {
		t.Error("owned album should be gone")
	}
	if _, ok := store.data.songs[albumSong.ID]; ok {
		t.Error("album member song should be gone")
	}
	if _, ok := store.data.songs[single.ID]; ok {
		t.Error("standalone song should be gone")
	}
	if _, ok := store.data.playlists[playlistID]; ok {
		t.Error("owned playlist should be gone")
	}
	if len(store.data.playlistSongs) != 0 {
		t.Errorf("playlist joins left: %v", store.data.playlistSongs)
	}
	if len(store.data.albumSongs) != 0 {
		t.Errorf("album joins left: %v", store.data.albumSongs)
	}
	if len(store.data.queue) != 0 {
		t.Errorf("queue entries left: %v", store.data.queue)
	}
	for _, r := range store.data.ratings {
		if r.UserID == creator.ID || r.SongID == albumSong.ID || r.SongID == single.ID {
			t.Errorf("stale rating left: %+v", r)
		}
	}
	for _, p := range store.data.plays {
		if p.SongID == single.ID {
			t.Errorf("stale play left: %+v", p)
		}
	}

	// Unrelated rows survive.
	if _, ok := store.data.songs[foreign.ID]; !ok {
		t.Error("foreign song must survive")
	}
	if _, ok := store.data.users[other.ID]; !ok {
		t.Error("other user must survive")
	}
}

func TestDeleteUserGuards(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	admin := seedUser(store, model.RoleAdmin, "admin@example.com")
	standard := seedUser(store, model.RoleStandard, "user@example.com")

	if err := m.DeleteUser(ctx, Actor{ID: standard.ID, Role: model.RoleStandard}, admin.ID); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("non-admin delete error = %v, want authorization", err)
	}
	if err := m.DeleteUser(ctx, Actor{ID: admin.ID, Role: model.RoleAdmin}, admin.ID); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("self delete error = %v, want authorization", err)
	}
	if err := m.DeleteUser(ctx, Actor{ID: admin.ID, Role: model.RoleAdmin}, 999); !fault.IsKind(err, fault.NotFound) {
		t.Errorf("missing target error = %v, want not found", err)
	}
}

func TestDeleteUserAllOrNothing(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	admin := seedUser(store, model.RoleAdmin, "admin@example.com")
	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	song := seedSong(store, creator.ID, "song")
	store.CreateRating(ctx, &model.Rating{Rating: 3, UserID: creator.ID, SongID: song.ID})

	store.failOn = "DeleteUser"
	err := m.DeleteUser(ctx, Actor{ID: admin.ID, Role: model.RoleAdmin}, creator.ID)
	if !fault.IsKind(err, fault.Persistence) {
		t.Fatalf("error = %v, want persistence", err)
	}

	// The failure hit the last statement; everything must remain.
	if _, ok := store.data.users[creator.ID]; !ok {
		t.Error("user row must survive a failed cascade")
	}
	if _, ok := store.data.songs[song.ID]; !ok {
		t.Error("song row must survive a failed cascade")
	}
	if len(store.data.ratings) != 1 {
		t.Error("rating rows must survive a failed cascade")
	}
}

func TestDeleteSongCascade(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	listener := seedUser(store, model.RoleStandard, "user@example.com")
	song := seedSong(store, creator.ID, "song")
	keep := seedSong(store, creator.ID, "keep")

	playlist := &model.Playlist{UserID: listener.ID, Title: "mix", Access: model.AccessPublic}
	playlistID, _ := store.CreatePlaylist(ctx, playlist)
	store.AddPlaylistSong(ctx, playlistID, song.ID)
	store.AddPlaylistSong(ctx, playlistID, keep.ID)
	store.CreateRating(ctx, &model.Rating{Rating: 5, UserID: listener.ID, SongID: song.ID})
	store.CreatePlay(ctx, &model.Play{PlayCount: 1, UserID: listener.ID, SongID: song.ID})

	err := m.DeleteSong(ctx, Actor{ID: creator.ID, Role: model.RoleCreator}, song.ID)
	if err != nil {
		t.Fatalf("DeleteSong returned error: %v", err)
	}

	if _, ok := store.data.songs[song.ID]; ok {
		t.Error("song row should be gone")
	}
	if len(store.data.ratings) != 0 {
		t.Error("ratings referencing the song should be gone")
	}
	if len(store.data.plays) != 0 {
		t.Error("plays referencing the song should be gone")
	}
	if len(store.data.playlistSongs) != 1 || store.data.playlistSongs[0].child != keep.ID {
		t.Errorf("playlist joins = %v, want only the kept song", store.data.playlistSongs)
	}
	if _, ok := store.data.playlists[playlistID]; !ok {
		t.Error("the playlist itself must survive")
	}
}

func TestDeleteSongAuthorization(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	other := seedUser(store, model.RoleCreator, "other@example.com")
	song := seedSong(store, creator.ID, "song")

	if err := m.DeleteSong(ctx, Actor{ID: other.ID, Role: model.RoleCreator}, song.ID); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("foreign delete error = %v, want authorization", err)
	}

	admin := seedUser(store, model.RoleAdmin, "admin@example.com")
	if err := m.DeleteSong(ctx, Actor{ID: admin.ID, Role: model.RoleAdmin}, song.ID); err != nil {
		t.Errorf("admin delete returned error: %v", err)
	}
}

func TestDeleteAlbumCascadesToSongs(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	member := seedSong(store, creator.ID, "member")
	single := seedSong(store, creator.ID, "single")

	album := &model.Album{UserID: creator.ID, Title: "album", Genre: "rock"}
	albumID, _ := store.CreateAlbum(ctx, album)
	store.AddAlbumSong(ctx, albumID, member.ID)

	err := m.DeleteAlbum(ctx, Actor{ID: creator.ID, Role: model.RoleCreator}, albumID)
	if err != nil {
		t.Fatalf("DeleteAlbum returned error: %v", err)
	}

	if _, ok := store.data.albums[albumID]; ok {
		t.Error("album row should be gone")
	}
	if _, ok := store.data.songs[member.ID]; ok {
		t.Error("member song should be gone with the album")
	}
	if _, ok := store.data.songs[single.ID]; !ok {
		t.Error("song outside the album must survive")
	}
	if len(store.data.albumSongs) != 0 {
		t.Errorf("album joins left: %v", store.data.albumSongs)
	}
}

func TestUpgradeToCreator(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	standard := seedUser(store, model.RoleStandard, "user@example.com")
	upgraded, err := m.UpgradeToCreator(ctx, Actor{ID: standard.ID, Role: model.RoleStandard})
	if err != nil {
		t.Fatalf("UpgradeToCreator returned error: %v", err)
	}
	if upgraded.Role != model.RoleCreator {
		t.Errorf("role = %v, want creator", upgraded.Role)
	}

	// Idempotent for creators.
	again, err := m.UpgradeToCreator(ctx, Actor{ID: standard.ID, Role: model.RoleCreator})
	if err != nil {
		t.Fatalf("second upgrade returned error: %v", err)
	}
	if again.Role != model.RoleCreator {
		t.Errorf("role = %v, want creator", again.Role)
	}

	admin := seedUser(store, model.RoleAdmin, "admin@example.com")
	if _, err := m.UpgradeToCreator(ctx, Actor{ID: admin.ID, Role: model.RoleAdmin}); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("admin upgrade error = %v, want authorization", err)
	}
}

func TestToggleBlacklist(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	admin := seedUser(store, model.RoleAdmin, "admin@example.com")
	user := seedUser(store, model.RoleStandard, "user@example.com")
	actor := Actor{ID: admin.ID, Role: model.RoleAdmin}

	toggled, err := m.ToggleBlacklist(ctx, actor, user.ID)
	if err != nil {
		t.Fatalf("ToggleBlacklist returned error: %v", err)
	}
	if !toggled.Blacklisted {
		t.Error("first toggle should blacklist")
	}

	toggled, err = m.ToggleBlacklist(ctx, actor, user.ID)
	if err != nil {
		t.Fatalf("second toggle returned error: %v", err)
	}
	if toggled.Blacklisted {
		t.Error("second toggle should restore")
	}

	if _, err := m.ToggleBlacklist(ctx, actor, admin.ID); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("self blacklist error = %v, want authorization", err)
	}
	if _, err := m.ToggleBlacklist(ctx, Actor{ID: user.ID, Role: model.RoleStandard}, admin.ID); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("non-admin toggle error = %v, want authorization", err)
	}
}

func TestRate(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	listener := seedUser(store, model.RoleStandard, "user@example.com")
	song := seedSong(store, creator.ID, "song")
	actor := Actor{ID: listener.ID, Role: model.RoleStandard}

	for _, value := range []int{-1, 6} {
		if err := m.Rate(ctx, actor, song.ID, value); !fault.IsKind(err, fault.Validation) {
			t.Errorf("Rate(%d) error = %v, want validation", value, err)
		}
	}
	if len(store.data.ratings) != 0 {
		t.Fatal("rejected ratings must not be persisted")
	}

	if err := m.Rate(ctx, Actor{ID: 1, Role: model.RoleAdmin}, song.ID, 3); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("admin rate error = %v, want authorization", err)
	}

	// Ratings append, they never overwrite.
	if err := m.Rate(ctx, actor, song.ID, 0); err != nil {
		t.Fatalf("Rate(0) returned error: %v", err)
	}
	if err := m.Rate(ctx, actor, song.ID, 5); err != nil {
		t.Fatalf("Rate(5) returned error: %v", err)
	}
	if len(store.data.ratings) != 2 {
		t.Errorf("rating rows = %d, want 2", len(store.data.ratings))
	}

	if err := m.Rate(ctx, actor, 999, 3); !fault.IsKind(err, fault.NotFound) {
		t.Errorf("missing song error = %v, want not found", err)
	}
}

func TestCreatePlaylistTitleConflict(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	alice := seedUser(store, model.RoleStandard, "alice@example.com")
	bob := seedUser(store, model.RoleStandard, "bob@example.com")

	_, err := m.CreatePlaylist(ctx, Actor{ID: alice.ID, Role: model.RoleStandard},
		&model.Playlist{Title: "mix", Access: model.AccessPublic})
	if err != nil {
		t.Fatalf("CreatePlaylist returned error: %v", err)
	}

	_, err = m.CreatePlaylist(ctx, Actor{ID: alice.ID, Role: model.RoleStandard},
		&model.Playlist{Title: "mix", Access: model.AccessPrivate})
	if !fault.IsKind(err, fault.Conflict) {
		t.Errorf("duplicate title error = %v, want conflict", err)
	}

	// Same title under a different owner is fine.
	if _, err := m.CreatePlaylist(ctx, Actor{ID: bob.ID, Role: model.RoleStandard},
		&model.Playlist{Title: "mix", Access: model.AccessPublic}); err != nil {
		t.Errorf("same title for other owner returned error: %v", err)
	}

	if _, err := m.CreatePlaylist(ctx, Actor{ID: bob.ID, Role: model.RoleStandard},
		&model.Playlist{Title: "x", Access: "friends"}); !fault.IsKind(err, fault.Validation) {
		t.Errorf("bad access error = %v, want validation", err)
	}
}

func TestAddSongToPlaylistRejectsFlagged(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	listener := seedUser(store, model.RoleStandard, "user@example.com")
	song := seedSong(store, creator.ID, "song")
	store.data.songs[song.ID].Flagged = true

	playlist, err := m.CreatePlaylist(ctx, Actor{ID: listener.ID, Role: model.RoleStandard},
		&model.Playlist{Title: "mix", Access: model.AccessPublic})
	if err != nil {
		t.Fatalf("CreatePlaylist returned error: %v", err)
	}

	err = m.AddSongToPlaylist(ctx, Actor{ID: listener.ID, Role: model.RoleStandard}, playlist.ID, song.ID)
	if !fault.IsKind(err, fault.Validation) {
		t.Errorf("flagged song error = %v, want validation", err)
	}

	// Other users cannot touch the playlist at all.
	err = m.AddSongToPlaylist(ctx, Actor{ID: creator.ID, Role: model.RoleCreator}, playlist.ID, song.ID)
	if !fault.IsKind(err, fault.Authorization) {
		t.Errorf("foreign playlist error = %v, want authorization", err)
	}
}

func TestToggleSongFlag(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	admin := seedUser(store, model.RoleAdmin, "admin@example.com")
	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	song := seedSong(store, creator.ID, "song")
	actor := Actor{ID: admin.ID, Role: model.RoleAdmin}

	flagged, err := m.ToggleSongFlag(ctx, actor, song.ID)
	if err != nil {
		t.Fatalf("ToggleSongFlag returned error: %v", err)
	}
	if !flagged.Flagged {
		t.Error("first toggle should flag")
	}

	flagged, err = m.ToggleSongFlag(ctx, actor, song.ID)
	if err != nil {
		t.Fatalf("second toggle returned error: %v", err)
	}
	if flagged.Flagged {
		t.Error("second toggle should restore")
	}

	if _, err := m.ToggleSongFlag(ctx, Actor{ID: creator.ID, Role: model.RoleCreator}, song.ID); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("non-admin flag error = %v, want authorization", err)
	}
}

func TestAddSongToAlbumOwnership(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	other := seedUser(store, model.RoleCreator, "other@example.com")
	ownSong := seedSong(store, creator.ID, "own")
	foreignSong := seedSong(store, other.ID, "foreign")

	album := &model.Album{UserID: creator.ID, Title: "album", Genre: "rock"}
	albumID, _ := store.CreateAlbum(ctx, album)
	actor := Actor{ID: creator.ID, Role: model.RoleCreator}

	if err := m.AddSongToAlbum(ctx, actor, albumID, ownSong.ID); err != nil {
		t.Errorf("adding own song returned error: %v", err)
	}
	if err := m.AddSongToAlbum(ctx, actor, albumID, foreignSong.ID); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("foreign song error = %v, want authorization", err)
	}
}

func TestQueueLifecycle(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	listener := seedUser(store, model.RoleStandard, "user@example.com")
	song := seedSong(store, creator.ID, "song")
	actor := Actor{ID: listener.ID, Role: model.RoleStandard}

	if err := m.AddToQueue(ctx, actor, song.ID); err != nil {
		t.Fatalf("AddToQueue returned error: %v", err)
	}
	if err := m.AddToQueue(ctx, actor, 999); !fault.IsKind(err, fault.NotFound) {
		t.Errorf("missing song error = %v, want not found", err)
	}
	if len(store.data.queue) != 1 {
		t.Fatalf("queue length = %d, want 1", len(store.data.queue))
	}

	if err := m.ClearQueue(ctx, actor); err != nil {
		t.Fatalf("ClearQueue returned error: %v", err)
	}
	if len(store.data.queue) != 0 {
		t.Error("queue should be empty after ClearQueue")
	}
}

func TestRecordPlay(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	listener := seedUser(store, model.RoleStandard, "user@example.com")
	song := seedSong(store, creator.ID, "song")
	actor := Actor{ID: listener.ID, Role: model.RoleStandard}

	if err := m.RecordPlay(ctx, actor, song.ID); err != nil {
		t.Fatalf("RecordPlay returned error: %v", err)
	}
	if err := m.RecordPlay(ctx, actor, song.ID); err != nil {
		t.Fatalf("second RecordPlay returned error: %v", err)
	}

	if len(store.data.plays) != 2 {
		t.Fatalf("play rows = %d, want 2", len(store.data.plays))
	}
	for _, p := range store.data.plays {
		if p.PlayCount != 1 {
			t.Errorf("play count = %d, want 1 per event", p.PlayCount)
		}
	}

	if err := m.RecordPlay(ctx, actor, 999); !fault.IsKind(err, fault.NotFound) {
		t.Errorf("missing song error = %v, want not found", err)
	}
}

func TestCreateSongAuthorization(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	standard := seedUser(store, model.RoleStandard, "user@example.com")
	song := &model.Song{Title: "t", Singer: "s", Genre: "g", FilePath: "audio/x.mp3"}

	if _, err := m.CreateSong(ctx, Actor{ID: standard.ID, Role: model.RoleStandard}, song); !fault.IsKind(err, fault.Authorization) {
		t.Errorf("standard upload error = %v, want authorization", err)
	}

	creator := seedUser(store, model.RoleCreator, "creator@example.com")
	created, err := m.CreateSong(ctx, Actor{ID: creator.ID, Role: model.RoleCreator}, song)
	if err != nil {
		t.Fatalf("creator upload returned error: %v", err)
	}
	if created.UserID != creator.ID {
		t.Errorf("owner = %d, want %d", created.UserID, creator.ID)
	}

	missingFile := &model.Song{Title: "t", Singer: "s", Genre: "g"}
	if _, err := m.CreateSong(ctx, Actor{ID: creator.ID, Role: model.RoleCreator}, missingFile); !fault.IsKind(err, fault.Validation) {
		t.Errorf("missing file error = %v, want validation", err)
	}
}
