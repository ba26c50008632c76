package model

import "time"

// Playlist access values.
const (
	AccessPublic  = "public"
	AccessPrivate = "private"
)

// Playlist represents a user-owned list of songs.
type Playlist struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"not null;index" json:"userId"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Access      string    `gorm:"size:20;not null" json:"access"` // public or private
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Playlist) TableName() string { return "playlists" }

// PlaylistSong associates a song with a playlist.
type PlaylistSong struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	PlaylistID int64 `gorm:"not null;index" json:"playlistId"`
	SongID     int64 `gorm:"not null;index" json:"songId"`
}

func (PlaylistSong) TableName() string { return "playlist_songs" }

// PlaylistWithSongs bundles a playlist and its member songs.
type PlaylistWithSongs struct {
	Playlist Playlist `json:"playlist"`
	Songs    []*Song  `json:"songs"`
}
