package model

import "time"

// Album represents a creator-owned collection of songs.
type Album struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"not null;index" json:"userId"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Genre       string    `gorm:"size:100;not null" json:"genre"`
	CoverPath   string    `gorm:"size:767" json:"coverPath,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	ReleaseDate time.Time `json:"releaseDate"`
	Flagged     bool      `gorm:"not null;default:false" json:"flagged"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Album) TableName() string { return "albums" }

// AlbumSong associates a song with an album.
type AlbumSong struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	AlbumID int64 `gorm:"not null;index" json:"albumId"`
	SongID  int64 `gorm:"not null;index" json:"songId"`
}

func (AlbumSong) TableName() string { return "album_songs" }

// AlbumWithSongs bundles an album and its member songs.
type AlbumWithSongs struct {
	Album Album   `json:"album"`
	Songs []*Song `json:"songs"`
}
