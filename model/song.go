package model

import "time"

// Song represents an uploaded track in the catalog.
type Song struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"not null;index" json:"userId"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Singer      string    `gorm:"size:255;not null" json:"singer"`
	Genre       string    `gorm:"size:100;not null" json:"genre"`
	ReleaseDate time.Time `json:"releaseDate"`
	Duration    float64   `gorm:"not null" json:"duration"` // Duration in seconds
	FilePath    string    `gorm:"size:767;not null" json:"-"` // Asset store key, not exposed in API directly
	Lyrics      string    `gorm:"type:text" json:"lyrics,omitempty"`
	CoverPath   string    `gorm:"size:767" json:"coverPath,omitempty"`
	Flagged     bool      `gorm:"not null;default:false" json:"flagged"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Song) TableName() string { return "songs" }
