package model

import "time"

// Rating is one rating event for a song. Ratings are append-only
// history; a user rating the same song again adds another row.
type Rating struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Rating    int       `gorm:"not null" json:"rating"` // 0..5 inclusive
	UserID    int64     `gorm:"not null;index" json:"userId"`
	SongID    int64     `gorm:"not null;index" json:"songId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Rating) TableName() string { return "ratings" }
