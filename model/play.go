package model

import "time"

// Play records stream events for a song by a user. Counts are
// append-only and never decremented; usage reports aggregate them by
// song, user and month.
type Play struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayCount int64     `gorm:"not null" json:"playCount"`
	UserID    int64     `gorm:"not null;index" json:"userId"`
	SongID    int64     `gorm:"not null;index" json:"songId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Play) TableName() string { return "plays" }
