package model

import "time"

// QueueEntry is one song in a user's pending playback queue.
// The queue is ordered by insertion and cleared entirely on logout.
type QueueEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"userId"`
	SongID    int64     `gorm:"not null" json:"songId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (QueueEntry) TableName() string { return "queue_entries" }
