package model

// SongPlays is the summed play count for one song.
type SongPlays struct {
	SongID int64 `json:"songId"`
	Total  int64 `json:"total"`
}

// UserPlays is the summed play count for one user.
type UserPlays struct {
	UserID int64 `json:"userId"`
	Total  int64 `json:"total"`
}

// MonthlyPlays is the summed play count for one calendar month.
type MonthlyPlays struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Total int64 `json:"total"`
}

// RatedSong is a song joined with its rating aggregate. Songs without
// ratings carry AverageRating 0 and RatingCount 0.
type RatedSong struct {
	Song          Song    `json:"song"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
}
