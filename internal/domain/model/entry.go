package model

// Entry is a leaderboard row. Rank is 1-based.
type Entry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Calories int64  `json:"calories"`
}
