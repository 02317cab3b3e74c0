package models

import "time"

// ReplayRecord is a historical game with its replay page and, once scraped, the video embed URL.
type ReplayRecord struct {
	ID        int64     `json:"id"`
	GameDate  time.Time `json:"game_date"`
	Slug      string    `json:"replay_url"`
	AwayTeam  string    `json:"away_team"`
	HomeTeam  string    `json:"home_team"`
	AwayScore *int      `json:"away_score"`
	HomeScore *int      `json:"home_score"`
	Notes     string    `json:"notes"`
	EmbedURL  *string   `json:"iframe_url"`
	Views     int       `json:"views"`
}
