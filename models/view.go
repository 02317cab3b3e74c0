package models

// GameView is the listing row handed to the viewer: stream data joined with live state.
type GameView struct {
	GameRecord
	Live ScoreboardEntry `json:"live"`
}
