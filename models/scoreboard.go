package models

// ScoreboardEntry is the live state of one game projected for display.
type ScoreboardEntry struct {
	MatchupKey string `json:"matchup_key"`
	GameID     string `json:"game_id"`
	StatusText string `json:"game_status"`
	Started    bool   `json:"game_started_yet"`
	DayLabel   string `json:"today_or_tomorrow"`
	Clock      string `json:"game_clock"`
	Period     int    `json:"period"`
	HomeScore  int    `json:"home_score"`
	AwayScore  int    `json:"away_score"`
	LeaderHome string `json:"best_stats_home"`
	LeaderAway string `json:"best_stats_away"`
}

// Scoreboard maps the provider's away+home tricode pair to its entry.
type Scoreboard map[string]ScoreboardEntry

// PlaceholderStatus is shown for games the live feed does not list yet.
const PlaceholderStatus = "Scheduled (no data yet)"

// PlaceholderScoreboardEntry is returned when a matchup has no live entry.
func PlaceholderScoreboardEntry(matchupKey string) ScoreboardEntry {
	return ScoreboardEntry{
		MatchupKey: matchupKey,
		StatusText: PlaceholderStatus,
		LeaderHome: "N/A",
		LeaderAway: "N/A",
	}
}
