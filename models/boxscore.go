package models

// PlayerLine is one player's box score row.
type PlayerLine struct {
	Name     string `json:"name"`
	Minutes  string `json:"min"`
	Points   int    `json:"pts"`
	Rebounds int    `json:"reb"`
	Assists  int    `json:"ast"`
	Steals   int    `json:"stl"`
	Blocks   int    `json:"blk"`
	Turnover int    `json:"to"`
	FG       string `json:"fgm_fga"`
	FG3      string `json:"fg3m_fg3a"`
}

// TeamBox groups player lines for one team.
type TeamBox struct {
	Players []PlayerLine `json:"players"`
}

// BoxScore maps team tricode to its players.
type BoxScore map[string]TeamBox

// MomentumPoint is one sample of the home-minus-away score margin.
type MomentumPoint struct {
	Label  string `json:"label"`
	Value  int    `json:"value"`
	Period int    `json:"period"`
}

// PlayerSeasonStats holds per-game season averages for one player.
type PlayerSeasonStats struct {
	GamesPlayed int     `json:"gp"`
	Points      float64 `json:"pts"`
	Rebounds    float64 `json:"reb"`
	Assists     float64 `json:"ast"`
	Steals      float64 `json:"stl"`
	Blocks      float64 `json:"blk"`
	FGPct       float64 `json:"fg_pct"`
	FG3Pct      float64 `json:"fg3_pct"`
	FG3A        float64 `json:"fg3a"`
	FTPct       float64 `json:"ft_pct"`
}
