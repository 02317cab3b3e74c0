package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nba-watcher/backend/shared"
)

// statsHeaders are required by the league stats API in addition to the browser set.
var statsHeaders = map[string]string{
	"Referer":            "https://www.nba.com/",
	"Origin":             "https://www.nba.com",
	"x-nba-stats-origin": "stats",
	"x-nba-stats-token":  "true",
}

// LiveScoreboardPayload is the live feed's scoreboard document.
type LiveScoreboardPayload struct {
	Scoreboard struct {
		GameDate string     `json:"gameDate"`
		Games    []LiveGame `json:"games"`
	} `json:"scoreboard"`
}

// LiveGame is one scoreboard game.
type LiveGame struct {
	GameID         string       `json:"gameId"`
	GameCode       string       `json:"gameCode"`
	GameStatus     int          `json:"gameStatus"`
	GameStatusText string       `json:"gameStatusText"`
	Period         int          `json:"period"`
	GameClock      string       `json:"gameClock"`
	GameTimeUTC    string       `json:"gameTimeUTC"`
	HomeTeam       LiveTeam     `json:"homeTeam"`
	AwayTeam       LiveTeam     `json:"awayTeam"`
	GameLeaders    *GameLeaders `json:"gameLeaders"`
}

// LiveTeam is a team block on the scoreboard.
type LiveTeam struct {
	TeamTricode string `json:"teamTricode"`
	Score       int    `json:"score"`
}

// GameLeaders holds the top performer of each side.
type GameLeaders struct {
	HomeLeaders *GameLeader `json:"homeLeaders"`
	AwayLeaders *GameLeader `json:"awayLeaders"`
}

// GameLeader is one team's leading player.
type GameLeader struct {
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Rebounds int    `json:"rebounds"`
	Assists  int    `json:"assists"`
}

// LiveBoxscorePayload is the live feed's per-game box score.
type LiveBoxscorePayload struct {
	Game struct {
		GameID   string           `json:"gameId"`
		HomeTeam LiveBoxscoreTeam `json:"homeTeam"`
		AwayTeam LiveBoxscoreTeam `json:"awayTeam"`
	} `json:"game"`
}

// LiveBoxscoreTeam lists one team's players.
type LiveBoxscoreTeam struct {
	TeamTricode string          `json:"teamTricode"`
	Players     []LiveBoxPlayer `json:"players"`
}

// LiveBoxPlayer is one player row of the live box score.
type LiveBoxPlayer struct {
	Name       string `json:"name"`
	Played     string `json:"played"`
	Statistics struct {
		Minutes                string `json:"minutes"`
		Points                 int    `json:"points"`
		ReboundsTotal          int    `json:"reboundsTotal"`
		Assists                int    `json:"assists"`
		Steals                 int    `json:"steals"`
		Blocks                 int    `json:"blocks"`
		Turnovers              int    `json:"turnovers"`
		FieldGoalsMade         int    `json:"fieldGoalsMade"`
		FieldGoalsAttempted    int    `json:"fieldGoalsAttempted"`
		ThreePointersMade      int    `json:"threePointersMade"`
		ThreePointersAttempted int    `json:"threePointersAttempted"`
	} `json:"statistics"`
}

// PlayByPlayPayload is the live feed's action list.
type PlayByPlayPayload struct {
	Game struct {
		Actions []PlayAction `json:"actions"`
	} `json:"game"`
}

// PlayAction is one play-by-play event.
type PlayAction struct {
	Period    int       `json:"period"`
	Clock     string    `json:"clock"`
	ScoreHome *LooseInt `json:"scoreHome"`
	ScoreAway *LooseInt `json:"scoreAway"`
}

// LooseInt decodes integers sent either as JSON numbers or numeric strings.
type LooseInt struct {
	Value int
	Valid bool
}

func (n *LooseInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*n = LooseInt{}
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*n = LooseInt{}
		return nil
	}
	*n = LooseInt{Value: int(value), Valid: true}
	return nil
}

// ResultSetPayload is the tabular stats API envelope.
type ResultSetPayload struct {
	ResultSets []struct {
		Name    string          `json:"name"`
		Headers []string        `json:"headers"`
		RowSet  [][]interface{} `json:"rowSet"`
	} `json:"resultSets"`
}

// NBAStatsClient talks to the live data CDN and the league stats API
type NBAStatsClient struct {
	liveClient  *http.Client
	statsClient *http.Client
	liveBaseURL string
	statsURL    string
}

// NewNBAStatsClient creates a stats client with separate timeouts per host
func NewNBAStatsClient(liveClient, statsClient *http.Client, liveBaseURL, statsBaseURL string) *NBAStatsClient {
	return &NBAStatsClient{
		liveClient:  liveClient,
		statsClient: statsClient,
		liveBaseURL: strings.TrimRight(liveBaseURL, "/"),
		statsURL:    strings.TrimRight(statsBaseURL, "/"),
	}
}

// Scoreboard fetches today's live scoreboard
func (c *NBAStatsClient) Scoreboard(ctx context.Context) (*LiveScoreboardPayload, error) {
	var payload LiveScoreboardPayload
	if err := shared.FetchJSON(ctx, c.liveClient, c.liveBaseURL+"/scoreboard/todaysScoreboard_00.json", nil, &payload); err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "SCOREBOARD_FAILED", "NBAStatsClient", "Scoreboard", true)
	}
	return &payload, nil
}

// Boxscore fetches the live box score of one game
func (c *NBAStatsClient) Boxscore(ctx context.Context, gameID string) (*LiveBoxscorePayload, error) {
	var payload LiveBoxscorePayload
	endpoint := fmt.Sprintf("%s/boxscore/boxscore_%s.json", c.liveBaseURL, url.PathEscape(gameID))
	if err := shared.FetchJSON(ctx, c.liveClient, endpoint, nil, &payload); err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "BOXSCORE_FAILED", "NBAStatsClient", "Boxscore", true)
	}
	return &payload, nil
}

// PlayByPlay fetches the action list of one game
func (c *NBAStatsClient) PlayByPlay(ctx context.Context, gameID string) (*PlayByPlayPayload, error) {
	var payload PlayByPlayPayload
	endpoint := fmt.Sprintf("%s/playbyplay/playbyplay_%s.json", c.liveBaseURL, url.PathEscape(gameID))
	if err := shared.FetchJSON(ctx, c.liveClient, endpoint, nil, &payload); err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "PLAYBYPLAY_FAILED", "NBAStatsClient", "PlayByPlay", true)
	}
	return &payload, nil
}

// LeaguePlayerStats fetches per-game regular season stats for every player
func (c *NBAStatsClient) LeaguePlayerStats(ctx context.Context, season string) (*ResultSetPayload, error) {
	query := url.Values{}
	query.Set("Season", season)
	query.Set("SeasonType", "Regular Season")
	query.Set("PerMode", "PerGame")
	query.Set("MeasureType", "Base")
	query.Set("LeagueID", "00")
	query.Set("LastNGames", "0")
	query.Set("Month", "0")
	query.Set("OpponentTeamID", "0")
	query.Set("PaceAdjust", "N")
	query.Set("Period", "0")
	query.Set("PlusMinus", "N")
	query.Set("Rank", "N")

	var payload ResultSetPayload
	endpoint := c.statsURL + "/leaguedashplayerstats?" + query.Encode()
	if err := shared.FetchJSON(ctx, c.statsClient, endpoint, statsHeaders, &payload); err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "PLAYER_STATS_FAILED", "NBAStatsClient", "LeaguePlayerStats", true)
	}
	return &payload, nil
}
