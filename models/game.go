package models

// Stream sources in merge priority order.
const (
	SourceLotus    = "lotus"
	SourceStreamed = "streamed"
)

// GameRecord is one game as reported by the stream listings, keyed by date and matchup.
type GameRecord struct {
	ID             string   `json:"id"`
	MatchupKey     string   `json:"matchup_key"`
	Date           string   `json:"date"`
	Title          string   `json:"title"`
	ScheduledTime  string   `json:"game_start"`
	StartTimestamp int64    `json:"start_timestamp"`
	Status         string   `json:"status"`
	AwayCode       string   `json:"away_code"`
	HomeCode       string   `json:"home_code"`
	EmbedURLs      []string `json:"streams"`
	Sources        []string `json:"sources"`
}

// GameKey builds the merge key "YYYY-MM-DD_<matchup key>".
func GameKey(date, matchupKey string) string {
	return date + "_" + matchupKey
}

// HasEmbedURL reports whether url is already attached to the record.
func (g *GameRecord) HasEmbedURL(url string) bool {
	for _, existing := range g.EmbedURLs {
		if existing == url {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so merges never alias source slices.
func (g *GameRecord) Clone() *GameRecord {
	c := *g
	c.EmbedURLs = append([]string(nil), g.EmbedURLs...)
	c.Sources = append([]string(nil), g.Sources...)
	return &c
}
