package services

import (
	"sort"
	"strings"
)

// teamCodes maps every accepted franchise spelling to its tricode.
var teamCodes = map[string]string{
	"Boston Celtics":         "BOS",
	"Brooklyn Nets":          "BKN",
	"New York Knicks":        "NYK",
	"Philadelphia 76ers":     "PHI",
	"Toronto Raptors":        "TOR",
	"Chicago Bulls":          "CHI",
	"Cleveland Cavaliers":    "CLE",
	"Detroit Pistons":        "DET",
	"Indiana Pacers":         "IND",
	"Milwaukee Bucks":        "MIL",
	"Atlanta Hawks":          "ATL",
	"Charlotte Hornets":      "CHA",
	"Miami Heat":             "MIA",
	"Orlando Magic":          "ORL",
	"Washington Wizards":     "WAS",
	"Denver Nuggets":         "DEN",
	"Minnesota Timberwolves": "MIN",
	"Oklahoma City Thunder":  "OKC",
	"Portland Trail Blazers": "POR",
	"Utah Jazz":              "UTA",
	"Golden State Warriors":  "GSW",
	"Los Angeles Clippers":   "LAC",
	"LA Clippers":            "LAC",
	"Los Angeles Lakers":     "LAL",
	"LA Lakers":              "LAL",
	"Phoenix Suns":           "PHX",
	"Sacramento Kings":       "SAC",
	"Dallas Mavericks":       "DAL",
	"Houston Rockets":        "HOU",
	"Memphis Grizzlies":      "MEM",
	"New Orleans Pelicans":   "NOP",
	"San Antonio Spurs":      "SAS",

	"Celtics":       "BOS",
	"Nets":          "BKN",
	"Knicks":        "NYK",
	"76ers":         "PHI",
	"Sixers":        "PHI",
	"Raptors":       "TOR",
	"Bulls":         "CHI",
	"Cavaliers":     "CLE",
	"Cavs":          "CLE",
	"Pistons":       "DET",
	"Pacers":        "IND",
	"Bucks":         "MIL",
	"Hawks":         "ATL",
	"Hornets":       "CHA",
	"Heat":          "MIA",
	"Magic":         "ORL",
	"Wizards":       "WAS",
	"Nuggets":       "DEN",
	"Timberwolves":  "MIN",
	"Wolves":        "MIN",
	"Thunder":       "OKC",
	"Trail Blazers": "POR",
	"Blazers":       "POR",
	"Jazz":          "UTA",
	"Warriors":      "GSW",
	"Clippers":      "LAC",
	"Lakers":        "LAL",
	"Suns":          "PHX",
	"Kings":         "SAC",
	"Mavericks":     "DAL",
	"Mavs":          "DAL",
	"Rockets":       "HOU",
	"Grizzlies":     "MEM",
	"Pelicans":      "NOP",
	"Spurs":         "SAS",
}

// displayNames is the full name shown for each tricode.
var displayNames = map[string]string{
	"BOS": "Boston Celtics",
	"BKN": "Brooklyn Nets",
	"NYK": "New York Knicks",
	"PHI": "Philadelphia 76ers",
	"TOR": "Toronto Raptors",
	"CHI": "Chicago Bulls",
	"CLE": "Cleveland Cavaliers",
	"DET": "Detroit Pistons",
	"IND": "Indiana Pacers",
	"MIL": "Milwaukee Bucks",
	"ATL": "Atlanta Hawks",
	"CHA": "Charlotte Hornets",
	"MIA": "Miami Heat",
	"ORL": "Orlando Magic",
	"WAS": "Washington Wizards",
	"DEN": "Denver Nuggets",
	"MIN": "Minnesota Timberwolves",
	"OKC": "Oklahoma City Thunder",
	"POR": "Portland Trail Blazers",
	"UTA": "Utah Jazz",
	"GSW": "Golden State Warriors",
	"LAC": "LA Clippers",
	"LAL": "Los Angeles Lakers",
	"PHX": "Phoenix Suns",
	"SAC": "Sacramento Kings",
	"DAL": "Dallas Mavericks",
	"HOU": "Houston Rockets",
	"MEM": "Memphis Grizzlies",
	"NOP": "New Orleans Pelicans",
	"SAS": "San Antonio Spurs",
}

// Matchup is the normalized identity of a game title.
type Matchup struct {
	Key      string
	Title    string
	AwayCode string
	HomeCode string
	AwayName string
	HomeName string
}

// TeamNormalizer resolves free-text game titles to tricodes and a stable matchup key
type TeamNormalizer struct {
	names  []string // longest first
	codes  map[string]string
	byCode map[string]string
}

// NewTeamNormalizer builds a normalizer over the static franchise table
func NewTeamNormalizer() *TeamNormalizer {
	names := make([]string, 0, len(teamCodes))
	for name := range teamCodes {
		names = append(names, name)
	}

	// Longest first so "Los Angeles Clippers" wins over a shorter alias inside it.
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	return &TeamNormalizer{names: names, codes: teamCodes, byCode: displayNames}
}

// Normalize extracts two distinct teams from title. Names match whole words
// only, so "Nets" is not found inside "Hornets". The team appearing first in
// the title is treated as away. ok is false when fewer than two teams match.
func (n *TeamNormalizer) Normalize(title string) (Matchup, bool) {
	type hit struct {
		code     string
		position int
	}

	var hits []hit
	seen := make(map[string]bool, 2)
	for _, name := range n.names {
		if len(hits) == 2 {
			break
		}
		code := n.codes[name]
		if seen[code] {
			continue
		}
		position := indexWord(title, name)
		if position < 0 {
			continue
		}
		seen[code] = true
		hits = append(hits, hit{code: code, position: position})
	}

	if len(hits) < 2 {
		return Matchup{}, false
	}

	away, home := hits[0], hits[1]
	if home.position < away.position {
		away, home = home, away
	}

	awayName, _ := n.TeamName(away.code)
	homeName, _ := n.TeamName(home.code)
	return Matchup{
		Key:      MatchupKey(away.code, home.code),
		Title:    awayName + " vs. " + homeName,
		AwayCode: away.code,
		HomeCode: home.code,
		AwayName: awayName,
		HomeName: homeName,
	}, true
}

// TeamName returns the display name for a tricode.
func (n *TeamNormalizer) TeamName(code string) (string, bool) {
	name, ok := n.byCode[strings.ToUpper(code)]
	return name, ok
}

// indexWord is strings.Index restricted to matches not embedded in a longer word.
func indexWord(s, word string) int {
	offset := 0
	for {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(word)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return start
		}
		offset = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// MatchupKey is the order-independent key of two tricodes.
func MatchupKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + b
}
