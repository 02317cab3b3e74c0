package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nba-watcher/backend/models"
	"github.com/nba-watcher/backend/shared"
	"github.com/sirupsen/logrus"
)

// FetchStatus distinguishes an empty slate from a failed fetch.
type FetchStatus string

const (
	FetchOK     FetchStatus = "ok"
	FetchEmpty  FetchStatus = "empty"
	FetchFailed FetchStatus = "failed"
)

// SourceResult is the typed outcome of one source fetch. Games is never nil.
type SourceResult struct {
	Source string
	Status FetchStatus
	Games  map[string]*models.GameRecord
	Err    error
}

// Reason describes why a fetch failed, or "" when it did not.
func (r SourceResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func newSourceResult(source string, games map[string]*models.GameRecord, err error) SourceResult {
	if games == nil {
		games = make(map[string]*models.GameRecord)
	}
	switch {
	case err != nil:
		return SourceResult{Source: source, Status: FetchFailed, Games: make(map[string]*models.GameRecord), Err: err}
	case len(games) == 0:
		return SourceResult{Source: source, Status: FetchEmpty, Games: games}
	default:
		return SourceResult{Source: source, Status: FetchOK, Games: games}
	}
}

// GameSource is one stream listing provider.
type GameSource interface {
	Name() string
	FetchGames(ctx context.Context) SourceResult
}

type lotusPayload struct {
	Days []struct {
		Items []lotusItem `json:"items"`
	} `json:"days"`
}

type lotusItem struct {
	Title   string   `json:"title"`
	WhenET  string   `json:"when_et"`
	Status  string   `json:"status"`
	HDs     []string `json:"hds"`
	Streams []struct {
		Link string `json:"link"`
	} `json:"streams"`
}

// LotusSource reads the Lotus event listing. Its titles read "Home - Away".
type LotusSource struct {
	client     *http.Client
	baseURL    string
	normalizer *TeamNormalizer
	zones      TimeZones
	clock      Clock
}

// NewLotusSource creates the Lotus listing fetcher
func NewLotusSource(client *http.Client, baseURL string, normalizer *TeamNormalizer, zones TimeZones, clock Clock) *LotusSource {
	return &LotusSource{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		normalizer: normalizer,
		zones:      zones,
		clock:      clock,
	}
}

func (s *LotusSource) Name() string { return models.SourceLotus }

func (s *LotusSource) FetchGames(ctx context.Context) SourceResult {
	var payload lotusPayload
	if err := shared.FetchJSON(ctx, s.client, s.baseURL+"/api-event.php?league=nba", nil, &payload); err != nil {
		return newSourceResult(s.Name(), nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "FETCH_FAILED", "LotusSource", "FetchGames", true))
	}

	logger := logrus.WithField("component", "LotusSource")
	now := s.clock.Now()
	games := make(map[string]*models.GameRecord)

	for _, day := range payload.Days {
		for _, item := range day.Items {
			record, err := s.toRecord(item, now)
			if err != nil {
				logger.WithError(err).WithField("title", item.Title).Debug("Skipping listing item")
				continue
			}
			if _, exists := games[record.ID]; !exists {
				games[record.ID] = record
			}
		}
	}

	return newSourceResult(s.Name(), games, nil)
}

func (s *LotusSource) toRecord(item lotusItem, now time.Time) (*models.GameRecord, error) {
	matchup, ok := s.normalizer.Normalize(item.Title)
	if !ok {
		return nil, fmt.Errorf("no matchup in title")
	}

	if strings.Contains(item.Title, " - ") {
		matchup.AwayCode, matchup.HomeCode = matchup.HomeCode, matchup.AwayCode
		matchup.AwayName, matchup.HomeName = matchup.HomeName, matchup.AwayName
		matchup.Title = matchup.AwayName + " vs. " + matchup.HomeName
	}

	label, startTimestamp, err := s.zones.FormatGameStart(item.WhenET, now)
	if err != nil {
		return nil, err
	}
	date := strings.Fields(item.WhenET)[0]

	var streams []string
	for _, hd := range item.HDs {
		if hd = strings.TrimSpace(hd); hd != "" {
			streams = append(streams, s.baseURL+"/lotushd.php?hd="+url.QueryEscape(hd))
		}
	}
	for _, stream := range item.Streams {
		if stream.Link != "" {
			streams = append(streams, stream.Link)
		}
	}
	if len(streams) == 0 {
		return nil, fmt.Errorf("no streams listed")
	}

	status := item.Status
	if status == "LIVE" {
		status = "🔴 LIVE"
	}

	return &models.GameRecord{
		ID:             models.GameKey(date, matchup.Key),
		MatchupKey:     matchup.Key,
		Date:           date,
		Title:          matchup.Title,
		ScheduledTime:  label,
		StartTimestamp: startTimestamp,
		Status:         status,
		AwayCode:       matchup.AwayCode,
		HomeCode:       matchup.HomeCode,
		EmbedURLs:      dedupeStrings(streams),
		Sources:        []string{s.Name()},
	}, nil
}

type streamedMatch struct {
	Title   string `json:"title"`
	Date    int64  `json:"date"`
	Status  string `json:"status"`
	Sources []struct {
		Source string `json:"source"`
		ID     string `json:"id"`
	} `json:"sources"`
}

// StreamedSource reads the Streamed basketball match list. Titles read "Away vs Home".
type StreamedSource struct {
	client     *http.Client
	baseURL    string
	embedHost  string
	normalizer *TeamNormalizer
	zones      TimeZones
	clock      Clock
}

// NewStreamedSource creates the Streamed listing fetcher
func NewStreamedSource(client *http.Client, baseURL, embedHost string, normalizer *TeamNormalizer, zones TimeZones, clock Clock) *StreamedSource {
	return &StreamedSource{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		embedHost:  strings.TrimRight(embedHost, "/"),
		normalizer: normalizer,
		zones:      zones,
		clock:      clock,
	}
}

func (s *StreamedSource) Name() string { return models.SourceStreamed }

func (s *StreamedSource) FetchGames(ctx context.Context) SourceResult {
	var matches []streamedMatch
	if err := shared.FetchJSON(ctx, s.client, s.baseURL+"/api/matches/basketball", nil, &matches); err != nil {
		return newSourceResult(s.Name(), nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "FETCH_FAILED", "StreamedSource", "FetchGames", true))
	}

	now := s.clock.Now()
	games := make(map[string]*models.GameRecord)

	for _, match := range matches {
		matchup, ok := s.normalizer.Normalize(match.Title)
		if !ok {
			continue
		}

		var streams []string
		for _, source := range match.Sources {
			if source.Source == "" || source.ID == "" {
				continue
			}
			streams = append(streams, fmt.Sprintf("%s/embed/%s/%s/1", s.embedHost, source.Source, source.ID))
		}
		if len(streams) == 0 {
			continue
		}

		date := s.zones.DateFromMillis(match.Date)
		key := models.GameKey(date, matchup.Key)
		start := time.UnixMilli(match.Date)

		status := match.Status
		if status == "" {
			status = "Scheduled"
		}

		if existing, exists := games[key]; exists {
			for _, stream := range streams {
				if !existing.HasEmbedURL(stream) {
					existing.EmbedURLs = append(existing.EmbedURLs, stream)
				}
			}
			continue
		}

		games[key] = &models.GameRecord{
			ID:             key,
			MatchupKey:     matchup.Key,
			Date:           date,
			Title:          matchup.Title,
			ScheduledTime:  s.zones.StartLabel(start, now),
			StartTimestamp: start.Unix(),
			Status:         status,
			AwayCode:       matchup.AwayCode,
			HomeCode:       matchup.HomeCode,
			EmbedURLs:      dedupeStrings(streams),
			Sources:        []string{s.Name()},
		}
	}

	return newSourceResult(s.Name(), games, nil)
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if !seen[value] {
			seen[value] = true
			out = append(out, value)
		}
	}
	return out
}
