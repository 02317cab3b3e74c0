package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/nba-watcher/backend/models"
	"github.com/nba-watcher/backend/shared"
	"github.com/sirupsen/logrus"
)

const scheduleDateLayout = "Mon, Jan 2, 2006"

// ScheduleScraper collects played games from the season's monthly schedule pages
type ScheduleScraper struct {
	baseURL     string
	season      shared.SeasonConfig
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	rateLimiter *shared.HTTPRequestRateLimiter
	zones       TimeZones
	clock       Clock
	logger      *logrus.Entry
}

// NewScheduleScraper creates a schedule scraper from the schedule source settings
func NewScheduleScraper(cfg shared.ServiceConfig, season shared.SeasonConfig, zones TimeZones, clock Clock) *ScheduleScraper {
	return &ScheduleScraper{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		season:      season,
		timeout:     cfg.HTTPRequestTimeout,
		maxAttempts: cfg.MaxRetryAttempts + 1,
		retryDelay:  2 * time.Second,
		rateLimiter: shared.NewHTTPRequestRateLimiter(cfg.RequestRateLimit),
		zones:       zones,
		clock:       clock,
		logger:      logrus.WithField("component", "ScheduleScraper"),
	}
}

// MonthURL returns the schedule page for a calendar month of the season
func (s *ScheduleScraper) MonthURL(month time.Month) string {
	return fmt.Sprintf("%s/leagues/NBA_%d_games-%s.html", s.baseURL, s.season.SeasonEndYear(), strings.ToLower(month.String()))
}

// SeasonMonths lists (year, month) pairs from the season start through the cutoff's month.
func SeasonMonths(season shared.SeasonConfig, cutoff time.Time) []time.Time {
	var months []time.Time
	current := time.Date(season.StartYear, time.Month(season.StartMonth), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(cutoff.Year(), cutoff.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !current.After(last) {
		months = append(months, current)
		current = current.AddDate(0, 1, 0)
	}
	return months
}

// Scrape returns every game played through yesterday. A month that cannot be
// loaded is skipped; the error reports how many months were lost.
func (s *ScheduleScraper) Scrape(ctx context.Context) ([]models.ReplayRecord, error) {
	now := s.clock.Now().In(s.zones.Display)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	var (
		mutex   sync.Mutex
		records []models.ReplayRecord
		found   = make(map[string]bool)
	)

	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		s.logger.WithFields(logrus.Fields{
			"url":     r.URL.String(),
			"attempt": r.Ctx.GetAny("attempt"),
		}).Debug("Requesting schedule page")
	})

	c.OnHTML("table#schedule", func(e *colly.HTMLElement) {
		rows := ParseScheduleTable(e.DOM, cutoff)

		mutex.Lock()
		defer mutex.Unlock()
		found[e.Request.URL.String()] = true
		records = append(records, rows...)
	})

	c.OnError(func(r *colly.Response, err error) {
		s.retry(r.Request, err)
	})

	c.OnScraped(func(r *colly.Response) {
		mutex.Lock()
		ok := found[r.Request.URL.String()]
		mutex.Unlock()
		if !ok {
			s.retry(r.Request, fmt.Errorf("schedule table not found"))
		}
	})

	requestsBefore := s.rateLimiter.GetRequestCount()
	failedMonths := 0
	for _, month := range SeasonMonths(s.season, cutoff) {
		if err := s.rateLimiter.Wait(ctx); err != nil {
			return records, err
		}

		pageURL := s.MonthURL(month.Month())
		requestCtx := colly.NewContext()
		requestCtx.Put("attempt", 1)
		requestCtx.Put("run", ctx)

		if err := c.Request("GET", pageURL, nil, requestCtx, nil); err != nil {
			s.logger.WithError(err).WithField("url", pageURL).Warn("Schedule page request failed")
		}

		mutex.Lock()
		ok := found[pageURL]
		mutex.Unlock()
		if !ok {
			failedMonths++
			s.logger.WithFields(logrus.Fields{
				"month":    month.Format("January 2006"),
				"attempts": s.maxAttempts,
			}).Warn("Failed to load schedule month")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"games":         len(records),
		"months":        s.rateLimiter.GetRequestCount() - requestsBefore,
		"failed_months": failedMonths,
		"cutoff":        cutoff.Format("2006-01-02"),
	}).Info("Schedule scrape completed")

	if failedMonths > 0 {
		return records, shared.NewServiceError(shared.ErrorCategoryNetwork, "SCHEDULE_INCOMPLETE",
			fmt.Sprintf("%d schedule months could not be loaded", failedMonths), "ScheduleScraper", "Scrape", true, nil)
	}
	return records, nil
}

func (s *ScheduleScraper) retry(request *colly.Request, cause error) {
	attempt, _ := request.Ctx.GetAny("attempt").(int)
	if attempt >= s.maxAttempts {
		s.logger.WithError(cause).WithField("url", request.URL.String()).Debug("Schedule page attempts exhausted")
		return
	}

	s.logger.WithError(cause).WithFields(logrus.Fields{
		"url":     request.URL.String(),
		"attempt": attempt,
	}).Debug("Retrying schedule page")

	runCtx, _ := request.Ctx.GetAny("run").(context.Context)
	if runCtx == nil {
		runCtx = context.Background()
	}
	timer := time.NewTimer(s.retryDelay)
	select {
	case <-runCtx.Done():
		timer.Stop()
		s.logger.WithError(runCtx.Err()).WithField("url", request.URL.String()).Debug("Schedule scrape cancelled, not retrying")
		return
	case <-timer.C:
	}

	request.Ctx.Put("attempt", attempt+1)
	if err := request.Retry(); err != nil {
		s.logger.WithError(err).Debug("Schedule page retry failed")
	}
}

// ParseScheduleTable reads played games from a schedule table, stopping at the first game after cutoff.
func ParseScheduleTable(table *goquery.Selection, cutoff time.Time) []models.ReplayRecord {
	var records []models.ReplayRecord

	table.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("th, td")
		if cells.Length() < 7 {
			return true
		}

		text := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		gameDate, err := time.Parse(scheduleDateLayout, text(0))
		if err != nil {
			return true
		}
		if gameDate.After(cutoff) {
			return false
		}

		awayTeam := canonicalScheduleTeam(text(2))
		homeTeam := canonicalScheduleTeam(text(4))
		if awayTeam == "" || homeTeam == "" {
			return true
		}

		notes := ""
		if cells.Length() > 7 {
			notes = text(7)
		}

		records = append(records, models.ReplayRecord{
			GameDate:  gameDate,
			Slug:      ReplaySlug(awayTeam, homeTeam, gameDate),
			AwayTeam:  awayTeam,
			HomeTeam:  homeTeam,
			AwayScore: parseScore(text(3)),
			HomeScore: parseScore(text(5)),
			Notes:     notes,
		})
		return true
	})

	return records
}

// ReplaySlug builds the replay page path for a game.
func ReplaySlug(awayTeam, homeTeam string, gameDate time.Time) string {
	return fmt.Sprintf("%s-vs-%s-full-game-replay-%s-%d-%d-nba",
		teamSlug(awayTeam), teamSlug(homeTeam),
		strings.ToLower(gameDate.Month().String()), gameDate.Day(), gameDate.Year())
}

func teamSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// The replay site lists the Clippers under their short name.
func canonicalScheduleTeam(name string) string {
	if name == "Los Angeles Clippers" {
		return "LA Clippers"
	}
	return name
}

func parseScore(raw string) *int {
	score, err := strconv.Atoi(raw)
	if err != nil || score < 0 {
		return nil
	}
	return &score
}
