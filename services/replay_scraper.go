package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nba-watcher/backend/models"
	"github.com/nba-watcher/backend/shared"
	"github.com/sirupsen/logrus"
)

// ReplayState is a replay extraction's position in the click-through flow
type ReplayState string

const (
	ReplayPending        ReplayState = "pending"
	ReplayNavigating     ReplayState = "navigating"
	ReplayClickedThrough ReplayState = "clicked_through"
	ReplayExtracted      ReplayState = "extracted"
	ReplayFailed         ReplayState = "failed"
)

// Failure sentinels recorded on failed extractions.
const (
	ReplayErrFailed           = "Error: Failed"
	ReplayErrNavigationFailed = "Error: Navigation Failed"
	ReplayErrClickFailed      = "Error: Click Failed"
	ReplayErrIframeNotFound   = "Error: Iframe Not Found"
	ReplayErrEmptySRC         = "Error: Empty SRC"
)

// ErrEmbedNotFound is returned by a page when the video iframe never attaches.
var ErrEmbedNotFound = errors.New("embed iframe not found")

// ReplayPage is one browser tab
type ReplayPage interface {
	Navigate(ctx context.Context, url string) error
	// ClickThrough clicks the watch control and returns the tab it opens.
	ClickThrough(ctx context.Context) (ReplayPage, error)
	// EmbedSource waits for the video iframe and returns its raw src attribute.
	EmbedSource(ctx context.Context) (string, error)
	Close()
}

// ReplayBrowser opens isolated browser sessions
type ReplayBrowser interface {
	NewPage(ctx context.Context) (ReplayPage, error)
}

// ReplayTimeouts bounds each stage of an extraction
type ReplayTimeouts struct {
	Navigation time.Duration
	Click      time.Duration
	Iframe     time.Duration
}

// ReplayJob tracks one record through the click-through flow
type ReplayJob struct {
	Record        models.ReplayRecord
	PageURL       string
	State         ReplayState
	EmbedURL      string
	FailureReason string
	Err           error

	page   ReplayPage
	opened []ReplayPage
}

// NewReplayJob creates a pending job for a stored replay record
func NewReplayJob(record models.ReplayRecord, replayBaseURL string) *ReplayJob {
	return &ReplayJob{
		Record:  record,
		PageURL: strings.TrimRight(replayBaseURL, "/") + "/" + strings.TrimLeft(record.Slug, "/"),
		State:   ReplayPending,
	}
}

// Terminal reports whether the job has finished.
func (j *ReplayJob) Terminal() bool {
	return j.State == ReplayExtracted || j.State == ReplayFailed
}

// Result is the embed URL when extracted, otherwise the failure sentinel.
func (j *ReplayJob) Result() string {
	if j.State == ReplayExtracted {
		return j.EmbedURL
	}
	if j.FailureReason != "" {
		return j.FailureReason
	}
	return ReplayErrFailed
}

// Step performs exactly one transition. Terminal jobs are left unchanged.
func (j *ReplayJob) Step(ctx context.Context, browser ReplayBrowser, timeouts ReplayTimeouts) ReplayState {
	switch j.State {
	case ReplayPending:
		page, err := browser.NewPage(ctx)
		if err != nil {
			return j.fail(ReplayErrFailed, err)
		}
		j.track(page)
		j.State = ReplayNavigating

	case ReplayNavigating:
		navCtx, cancel := withStageTimeout(ctx, timeouts.Navigation)
		err := j.page.Navigate(navCtx, j.PageURL)
		cancel()
		if err != nil {
			return j.fail(ReplayErrNavigationFailed, err)
		}

		clickCtx, cancel := withStageTimeout(ctx, timeouts.Click)
		popup, err := j.page.ClickThrough(clickCtx)
		cancel()
		if err != nil {
			return j.fail(ReplayErrClickFailed, err)
		}
		j.track(popup)
		j.State = ReplayClickedThrough

	case ReplayClickedThrough:
		iframeCtx, cancel := withStageTimeout(ctx, timeouts.Iframe)
		src, err := j.page.EmbedSource(iframeCtx)
		cancel()
		if err != nil {
			return j.fail(ReplayErrIframeNotFound, err)
		}
		src = NormalizeEmbedURL(src)
		if src == "" {
			return j.fail(ReplayErrEmptySRC, nil)
		}
		j.EmbedURL = src
		j.State = ReplayExtracted
	}

	return j.State
}

// Run steps the job to a terminal state and releases its pages.
func (j *ReplayJob) Run(ctx context.Context, browser ReplayBrowser, timeouts ReplayTimeouts) ReplayState {
	defer j.Close()
	for !j.Terminal() {
		j.Step(ctx, browser, timeouts)
	}
	return j.State
}

// Close releases every page the job opened
func (j *ReplayJob) Close() {
	for i := len(j.opened) - 1; i >= 0; i-- {
		j.opened[i].Close()
	}
	j.opened = nil
	j.page = nil
}

func (j *ReplayJob) track(page ReplayPage) {
	j.page = page
	j.opened = append(j.opened, page)
}

func (j *ReplayJob) fail(reason string, err error) ReplayState {
	j.State = ReplayFailed
	j.FailureReason = reason
	j.Err = err
	return j.State
}

func withStageTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// NormalizeEmbedURL trims the src and makes protocol-relative URLs absolute.
func NormalizeEmbedURL(src string) string {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

// ReplayScraper runs extractions through a bounded pool of browser sessions
type ReplayScraper struct {
	browser     ReplayBrowser
	baseURL     string
	concurrency int
	timeouts    ReplayTimeouts
	metrics     *shared.Metrics
	logger      *logrus.Entry
}

// NewReplayScraper creates a replay scraper bound to the replay site's base URL
func NewReplayScraper(browser ReplayBrowser, baseURL string, cfg shared.ScraperConfig, metrics *shared.Metrics) *ReplayScraper {
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	return &ReplayScraper{
		browser:     browser,
		baseURL:     baseURL,
		concurrency: concurrency,
		timeouts: ReplayTimeouts{
			Navigation: cfg.NavigationTimeout,
			Click:      cfg.ClickTimeout,
			Iframe:     cfg.IframeTimeout,
		},
		metrics: metrics,
		logger:  logrus.WithField("component", "ReplayScraper"),
	}
}

// Run extracts embed URLs for every record. Jobs are returned in input order;
// one record's failure never affects another.
func (s *ReplayScraper) Run(ctx context.Context, records []models.ReplayRecord) ([]*ReplayJob, shared.BatchProcessingResult) {
	startTime := time.Now()
	jobs := make([]*ReplayJob, len(records))
	semaphore := make(chan struct{}, s.concurrency)
	var waitGroup sync.WaitGroup

	for i, record := range records {
		jobs[i] = NewReplayJob(record, s.baseURL)

		waitGroup.Add(1)
		go func(job *ReplayJob) {
			defer waitGroup.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			job.Run(ctx, s.browser, s.timeouts)
			s.metrics.RecordReplayScrape(string(job.State))

			entry := s.logger.WithFields(logrus.Fields{
				"replay_id": job.Record.ID,
				"slug":      job.Record.Slug,
				"state":     job.State,
			})
			if job.State == ReplayFailed {
				entry.WithError(job.Err).WithField("reason", job.FailureReason).Warn("Replay extraction failed")
			} else {
				entry.Debug("Replay extracted")
			}
		}(jobs[i])
	}
	waitGroup.Wait()

	result := shared.BatchProcessingResult{TotalProcessed: len(jobs)}
	var sampleErrors []error
	for _, job := range jobs {
		if job.State == ReplayExtracted {
			result.Succeeded++
			continue
		}
		key := strconv.FormatInt(job.Record.ID, 10)
		result.FailedItems = append(result.FailedItems, shared.FailedItem{
			Key:         key,
			Reason:      job.FailureReason,
			FailureTime: time.Now(),
		})
		sampleErrors = append(sampleErrors, fmt.Errorf("%s: %s", key, job.FailureReason))
	}
	result.ProcessingTime = time.Since(startTime)
	if len(result.FailedItems) > 0 {
		result.ErrorSummary = shared.BuildBatchProcessingErrorSummary(result.Succeeded, len(result.FailedItems), sampleErrors)
	}

	s.logger.WithFields(logrus.Fields{
		"total":     result.TotalProcessed,
		"extracted": result.Succeeded,
		"failed":    len(result.FailedItems),
		"duration":  result.ProcessingTime,
	}).Info("Replay scrape pass completed")

	return jobs, result
}

// ExtractedJobs filters a run down to the jobs worth persisting.
func ExtractedJobs(jobs []*ReplayJob) []*ReplayJob {
	var extracted []*ReplayJob
	for _, job := range jobs {
		if job.State == ReplayExtracted {
			extracted = append(extracted, job)
		}
	}
	return extracted
}
