package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/metrics"
	"github.com/amaumene/tvshowfetcher/internal/models"
	"github.com/amaumene/tvshowfetcher/internal/services/mailer"
	"github.com/sirupsen/logrus"
)

const summarySubject = "Download resum"

// OutcomeStatus tags the result of one acquisition attempt
type OutcomeStatus string

const (
	OutcomeSuccess     OutcomeStatus = "success"
	OutcomeNoCandidate OutcomeStatus = "no_candidate"
	OutcomeError       OutcomeStatus = "error"
)

// Outcome is the result of one acquisition attempt
type Outcome struct {
	Status OutcomeStatus
	Title  string // sanitized title of the placed descriptor
	Err    error
}

// OK reports whether a descriptor was placed
func (o Outcome) OK() bool {
	return o.Status == OutcomeSuccess
}

// EpisodeResult pairs an episode with its outcome
type EpisodeResult struct {
	Episode *models.Episode
	Outcome Outcome
}

// Report lists the outcome of every processed episode in processing order
type Report struct {
	Results []EpisodeResult
	// Stopped is set when the batch was aborted after an error
	Stopped bool
}

// Succeeded counts the successful acquisitions
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome.OK() {
			n++
		}
	}
	return n
}

// URLResult is the outcome of one indexer URL
type URLResult struct {
	URL       string
	TorrentID int64
	Outcome   Outcome
}

// DownloadOptions configures acquisitions
type DownloadOptions struct {
	Passkey    string
	DestDir    string
	Language   string
	Resolution string
	// Delay is waited between two consecutive lookups
	Delay time.Duration
	// ContinueOnError keeps processing the batch after a failed item
	ContinueOnError bool
	Actor           string
}

// DownloadController drives acquisitions and reports them
type DownloadController struct {
	db       *models.Database
	backend  AcquisitionBackend
	notifier mailer.Notifier
	opts     DownloadOptions
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	sleep    func(ctx context.Context, d time.Duration) error

	// one acquisition batch at a time, whichever entry point starts it
	mu sync.Mutex
}

// NewDownloadController creates a new download controller
func NewDownloadController(db *models.Database, backend AcquisitionBackend, notifier mailer.Notifier, opts DownloadOptions, m *metrics.Metrics, logger *logrus.Logger) *DownloadController {
	return &DownloadController{
		db:       db,
		backend:  backend,
		notifier: notifier,
		opts:     opts,
		metrics:  m,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// DownloadEpisodes acquires the episodes one after the other and sends a
// single summary notification. Successful episodes are marked downloaded.
// Batches never overlap, and each episode is re-read before its lookup so
// one already downloaded by an earlier batch is skipped.
// Unless ContinueOnError is set the batch stops at the first failed item;
// the summary is still sent and the error is returned with the report.
func (c *DownloadController) DownloadEpisodes(ctx context.Context, episodes []*models.Episode) (*Report, error) {
	report := &Report{}
	if len(episodes) == 0 {
		return report, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.WithField("count", len(episodes)).Info("Starting episode batch download")

	var stopErr error
	for _, snapshot := range episodes {
		episode, err := c.db.GetEpisode(snapshot.ID)
		if errors.Is(err, models.ErrNotFound) {
			c.logger.WithField("episode", snapshot.String()).Warn("Episode no longer exists, skipping")
			continue
		}
		if err != nil {
			stopErr = fmt.Errorf("failed to reload %s: %w", snapshot, err)
			report.Stopped = true
			break
		}
		if episode.Downloaded {
			c.logger.WithField("episode", episode.String()).Info("Episode already downloaded, skipping")
			continue
		}

		if len(report.Results) > 0 {
			if err := c.sleep(ctx, c.opts.Delay); err != nil {
				stopErr = err
				report.Stopped = true
				break
			}
		}

		outcome := c.acquireEpisode(ctx, episode)
		report.Results = append(report.Results, EpisodeResult{Episode: episode, Outcome: outcome})

		if outcome.Status == OutcomeError && !c.opts.ContinueOnError {
			stopErr = fmt.Errorf("batch stopped at %s: %w", episode, outcome.Err)
			report.Stopped = true
			break
		}
	}

	lines := make([]string, 0, len(report.Results))
	for _, res := range report.Results {
		lines = append(lines, summaryLine(res.Episode.String(), res.Outcome.OK()))
	}

	var notifyErr error
	if len(lines) > 0 {
		notifyErr = c.notify(ctx, lines)
	}

	c.logger.WithFields(logrus.Fields{
		"processed": len(report.Results),
		"succeeded": report.Succeeded(),
		"stopped":   report.Stopped,
	}).Info("Episode batch download completed")

	if stopErr != nil {
		return report, stopErr
	}
	return report, notifyErr
}

// acquireEpisode is the per-item error boundary of a batch
func (c *DownloadController) acquireEpisode(ctx context.Context, episode *models.Episode) Outcome {
	outcome := c.lookup(ctx, LookupRequest{Query: episode.String()})
	if outcome.OK() {
		if _, err := c.db.MarkEpisodeDownloaded(episode.ID, c.opts.Actor); err != nil {
			outcome = Outcome{Status: OutcomeError, Title: outcome.Title, Err: fmt.Errorf("failed to mark %s downloaded: %w", episode, err)}
		} else {
			episode.Downloaded = true
		}
	}

	entry := c.logger.WithFields(logrus.Fields{
		"episode": episode.String(),
		"status":  outcome.Status,
		"title":   outcome.Title,
	})
	if outcome.Err != nil {
		entry.WithError(outcome.Err).Error("Episode acquisition failed")
	} else {
		entry.Info("Episode acquisition finished")
	}

	c.metrics.AcquisitionOutcomes.WithLabelValues(string(outcome.Status)).Inc()
	return outcome
}

// lookup completes req with the configured preferences and runs it through the backend
func (c *DownloadController) lookup(ctx context.Context, req LookupRequest) Outcome {
	req.Passkey = c.opts.Passkey
	req.DestDir = c.opts.DestDir
	req.Language = c.opts.Language
	req.Resolution = c.opts.Resolution

	title, found, err := c.backend.Lookup(ctx, req)
	switch {
	case err != nil:
		return Outcome{Status: OutcomeError, Err: err}
	case !found:
		return Outcome{Status: OutcomeNoCandidate}
	default:
		return Outcome{Status: OutcomeSuccess, Title: title}
	}
}

// DownloadByURLs acquires the torrents referenced by indexer URLs. URLs
// without a torrent id are skipped; when none carries one nothing is
// looked up and no notification is sent.
func (c *DownloadController) DownloadByURLs(ctx context.Context, urls []string) ([]URLResult, error) {
	var results []URLResult
	for _, raw := range urls {
		id, ok := TorrentIDFromURL(raw)
		if !ok {
			c.logger.WithField("url", raw).Warn("No torrent id in URL, skipping")
			continue
		}
		results = append(results, URLResult{URL: raw, TorrentID: id})
	}
	if len(results) == 0 {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var stopErr error
	processed := 0
	for i := range results {
		if i > 0 {
			if err := c.sleep(ctx, c.opts.Delay); err != nil {
				stopErr = err
				break
			}
		}

		outcome := c.lookup(ctx, LookupRequest{CandidateID: results[i].TorrentID})
		results[i].Outcome = outcome
		processed++
		c.metrics.AcquisitionOutcomes.WithLabelValues(string(outcome.Status)).Inc()

		if outcome.Status == OutcomeError && !c.opts.ContinueOnError {
			stopErr = fmt.Errorf("batch stopped at %s: %w", results[i].URL, outcome.Err)
			break
		}
	}
	results = results[:processed]

	lines := make([]string, 0, len(results))
	for _, res := range results {
		label := res.Outcome.Title
		if label == "" {
			label = res.URL
		}
		lines = append(lines, summaryLine(label, res.Outcome.OK()))
	}
	notifyErr := c.notify(ctx, lines)

	if stopErr != nil {
		return results, stopErr
	}
	return results, notifyErr
}

// MarkDownloaded flags episodes as downloaded without acquiring them
func (c *DownloadController) MarkDownloaded(ids []int64) (int, error) {
	n, err := c.db.MarkEpisodesDownloaded(ids, c.opts.Actor)
	if err != nil {
		return n, fmt.Errorf("failed to mark episodes downloaded: %w", err)
	}
	c.logger.WithField("count", n).Info("Episodes marked as downloaded")
	return n, nil
}

func (c *DownloadController) notify(ctx context.Context, lines []string) error {
	body := "Hello,\nI proudly download:\n" + strings.Join(lines, "")
	if err := c.notifier.Notify(ctx, summarySubject, body); err != nil {
		c.metrics.NotificationsTotal.WithLabelValues("error").Inc()
		c.logger.WithError(err).Error("Failed to send download summary")
		return fmt.Errorf("failed to send download summary: %w", err)
	}
	c.metrics.NotificationsTotal.WithLabelValues("success").Inc()
	return nil
}

func summaryLine(label string, ok bool) string {
	return fmt.Sprintf(" * %s: %s\r\n", label, strconv.FormatBool(ok))
}

var leadingDigits = regexp.MustCompile(`^\d+`)

// TorrentIDFromURL extracts the torrent id from an indexer URL such as
// https://indexer.example/torrent/12345-show-name: the leading digits of the
// last path segment
func TorrentIDFromURL(raw string) (int64, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}

	segment := path.Base(strings.TrimRight(u.Path, "/"))
	digits := leadingDigits.FindString(segment)
	if digits == "" {
		return 0, false
	}

	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
