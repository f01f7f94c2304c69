package controllers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/amaumene/tvshowfetcher/internal/metrics"
	"github.com/amaumene/tvshowfetcher/internal/services/indexer"
	"github.com/amaumene/tvshowfetcher/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// IndexerAPI is the subset of the indexer client used by the Acquirer
type IndexerAPI interface {
	Search(ctx context.Context, query string) ([]indexer.Candidate, error)
	GetTorrent(ctx context.Context, id int64) (*indexer.Candidate, error)
	DownloadTorrent(ctx context.Context, id int64, passkey string, w io.Writer) (int64, error)
}

// LookupRequest describes one acquisition attempt
type LookupRequest struct {
	Query      string
	Passkey    string // real passkey written into the placed descriptor
	DestDir    string // folder watched by the torrent client
	Language   string
	Resolution string
	// CandidateID skips the search and fetches that torrent directly when non-zero
	CandidateID int64
}

// AcquisitionBackend places a descriptor for a request. It returns the
// sanitized title and true on success, or false when no candidate exists.
type AcquisitionBackend interface {
	Lookup(ctx context.Context, req LookupRequest) (string, bool, error)
}

// Acquirer is the indexer backed AcquisitionBackend
type Acquirer struct {
	indexer   IndexerAPI
	tempDir   string
	blacklist *utils.Blacklist
	tracer    trace.Tracer
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

// NewAcquirer creates a new acquirer
func NewAcquirer(idx IndexerAPI, tempDir string, blacklist *utils.Blacklist, tracer trace.Tracer, m *metrics.Metrics, logger *logrus.Logger) *Acquirer {
	return &Acquirer{
		indexer:   idx,
		tempDir:   tempDir,
		blacklist: blacklist,
		tracer:    tracer,
		metrics:   m,
		logger:    logger,
	}
}

// Lookup finds a candidate for the request and places its rewritten descriptor in DestDir
func (a *Acquirer) Lookup(ctx context.Context, req LookupRequest) (title string, found bool, err error) {
	ctx, span := a.tracer.Start(ctx, "acquisition.lookup", trace.WithAttributes(
		attribute.String("query", req.Query),
		attribute.Int64("candidate_id", req.CandidateID),
	))
	timer := prometheus.NewTimer(a.metrics.LookupDuration)
	defer func() {
		timer.ObserveDuration()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Bool("found", found))
		span.End()
	}()

	var candidate *indexer.Candidate
	if req.CandidateID != 0 {
		candidate, err = a.indexer.GetTorrent(ctx, req.CandidateID)
		if err != nil {
			return "", false, fmt.Errorf("failed to fetch torrent %d: %w", req.CandidateID, err)
		}
	} else {
		candidate, err = a.searchCandidate(ctx, req)
		if err != nil {
			return "", false, err
		}
	}

	if candidate == nil {
		a.logger.WithFields(logrus.Fields{
			"query":        req.Query,
			"candidate_id": req.CandidateID,
		}).Info("No candidate found")
		return "", false, nil
	}

	title, err = a.place(ctx, candidate, req)
	if err != nil {
		return "", false, err
	}
	return title, true, nil
}

// searchCandidate runs progressively relaxed searches and picks the first
// seeded, non-blacklisted candidate of the first non-empty result set
func (a *Acquirer) searchCandidate(ctx context.Context, req LookupRequest) (*indexer.Candidate, error) {
	var candidates []indexer.Candidate
	for _, query := range searchQueries(req) {
		results, err := a.indexer.Search(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("search %q failed: %w", query, err)
		}
		if len(results) > 0 {
			candidates = results
			break
		}
	}

	for i := range candidates {
		c := &candidates[i]
		if c.Seeders <= 0 {
			continue
		}
		if term, ok := a.blacklist.Match(c.Title); ok {
			a.logger.WithFields(logrus.Fields{
				"title": c.Title,
				"term":  term,
			}).Debug("Skipping blacklisted candidate")
			continue
		}
		return c, nil
	}
	return nil, nil
}

// searchQueries returns "query lang res", "query lang" and "query", skipping
// duplicates produced by empty preferences
func searchQueries(req LookupRequest) []string {
	variants := [][]string{
		{req.Query, req.Language, req.Resolution},
		{req.Query, req.Language},
		{req.Query},
	}

	var queries []string
	seen := make(map[string]bool)
	for _, parts := range variants {
		q := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}
	return queries
}

// place downloads the descriptor with a placeholder passkey, swaps in the
// real passkey and writes the result into the destination folder
func (a *Acquirer) place(ctx context.Context, candidate *indexer.Candidate, req LookupRequest) (string, error) {
	title := descriptorName(candidate)

	placeholder, err := utils.PlaceholderPasskey()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(a.tempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	tempPath := filepath.Join(a.tempDir, title+".torrent")

	f, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", tempPath, err)
	}
	if _, err := a.indexer.DownloadTorrent(ctx, candidate.ID, placeholder, f); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to download descriptor of %s: %w", candidate.Title, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", tempPath, err)
	}

	raw, err := os.ReadFile(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", tempPath, err)
	}
	rewritten, err := indexer.RewriteAnnounce(raw, placeholder, req.Passkey)
	if err != nil {
		return "", fmt.Errorf("failed to rewrite descriptor of %s: %w", candidate.Title, err)
	}

	destPath := filepath.Join(req.DestDir, title+".torrent")
	if err := writeFileAtomic(destPath, rewritten); err != nil {
		return "", err
	}

	a.logger.WithFields(logrus.Fields{
		"title":   title,
		"seeders": candidate.Seeders,
		"path":    destPath,
	}).Info("Descriptor placed in watch folder")

	return title, nil
}

// descriptorName is the sanitized candidate title without leading dots, or
// torrent-<id> when nothing usable is left
func descriptorName(candidate *indexer.Candidate) string {
	name := strings.TrimLeft(utils.SafeFilename(candidate.Title), ".")
	if strings.Trim(name, "_-") == "" {
		return fmt.Sprintf("torrent-%d", candidate.ID)
	}
	return name
}

// writeFileAtomic writes through a hidden temporary file so the watcher
// never picks up a partial descriptor
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move descriptor to %s: %w", path, err)
	}
	return nil
}
