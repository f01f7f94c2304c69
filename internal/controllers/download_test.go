package controllers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDownloadController(t *testing.T, backend AcquisitionBackend, notifier *fakeNotifier, opts DownloadOptions) (*DownloadController, *models.Database) {
	t.Helper()
	db := newTestDB(t)
	c := NewDownloadController(db, backend, notifier, opts, testMetrics(), testLogger())
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c, db
}

func seedEpisode(t *testing.T, db *models.Database, id int64, show string, number int) *models.Episode {
	t.Helper()
	day := time.Date(2024, 1, number, 0, 0, 0, 0, time.UTC)
	episode, _, err := models.Upsert[models.Episode](db, id, models.Fields{
		"show_id":   int64(1),
		"show_name": show,
		"season":    1,
		"number":    number,
		"date":      &day,
		"aired":     true,
	}, "")
	require.NoError(t, err)
	return episode
}

func TestDownloadEpisodesEmpty(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &fakeNotifier{}
	c, _ := newDownloadController(t, backend, notifier, DownloadOptions{})

	report, err := c.DownloadEpisodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Empty(t, backend.calls)
	assert.Empty(t, notifier.sent)
}

func TestDownloadEpisodesSingleSuccess(t *testing.T) {
	backend := &fakeBackend{byQuery: map[string]lookupResult{
		"Dark S01E01": {title: "Dark.S01E01.1080p", found: true},
	}}
	notifier := &fakeNotifier{}
	c, db := newDownloadController(t, backend, notifier, DownloadOptions{
		Passkey:    "realkey",
		DestDir:    "/watch",
		Language:   "MULTi",
		Resolution: "1080p",
	})
	episode := seedEpisode(t, db, 10, "Dark", 1)

	report, err := c.DownloadEpisodes(context.Background(), []*models.Episode{episode})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Outcome.OK())
	assert.Equal(t, "Dark.S01E01.1080p", report.Results[0].Outcome.Title)

	require.Len(t, backend.calls, 1)
	assert.Equal(t, LookupRequest{Query: "Dark S01E01", Passkey: "realkey", DestDir: "/watch", Language: "MULTi", Resolution: "1080p"}, backend.calls[0])

	stored, err := db.GetEpisode(10)
	require.NoError(t, err)
	assert.True(t, stored.Downloaded)

	entries, err := db.GetAuditEntries(models.KindEpisode, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionChanged, entries[1].Action)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Download resum", notifier.sent[0].subject)
	assert.Equal(t, "Hello,\nI proudly download:\n * Dark S01E01: true\r\n", notifier.sent[0].body)
}

func TestDownloadEpisodesNoCandidate(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &fakeNotifier{}
	c, db := newDownloadController(t, backend, notifier, DownloadOptions{})
	episode := seedEpisode(t, db, 10, "Dark", 1)

	report, err := c.DownloadEpisodes(context.Background(), []*models.Episode{episode})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoCandidate, report.Results[0].Outcome.Status)

	stored, err := db.GetEpisode(10)
	require.NoError(t, err)
	assert.False(t, stored.Downloaded)
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0].body, " * Dark S01E01: false\r\n")
}

func TestDownloadEpisodesStopsOnError(t *testing.T) {
	backend := &fakeBackend{byQuery: map[string]lookupResult{
		"Dark S01E01": {title: "a", found: true},
		"Dark S01E02": {err: errors.New("indexer unreachable")},
		"Dark S01E03": {title: "c", found: true},
	}}
	notifier := &fakeNotifier{}
	c, db := newDownloadController(t, backend, notifier, DownloadOptions{})
	episodes := []*models.Episode{
		seedEpisode(t, db, 1, "Dark", 1),
		seedEpisode(t, db, 2, "Dark", 2),
		seedEpisode(t, db, 3, "Dark", 3),
	}

	report, err := c.DownloadEpisodes(context.Background(), episodes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indexer unreachable")
	assert.True(t, report.Stopped)
	require.Len(t, report.Results, 2)
	assert.Len(t, backend.calls, 2)

	first, err := db.GetEpisode(1)
	require.NoError(t, err)
	assert.True(t, first.Downloaded)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Hello,\nI proudly download:\n * Dark S01E01: true\r\n * Dark S01E02: false\r\n", notifier.sent[0].body)
}

func TestDownloadEpisodesContinueOnError(t *testing.T) {
	backend := &fakeBackend{byQuery: map[string]lookupResult{
		"Dark S01E01": {err: errors.New("indexer unreachable")},
		"Dark S01E02": {title: "b", found: true},
	}}
	notifier := &fakeNotifier{}
	c, db := newDownloadController(t, backend, notifier, DownloadOptions{ContinueOnError: true})
	episodes := []*models.Episode{
		seedEpisode(t, db, 1, "Dark", 1),
		seedEpisode(t, db, 2, "Dark", 2),
	}

	report, err := c.DownloadEpisodes(context.Background(), episodes)
	require.NoError(t, err)
	assert.False(t, report.Stopped)
	require.Len(t, report.Results, 2)
	assert.Equal(t, OutcomeError, report.Results[0].Outcome.Status)
	assert.Equal(t, 1, report.Succeeded())
	assert.Len(t, notifier.sent, 1)
}

func TestDownloadEpisodesNotifyFailure(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &fakeNotifier{err: errors.New("mailjet down")}
	c, db := newDownloadController(t, backend, notifier, DownloadOptions{})

	report, err := c.DownloadEpisodes(context.Background(), []*models.Episode{seedEpisode(t, db, 1, "Dark", 1)})
	require.Error(t, err)
	assert.Len(t, report.Results, 1)
}

// gatedBackend holds its first lookup until release is closed
type gatedBackend struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func (b *gatedBackend) Lookup(_ context.Context, req LookupRequest) (string, bool, error) {
	b.calls.Add(1)
	b.once.Do(func() {
		close(b.started)
		<-b.release
	})
	return req.Query, true, nil
}

func TestDownloadEpisodesOverlappingBatchesAcquireOnce(t *testing.T) {
	backend := &gatedBackend{started: make(chan struct{}), release: make(chan struct{})}
	notifier := &fakeNotifier{}
	c, db := newDownloadController(t, backend, notifier, DownloadOptions{})
	seedEpisode(t, db, 10, "Dark", 1)

	// both batches start from a snapshot taken before either acquisition
	first, err := db.GetEpisodes([]int64{10})
	require.NoError(t, err)
	second, err := db.GetEpisodes([]int64{10})
	require.NoError(t, err)

	var wg sync.WaitGroup
	reports := make([]*Report, 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		reports[0], errs[0] = c.DownloadEpisodes(context.Background(), first)
	}()
	<-backend.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		reports[1], errs[1] = c.DownloadEpisodes(context.Background(), second)
	}()
	time.Sleep(20 * time.Millisecond)
	close(backend.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), backend.calls.Load())
	assert.Len(t, reports[0].Results, 1)
	assert.Empty(t, reports[1].Results)
	assert.Len(t, notifier.sent, 1)
}

func TestDownloadEpisodesSkipsAlreadyDownloaded(t *testing.T) {
	backend := &fakeBackend{byQuery: map[string]lookupResult{
		"Dark S01E02": {title: "b", found: true},
	}}
	notifier := &fakeNotifier{}
	c, db := newDownloadController(t, backend, notifier, DownloadOptions{})
	episodes := []*models.Episode{
		seedEpisode(t, db, 1, "Dark", 1),
		seedEpisode(t, db, 2, "Dark", 2),
	}
	_, err := db.MarkEpisodeDownloaded(1, "")
	require.NoError(t, err)

	report, err := c.DownloadEpisodes(context.Background(), episodes)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, int64(2), report.Results[0].Episode.ID)
	require.Len(t, backend.calls, 1)
	assert.Equal(t, "Dark S01E02", backend.calls[0].Query)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Hello,\nI proudly download:\n * Dark S01E02: true\r\n", notifier.sent[0].body)
}

func TestDownloadEpisodesAllDownloadedSendsNothing(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &fakeNotifier{}
	c, db := newDownloadController(t, backend, notifier, DownloadOptions{})
	episode := seedEpisode(t, db, 1, "Dark", 1)
	_, err := db.MarkEpisodeDownloaded(1, "")
	require.NoError(t, err)

	report, err := c.DownloadEpisodes(context.Background(), []*models.Episode{episode})
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Empty(t, backend.calls)
	assert.Empty(t, notifier.sent)
}

func TestDownloadByURLs(t *testing.T) {
	backend := &fakeBackend{byID: map[int64]lookupResult{
		12345: {title: "Title", found: true},
	}}
	notifier := &fakeNotifier{}
	c, _ := newDownloadController(t, backend, notifier, DownloadOptions{})

	results, err := c.DownloadByURLs(context.Background(), []string{
		"https://example.com/torrent/12345",
		"https://example.com/no-digits",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(12345), results[0].TorrentID)
	assert.Equal(t, "Title", results[0].Outcome.Title)
	require.Len(t, backend.calls, 1)
	assert.Equal(t, int64(12345), backend.calls[0].CandidateID)
	assert.Len(t, notifier.sent, 1)
}

func TestDownloadByURLsWithoutIDs(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &fakeNotifier{}
	c, _ := newDownloadController(t, backend, notifier, DownloadOptions{})

	results, err := c.DownloadByURLs(context.Background(), []string{"https://example.com/no-digits"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, backend.calls)
	assert.Empty(t, notifier.sent)
}

func TestTorrentIDFromURL(t *testing.T) {
	tests := []struct {
		url string
		id  int64
		ok  bool
	}{
		{"https://example.com/torrent/12345", 12345, true},
		{"https://example.com/torrent/12345/", 12345, true},
		{"https://example.com/engine/torrent/987-dark-s01e01-multi-1080p", 987, true},
		{"https://example.com/no-digits", 0, false},
		{"https://example.com/torrent/dark-123", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, ok := TorrentIDFromURL(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestMarkDownloaded(t *testing.T) {
	c, db := newDownloadController(t, &fakeBackend{}, &fakeNotifier{}, DownloadOptions{Actor: "alice"})
	seedEpisode(t, db, 1, "Dark", 1)

	n, err := c.MarkDownloaded([]int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := db.GetAuditEntries(models.KindEpisode, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[1].Actor)
}

func TestPurgeTempDescriptors(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	write := func(name string, age time.Duration) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("d"), 0644))
		require.NoError(t, os.Chtimes(path, now.Add(-age), now.Add(-age)))
	}
	write("old.torrent", 48*time.Hour)
	write("fresh.torrent", time.Hour)
	write("notes.txt", 48*time.Hour)

	c := NewCleanupController(dir, 24*time.Hour, testMetrics(), testLogger())
	c.now = func() time.Time { return now }

	removed, err := c.PurgeTempDescriptors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(dir, "old.torrent"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "fresh.torrent"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestPurgeTempDescriptorsMissingDir(t *testing.T) {
	c := NewCleanupController(filepath.Join(t.TempDir(), "missing"), time.Hour, testMetrics(), testLogger())
	removed, err := c.PurgeTempDescriptors(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}
