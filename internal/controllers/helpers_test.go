package controllers

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/amaumene/tvshowfetcher/internal/metrics"
	"github.com/amaumene/tvshowfetcher/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func newTestDB(t *testing.T) *models.Database {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type sentMail struct {
	subject string
	body    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{subject: subject, body: body})
	return n.err
}

type lookupResult struct {
	title string
	found bool
	err   error
}

// fakeBackend answers lookups by query, or by candidate id when set
type fakeBackend struct {
	byQuery map[string]lookupResult
	byID    map[int64]lookupResult
	calls   []LookupRequest
}

func (b *fakeBackend) Lookup(_ context.Context, req LookupRequest) (string, bool, error) {
	b.calls = append(b.calls, req)
	var res lookupResult
	if req.CandidateID != 0 {
		res = b.byID[req.CandidateID]
	} else {
		res = b.byQuery[req.Query]
	}
	return res.title, res.found, res.err
}
