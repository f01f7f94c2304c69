package owncloud

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amaumene/tvshowfetcher/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const propfindBody = `<?xml version="1.0" encoding="utf-8"?>
<d:multistatus xmlns:d="DAV:">
  <d:response>
    <d:href>/remote.php/webdav/Local/</d:href>
    <d:propstat><d:prop><d:resourcetype><d:collection/></d:resourcetype></d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat>
  </d:response>
  <d:response>
    <d:href>/remote.php/webdav/Local/b.mkv</d:href>
    <d:propstat><d:prop><d:resourcetype/><d:getcontentlength>42</d:getcontentlength></d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat>
  </d:response>
  <d:response>
    <d:href>/remote.php/webdav/Local/Series/</d:href>
    <d:propstat><d:prop><d:resourcetype><d:collection/></d:resourcetype></d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat>
  </d:response>
</d:multistatus>`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewClient(&config.Config{OCServer: srv.URL, OCUser: "bob", OCPassword: "secret"}, logger)
}

func TestList(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PROPFIND", r.Method)
		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="owncloud"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "bob", user)
		assert.Equal(t, "secret", pass)
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = io.WriteString(w, propfindBody)
	}))

	entries, err := c.List(context.Background(), "/Local/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Local/Series", entries[0].Path)
	assert.True(t, entries[0].IsDir)
	assert.Equal(t, "Local/b.mkv", entries[1].Path)
	assert.Equal(t, int64(42), entries[1].Size)
}

func TestGetShares(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sharesPath, r.URL.Path)
		assert.Equal(t, "true", r.Header.Get("OCS-APIRequest"))
		switch r.URL.Query().Get("path") {
		case "/Local/a.mkv":
			_, _ = io.WriteString(w, `{"ocs":{"meta":{"status":"ok","statuscode":100},"data":[{"id":"7","share_type":3,"path":"/Local/a.mkv","token":"abc","url":"https://oc.example.com/s/abc"}]}}`)
		default:
			_, _ = io.WriteString(w, `{"ocs":{"meta":{"status":"failure","statuscode":404,"message":"Wrong path, file/folder doesn't exist"},"data":[]}}`)
		}
	}))

	shares, err := c.GetShares(context.Background(), "Local/a.mkv")
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "https://oc.example.com/s/abc", shares[0].URL)
	assert.Equal(t, "7", shares[0].ID.String())

	shares, err = c.GetShares(context.Background(), "Local/none.mkv")
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestCreatePublicLink(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "/Local/a.mkv", r.PostForm.Get("path"))
		assert.Equal(t, "3", r.PostForm.Get("shareType"))
		_, _ = io.WriteString(w, `{"ocs":{"meta":{"status":"ok","statuscode":100},"data":{"id":8,"token":"def","url":"https://oc.example.com/s/def"}}}`)
	}))

	share, err := c.CreatePublicLink(context.Background(), "Local/a.mkv")
	require.NoError(t, err)
	assert.Equal(t, "https://oc.example.com/s/def", share.URL)
}

func TestCreatePublicLinkFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ocs":{"meta":{"status":"failure","statuscode":403,"message":"Public upload disabled"}}}`)
	}))

	_, err := c.CreatePublicLink(context.Background(), "Local/a.mkv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Public upload disabled")
}

func TestCleanPath(t *testing.T) {
	assert.Equal(t, "Local/sub", cleanPath("/Local/sub/"))
	assert.Equal(t, "Local", cleanPath("Local"))
	assert.Equal(t, "", cleanPath("/"))
}
