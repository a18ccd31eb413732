package drive

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// previewFixture fakes the export and download endpoints.
type previewFixture struct {
	lastPath  string
	lastQuery url.Values
	status    int
	content   string
}

func newPreviewFixture(t *testing.T) (*previewFixture, *Client) {
	t.Helper()

	fx := &previewFixture{content: "file-bytes"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fx.lastPath = r.URL.Path
		fx.lastQuery = r.URL.Query()

		if fx.status != 0 {
			w.WriteHeader(fx.status)
			return
		}

		fmt.Fprint(w, fx.content)
	}))
	t.Cleanup(srv.Close)

	return fx, authedClient(srv.URL, WithTokenInViewerURL(true))
}

func TestGetFileForPreview_ExportTable(t *testing.T) {
	tests := []struct {
		mimeType   string
		exportType string
	}{
		{"application/vnd.google-apps.document", "application/pdf"},
		{"application/vnd.google-apps.presentation", "application/pdf"},
		{"application/vnd.google-apps.spreadsheet", "application/x-vnd.oasis.opendocument.spreadsheet"},
		{"application/vnd.google-apps.drawing", "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			fx, c := newPreviewFixture(t)

			var buf bytes.Buffer

			n, err := c.GetFileForPreview(context.Background(), "F1", tt.mimeType, &buf)
			require.NoError(t, err)

			assert.Equal(t, "/files/F1/export", fx.lastPath)
			assert.Equal(t, tt.exportType, fx.lastQuery.Get("mimeType"))
			assert.Equal(t, int64(len("file-bytes")), n)
			assert.Equal(t, "file-bytes", buf.String())
		})
	}
}

func TestGetFileForPreview_VerbatimDownload(t *testing.T) {
	fx, c := newPreviewFixture(t)

	var buf bytes.Buffer

	_, err := c.GetFileForPreview(context.Background(), "F2", "image/jpeg", &buf)
	require.NoError(t, err)

	assert.Equal(t, "/files/F2", fx.lastPath)
	assert.Equal(t, "media", fx.lastQuery.Get("alt"))
	assert.Equal(t, "file-bytes", buf.String())
}

func TestGetFileForPreview_ExportFailure(t *testing.T) {
	fx, c := newPreviewFixture(t)
	fx.status = http.StatusInternalServerError

	var buf bytes.Buffer

	_, err := c.GetFileForPreview(context.Background(), "F1", "application/vnd.google-apps.document", &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExport)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
}

func TestGetFileForPreview_DownloadFailure(t *testing.T) {
	fx, c := newPreviewFixture(t)
	fx.status = http.StatusNotFound

	var buf bytes.Buffer

	_, err := c.GetFileForPreview(context.Background(), "F2", "text/plain", &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDownload)
}

func TestViewerURL_NativePreviewForms(t *testing.T) {
	_, c := newPreviewFixture(t)
	ctx := context.Background()

	pdfURL, err := c.ViewerURL(ctx, "F1", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/file/d/F1/preview", pdfURL)

	docURL, err := c.ViewerURL(ctx, "F2", "application/vnd.google-apps.document")
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/file/d/F2/preview", docURL)
}

func TestViewerURL_ThirdPartyViewerEmbedsDownloadURL(t *testing.T) {
	_, c := newPreviewFixture(t)

	viewerURL, err := c.ViewerURL(context.Background(), "F3", "text/plain")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(viewerURL, "https://docs.google.com/viewer?"))

	parsed, err := url.Parse(viewerURL)
	require.NoError(t, err)
	assert.Equal(t, "true", parsed.Query().Get("embedded"))

	embedded, err := url.Parse(parsed.Query().Get("url"))
	require.NoError(t, err)
	assert.Equal(t, "/files/F3", embedded.Path)
	assert.Equal(t, "media", embedded.Query().Get("alt"))
	assert.Equal(t, "test-token", embedded.Query().Get("access_token"))
}

func TestViewerURL_CapabilityDisabled(t *testing.T) {
	c := authedClient("http://unused")

	// Native forms still work with the capability off.
	u, err := c.ViewerURL(context.Background(), "F1", "application/pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, u)

	_, err = c.ViewerURL(context.Background(), "F1", "text/plain")
	assert.ErrorIs(t, err, ErrViewerURLDisabled)
}

func TestViewerURL_TokenBearingFormRequiresAuth(t *testing.T) {
	c := NewClient("http://unused", http.DefaultClient, staticTokens{ok: false}, testLogger(),
		WithTokenInViewerURL(true))

	_, err := c.ViewerURL(context.Background(), "F1", "text/plain")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
