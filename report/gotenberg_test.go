package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLSendsIndexPart(t *testing.T) {
	var gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		gotFilename = files[0].Filename
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", 5*time.Second)
	pdf, err := client.RenderHTML(context.Background(), "<html><body>hola</body></html>")
	require.NoError(t, err)
	assert.Equal(t, "index.html", gotFilename)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
}

func TestRenderHTMLSurfacesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	_, err := client.RenderHTML(context.Background(), "<html></html>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, NewClient(srv.URL, time.Second).Ping(context.Background()))
}
