package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/illust-harvester/internal/repository"
)

type fixedAgent string

func (a fixedAgent) Next() string { return string(a) }

func TestFetchToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://www.pixiv.net/", r.Header.Get("Referer"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("https://www.pixiv.net/", fixedAgent("test-agent"))
	dest := filepath.Join(t.TempDir(), "a.png")

	err := f.FetchToFile(context.Background(), srv.URL+"/a.png", dest, repository.ProxyConfig{}, time.Second)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestFetchToFileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewHTTPFetcher("", nil)
	dest := filepath.Join(t.TempDir(), "a.jpg")

	err := f.FetchToFile(context.Background(), srv.URL+"/a.jpg", dest, repository.ProxyConfig{}, time.Second)
	assert.ErrorIs(t, err, repository.ErrUnexpectedStatus)
	assert.NoFileExists(t, dest)
}

func TestFetchToFileTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher("", nil)
	err := f.FetchToFile(context.Background(), srv.URL, filepath.Join(t.TempDir(), "x.jpg"), repository.ProxyConfig{}, 50*time.Millisecond)
	assert.Error(t, err)
}

func TestClientPerRoute(t *testing.T) {
	f := NewHTTPFetcher("", nil)

	direct, err := f.client(repository.ProxyConfig{})
	require.NoError(t, err)
	again, err := f.client(repository.ProxyConfig{Port: "1080"})
	require.NoError(t, err)
	assert.Same(t, direct, again)

	socks, err := f.client(repository.ProxyConfig{Enabled: true, Port: "1080"})
	require.NoError(t, err)
	assert.NotSame(t, direct, socks)
	assert.Len(t, f.clients, 2)
}
