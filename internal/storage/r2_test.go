package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestR2(t *testing.T, endpoint string) *R2 {
	t.Helper()
	r2, err := New(context.Background(), Config{
		Endpoint:        endpoint,
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Bucket:          "clips",
	}, func(o *s3.Options) {
		// httptest serves on a bare IP, so virtual-hosted addressing
		// cannot work here.
		o.UsePathStyle = true
	})
	require.NoError(t, err)
	return r2
}

func TestUpload(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "clip.mp3")
	require.NoError(t, os.WriteFile(path, []byte("clip bytes"), 0o644))

	r2 := newTestR2(t, srv.URL)
	url, err := r2.Upload(context.Background(), "abc123_-XYZ9.mp3", path)
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/abc123_-XYZ9.mp3", url)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/clips/abc123_-XYZ9.mp3", gotPath)
	assert.Equal(t, "audio/mpeg", gotContentType)
	// The SDK may frame the payload (aws-chunked), so check containment
	// rather than equality.
	assert.Contains(t, string(gotBody), "clip bytes")
}

func TestUpload_rejects_empty_file(t *testing.T) {
	requested := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "empty.mp3")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	r2 := newTestR2(t, srv.URL)
	_, err := r2.Upload(context.Background(), "key.mp3", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file buffer is empty")
	assert.False(t, requested, "empty buffer must be rejected before any network call")
}

func TestExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		if strings.HasSuffix(r.URL.Path, "/present.mp3") {
			w.Header().Set("Content-Length", "10")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r2 := newTestR2(t, srv.URL)

	ok, err := r2.Exists(context.Background(), "present.mp3")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r2.Exists(context.Background(), "missing.mp3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExists_unexpected_error_propagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	r2 := newTestR2(t, srv.URL)
	_, err := r2.Exists(context.Background(), "key.mp3")
	require.Error(t, err)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.False(t, isNotFound(io.EOF))
	assert.False(t, isNotFound(nil))
}

func TestPublicURL_trims_trailing_slash(t *testing.T) {
	r2 := newTestR2(t, "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/k.mp3", r2.PublicURL("k.mp3"))
}
