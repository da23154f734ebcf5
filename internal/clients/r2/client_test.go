package r2

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newObjectServer(t *testing.T, objects map[string][]byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestConfig_Endpoint(t *testing.T) {
	assert.Equal(t, "https://abc123.r2.cloudflarestorage.com", Config{AccountID: "abc123"}.endpoint())
	assert.Equal(t, "http://localhost:9000", Config{AccountID: "abc123", Endpoint: "http://localhost:9000"}.endpoint())
}

func TestNewClient_RequiresBucketAndAccount(t *testing.T) {
	_, err := NewClient(context.Background(), Config{AccountID: "abc"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewClient(context.Background(), Config{BucketName: "cache"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestDownload(t *testing.T) {
	payload := []byte(`[{"date":"2024-01-01","ticker":"AAA","price":10}]`)
	server := newObjectServer(t, map[string][]byte{"/cache/llm_cache.json": payload})

	client, err := NewClient(context.Background(), Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "cache",
		Endpoint:        server.URL,
	}, zerolog.Nop())
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "nested", "llm_cache.json")
	n, err := client.Download(context.Background(), "llm_cache.json", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is cleaned up")
}

func TestDownload_MissingObjectLeavesDestinationUntouched(t *testing.T) {
	server := newObjectServer(t, nil)

	client, err := NewClient(context.Background(), Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "cache",
		Endpoint:        server.URL,
	}, zerolog.Nop())
	require.NoError(t, err)

	dir := t.TempDir()
	dest := filepath.Join(dir, "llm_cache.json")
	require.NoError(t, os.WriteFile(dest, []byte("previous"), 0644))

	_, err = client.Download(context.Background(), "missing.json", dest)
	require.Error(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
