package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/acme/contact-center-samples/internal/app"
	"github.com/acme/contact-center-samples/pkg/logger"
)

func buildContainer(t *testing.T, basePath string) (*app.Container, *observer.ObservedLogs) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`
app:
  env: test
callback:
  api_key: key
  base_path: %s
  service_name: Sales
  phone_number: "+15551234567"
  wait_timeout: 10s
`, basePath)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := app.Build(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	core, logs := observer.New(zap.InfoLevel)
	c.Logger = logger.Wrap(zap.New(core))
	return c, logs
}

func TestRunReportsCreatedCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/engagement/v3/callbacks", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{"status":{"code":0},"data":{"id":"cb-7"}}`))
	}))
	defer srv.Close()
	c, logs := buildContainer(t, srv.URL+"/engagement/v3")

	require.NoError(t, run(context.Background(), c))
	assert.Equal(t, 1, logs.FilterMessage("Callback created: cb-7").Len())
}

func TestRunReportsFailureWithoutRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":{"code":4,"message":"service not found"}}`))
	}))
	defer srv.Close()
	c, logs := buildContainer(t, srv.URL+"/engagement/v3")

	require.Error(t, run(context.Background(), c))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 1, logs.FilterMessage("Callback error: service not found status code 404").Len())
}
