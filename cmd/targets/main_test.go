package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/acme/contact-center-samples/internal/app"
	"github.com/acme/contact-center-samples/internal/workspace/workspacetest"
	"github.com/acme/contact-center-samples/pkg/logger"
)

func buildContainer(t *testing.T, apiURL string) (*app.Container, *observer.ObservedLogs) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`
app:
  env: test
vendor:
  api_key: key
  api_url: %s
auth:
  authorization_token: tok
targets:
  search_term: jane
  limit: 5
`, apiURL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := app.Build(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	core, logs := observer.New(zap.InfoLevel)
	c.Logger = logger.Wrap(zap.New(core))
	return c, logs
}

func TestRunLogsTargetsAndLogsOut(t *testing.T) {
	f := workspacetest.NewServer(t)
	c, logs := buildContainer(t, f.URL())
	go func() { workspacetest.Drain(f.Socket()) }()

	require.NoError(t, run(context.Background(), c))

	var lines []string
	for _, e := range logs.All() {
		lines = append(lines, e.Message)
	}
	assert.Equal(t, []string{"Name: Jane Doe", "PhoneNumber: 5550100"}, lines)

	reqs := f.Requests()
	require.Len(t, reqs, 5)
	assert.Equal(t, "/activate-channels", reqs[2].Path)
	assert.JSONEq(t, `{"data":{"agentId":"emp-1","dn":"login-1"}}`, reqs[2].Body)
	assert.Equal(t, "/targets", reqs[3].Path)
	assert.Equal(t, "limit=5&searchTerm=jane", reqs[3].Query)
	assert.Equal(t, "POST /logout", reqs[4].Method+" "+reqs[4].Path)
}

func TestRunFailsWhenSearchIsEmpty(t *testing.T) {
	f := workspacetest.NewServer(t)
	f.SetTargets(`[]`)
	c, logs := buildContainer(t, f.URL())
	go func() { workspacetest.Drain(f.Socket()) }()

	err := run(context.Background(), c)
	assert.ErrorIs(t, err, errNoTargets)
	assert.Equal(t, "search came up empty", err.Error())
	assert.True(t, f.Requested("POST /logout"))
	assert.Zero(t, logs.FilterMessageSnippet("Name:").Len())
}

func TestRunDestroysSessionWhenActivationFails(t *testing.T) {
	f := workspacetest.NewServer(t)
	f.FailWith("/activate-channels", 500)
	c, _ := buildContainer(t, f.URL())
	go func() { workspacetest.Drain(f.Socket()) }()

	require.Error(t, run(context.Background(), c))
	assert.False(t, f.Requested("GET /targets"))
	assert.True(t, f.Requested("POST /logout"))
}
