package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestBuildWithoutOptionalInfrastructure(t *testing.T) {
	path := writeConfig(t, `
app:
  env: test
vendor:
  api_key: key
  api_url: http://vendor.local
callback:
  base_path: http://vendor.local/engagement/v3
`)

	c, err := Build(context.Background(), path)
	require.NoError(t, err)

	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Kafka)
	assert.NotNil(t, c.Clients().Auth)
	assert.NotNil(t, c.Clients().Engagement)
	assert.Nil(t, c.Publishers().Activity)
	assert.NotNil(t, c.NewWorkspace())
	assert.NoError(t, c.EnsureTopics(context.Background()))
	assert.NoError(t, c.Close(context.Background()))
}

func TestBuildWithKafkaWiresActivityPublisher(t *testing.T) {
	path := writeConfig(t, `
app:
  env: test
kafka:
  brokers: ["localhost:9092"]
  activity_topic: activity
`)

	c, err := Build(context.Background(), path)
	require.NoError(t, err)

	require.NotNil(t, c.Kafka)
	assert.NotNil(t, c.Publishers().Activity)
	assert.NoError(t, c.Close(context.Background()))
}

func TestBuildMissingConfig(t *testing.T) {
	_, err := Build(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
