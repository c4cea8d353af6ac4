package engagement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/acme/contact-center-samples/internal/queue"
	"github.com/acme/contact-center-samples/pkg/logger"
)

func TestReportSuccess(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	Report(logger.Wrap(zap.New(core)), Result{StatusCode: 200, CallbackID: "cb-42"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Callback created: cb-42", entries[0].Message)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
}

func TestReportFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	Report(logger.Wrap(zap.New(core)), failure(404, nil, 3, "Not Found"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Callback error: Not Found status code 404", entries[0].Message)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
}

type capturePublisher struct {
	msgs []queue.CallbackMessage
}

func (c *capturePublisher) PublishCallback(_ context.Context, msg queue.CallbackMessage) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestPublishOutcome(t *testing.T) {
	pub := &capturePublisher{}
	runID := uuid.New()

	require.NoError(t, PublishOutcome(context.Background(), pub, runID, "Sales", Result{StatusCode: 200, CallbackID: "cb-1"}))
	require.NoError(t, PublishOutcome(context.Background(), pub, runID, "Sales", failure(500, nil, 0, "boom")))

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "cb-1", pub.msgs[0].CallbackID)
	assert.Empty(t, pub.msgs[0].Error)
	assert.Equal(t, runID, pub.msgs[1].RunID)
	assert.Equal(t, 500, pub.msgs[1].StatusCode)
	assert.Equal(t, "boom", pub.msgs[1].Error)
}
