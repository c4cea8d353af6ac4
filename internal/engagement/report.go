package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/contact-center-samples/internal/queue"
	"github.com/acme/contact-center-samples/pkg/logger"
)

// Report logs the outcome of a booking.
func Report(log *logger.Logger, r Result) {
	if r.Succeeded() {
		log.Info("Callback created: "+r.CallbackID, zap.String("callback_id", r.CallbackID))
		return
	}
	log.Error(fmt.Sprintf("Callback error: %s status code %d", r.Err.Message, r.Err.StatusCode),
		zap.Int("status_code", r.Err.StatusCode),
		zap.Int("code", r.Err.Code),
	)
}

// CallbackPublisher accepts callback outcome records.
type CallbackPublisher interface {
	PublishCallback(ctx context.Context, msg queue.CallbackMessage) error
}

// PublishOutcome records r on the activity topic.
func PublishOutcome(ctx context.Context, p CallbackPublisher, runID uuid.UUID, serviceName string, r Result) error {
	msg := queue.CallbackMessage{
		RunID:       runID,
		ServiceName: serviceName,
		CallbackID:  r.CallbackID,
		StatusCode:  r.StatusCode,
		OccurredAt:  time.Now().UTC(),
	}
	if r.Err != nil {
		msg.StatusCode = r.Err.StatusCode
		msg.Error = r.Err.Message
	}
	return p.PublishCallback(ctx, msg)
}
