package voice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/contact-center-samples/internal/queue"
	"github.com/acme/contact-center-samples/pkg/logger"
)

// ControlPublisher accepts call-control activity records.
type ControlPublisher interface {
	PublishControl(ctx context.Context, msg queue.ControlMessage) error
}

// publishTimeout bounds one activity write.
const publishTimeout = 5 * time.Second

// ActivityRecorder forwards sequencer actions to a publisher under one run id.
// Publishing failures are logged and never affect the call.
type ActivityRecorder struct {
	runID     uuid.UUID
	publisher ControlPublisher
	log       *logger.Logger
	timeout   time.Duration
}

// NewActivityRecorder creates a recorder for runID.
func NewActivityRecorder(runID uuid.UUID, publisher ControlPublisher, log *logger.Logger) *ActivityRecorder {
	if log == nil {
		log = logger.Nop()
	}
	return &ActivityRecorder{runID: runID, publisher: publisher, log: log, timeout: publishTimeout}
}

// ActionTaken implements ActionObserver.
func (r *ActivityRecorder) ActionTaken(ctx context.Context, rec ActionRecord) {
	msg := queue.ControlMessage{
		RunID:      r.runID,
		CallID:     rec.CallID,
		Action:     string(rec.Action),
		CallState:  string(rec.CallState),
		OccurredAt: rec.OccurredAt,
	}
	if rec.Err != nil {
		msg.Error = rec.Err.Error()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.publisher.PublishControl(ctx, msg); err != nil {
		r.log.Warn("publish call control activity", zap.String("action", msg.Action), zap.Error(err))
	}
}
