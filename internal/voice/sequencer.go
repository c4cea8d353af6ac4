// Package voice drives a single call through answer, hold, retrieve, release
// and after-call work in response to workspace notifications.
package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/contact-center-samples/internal/workspace"
	"github.com/acme/contact-center-samples/pkg/logger"
)

// DefaultNotReadyReason is the reason code used to enter after-call work.
const DefaultNotReadyReason = "AfterCallWork"

// Controller issues call-control commands against the vendor session.
type Controller interface {
	AnswerCall(ctx context.Context, callID string) error
	HoldCall(ctx context.Context, callID string) error
	RetrieveCall(ctx context.Context, callID string) error
	ReleaseCall(ctx context.Context, callID string) error
	SetAgentNotReady(ctx context.Context, reasonCode string, workMode workspace.AgentWorkMode) error
}

// Action names a control command issued by the sequencer.
type Action string

const (
	ActionAnswer   Action = "answer"
	ActionHold     Action = "hold"
	ActionRetrieve Action = "retrieve"
	ActionRelease  Action = "release"
	ActionNotReady Action = "not_ready"
)

// ActionRecord describes one issued command and its result.
type ActionRecord struct {
	Action     Action
	CallID     string
	CallState  workspace.CallState
	Err        error
	OccurredAt time.Time
}

// ActionObserver is told about every command the sequencer issues.
type ActionObserver interface {
	ActionTaken(ctx context.Context, rec ActionRecord)
}

// Sequencer is the call-control state machine. One instance is shared by the
// call and dn listeners of a session.
type Sequencer struct {
	ctrl     Controller
	log      *logger.Logger
	done     *Completion
	reason   string
	observer ActionObserver
	tracer   trace.Tracer

	mu                sync.Mutex
	answered          bool
	held              bool
	notReadyRequested bool
	pending           []pendingAction
}

type pendingAction struct {
	ctx context.Context
	rec ActionRecord
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithNotReadyReason overrides the reason code sent when the call is released.
func WithNotReadyReason(reason string) Option {
	return func(s *Sequencer) {
		if reason != "" {
			s.reason = reason
		}
	}
}

// WithObserver reports issued commands to o.
func WithObserver(o ActionObserver) Option {
	return func(s *Sequencer) { s.observer = o }
}

// WithLogger sets the logger for transition lines.
func WithLogger(l *logger.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSequencer creates a sequencer issuing commands through ctrl.
func NewSequencer(ctrl Controller, opts ...Option) *Sequencer {
	s := &Sequencer{
		ctrl:   ctrl,
		log:    logger.Nop(),
		done:   NewCompletion(),
		reason: DefaultNotReadyReason,
		tracer: otel.Tracer("ccsamples.voice"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Completion exposes the one-shot signal settled when the run ends.
func (s *Sequencer) Completion() *Completion {
	return s.done
}

// Wait blocks until the run completes, fails, or ctx ends.
func (s *Sequencer) Wait(ctx context.Context) error {
	return s.done.Wait(ctx)
}

// Held reports whether the call has been put on hold during this run.
func (s *Sequencer) Held() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}

// Abort fails the run with err unless it is already settled.
func (s *Sequencer) Abort(err error) {
	if s.done.Fail(err) {
		s.log.Error("call control aborted", zap.Error(err))
	}
}

// HandleCallStateChanged reacts to a call state transition. The observer is
// notified after the sequencer state is unlocked.
func (s *Sequencer) HandleCallStateChanged(ctx context.Context, msg workspace.CallStateChanged) {
	s.mu.Lock()
	s.advance(ctx, msg.Call)
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if s.observer == nil {
		return
	}
	for _, n := range pending {
		s.observer.ActionTaken(n.ctx, n.rec)
	}
}

// advance applies one call state; callers hold s.mu.
func (s *Sequencer) advance(ctx context.Context, call workspace.Call) {
	if s.done.Settled() {
		return
	}

	switch call.State {
	case workspace.CallStateRinging:
		if s.answered {
			return
		}
		s.log.Info("Answering call...", zap.String("call_id", call.ID))
		if s.run(ctx, ActionAnswer, call, func(ctx context.Context) error {
			return s.ctrl.AnswerCall(ctx, call.ID)
		}) {
			s.answered = true
		}

	case workspace.CallStateEstablished:
		if !s.held {
			s.log.Info("Putting call on hold...", zap.String("call_id", call.ID))
			if s.run(ctx, ActionHold, call, func(ctx context.Context) error {
				return s.ctrl.HoldCall(ctx, call.ID)
			}) {
				s.held = true
			}
			return
		}
		s.log.Info("Releasing call...", zap.String("call_id", call.ID))
		s.run(ctx, ActionRelease, call, func(ctx context.Context) error {
			return s.ctrl.ReleaseCall(ctx, call.ID)
		})

	case workspace.CallStateHeld:
		s.log.Info("Retrieving call...", zap.String("call_id", call.ID))
		s.run(ctx, ActionRetrieve, call, func(ctx context.Context) error {
			return s.ctrl.RetrieveCall(ctx, call.ID)
		})

	case workspace.CallStateReleased:
		if s.notReadyRequested {
			return
		}
		s.notReadyRequested = true
		s.log.Info("Setting ACW...", zap.String("call_id", call.ID), zap.String("reason", s.reason))
		s.run(ctx, ActionNotReady, call, func(ctx context.Context) error {
			return s.ctrl.SetAgentNotReady(ctx, s.reason, "")
		})

	default:
		s.log.Debug("ignoring call state", zap.String("call_id", call.ID), zap.String("state", string(call.State)))
	}
}

// HandleDnStateChanged completes the run once the agent reaches after-call
// work after the call has been held.
func (s *Sequencer) HandleDnStateChanged(_ context.Context, msg workspace.DnStateChanged) {
	s.mu.Lock()
	held := s.held
	s.mu.Unlock()

	if !held || msg.Dn.WorkMode != workspace.WorkModeAfterCallWork {
		return
	}
	if s.done.Complete() {
		s.log.Info("after-call work reached", zap.String("dn", msg.Dn.Number))
	}
}

// run issues one command inside a span; a failure fails the completion.
func (s *Sequencer) run(ctx context.Context, action Action, call workspace.Call, fn func(context.Context) error) bool {
	sctx, span := s.tracer.Start(ctx, "voice."+string(action), trace.WithAttributes(
		attribute.String("call.id", call.ID),
		attribute.String("call.state", string(call.State)),
	))
	defer span.End()

	err := fn(sctx)
	if err != nil {
		err = fmt.Errorf("voice: %s call %s: %w", action, call.ID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if s.observer != nil {
		s.pending = append(s.pending, pendingAction{ctx: sctx, rec: ActionRecord{
			Action:     action,
			CallID:     call.ID,
			CallState:  call.State,
			Err:        err,
			OccurredAt: time.Now().UTC(),
		}})
	}

	if err != nil {
		s.log.WithContext(sctx).Error("call control failed", zap.String("action", string(action)), zap.Error(err))
		s.done.Fail(err)
		return false
	}
	return true
}
