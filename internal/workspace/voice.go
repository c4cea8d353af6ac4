package workspace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	apperrors "github.com/acme/contact-center-samples/pkg/errors"
)

// Voice groups call-control verbs and voice event subscriptions.
type Voice struct {
	client *Client
}

// AddCallEventListener subscribes to CallStateChanged notifications.
func (v *Voice) AddCallEventListener(l CallEventListener) {
	v.client.listeners.addCall(l)
}

// AddDnEventListener subscribes to DnStateChanged notifications.
func (v *Voice) AddDnEventListener(l DnEventListener) {
	v.client.listeners.addDn(l)
}

func (v *Voice) AnswerCall(ctx context.Context, callID string) error {
	return v.callOp(ctx, "answer call", callID, "answer")
}

func (v *Voice) HoldCall(ctx context.Context, callID string) error {
	return v.callOp(ctx, "hold call", callID, "hold")
}

func (v *Voice) RetrieveCall(ctx context.Context, callID string) error {
	return v.callOp(ctx, "retrieve call", callID, "retrieve")
}

func (v *Voice) ReleaseCall(ctx context.Context, callID string) error {
	return v.callOp(ctx, "release call", callID, "release")
}

// SetAgentNotReady moves the agent to not-ready. An empty workMode leaves the
// work mode to the vendor's reason-code configuration.
func (v *Voice) SetAgentNotReady(ctx context.Context, reasonCode string, workMode AgentWorkMode) error {
	body := request[notReadyData]{Data: notReadyData{ReasonCode: reasonCode, AgentWorkMode: workMode}}
	return v.client.do(ctx, "set agent not ready", http.MethodPost, "/voice/not-ready", body, nil)
}

func (v *Voice) callOp(ctx context.Context, op, callID, verb string) error {
	if callID == "" {
		return fmt.Errorf("%w: %s: call id is required", apperrors.ErrValidation, op)
	}
	path := fmt.Sprintf("/voice/calls/%s/%s", url.PathEscape(callID), verb)
	return v.client.do(ctx, op, http.MethodPost, path, nil, nil)
}
