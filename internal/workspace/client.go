package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/acme/contact-center-samples/internal/vendorhttp"
	apperrors "github.com/acme/contact-center-samples/pkg/errors"
	"github.com/acme/contact-center-samples/pkg/logger"
)

// Status codes carried in every workspace response body.
const (
	codeOK      = 0
	codeAsyncOK = 1
)

// Client drives one workspace session: initialization, channel activation,
// voice control, target search, and the notification stream.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
	log     *logger.Logger

	listeners *dispatcher
	voice     *Voice

	mu      sync.Mutex
	token   string
	started bool
	user    *User
	stream  *stream
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. It should keep cookies for session affinity.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithDialer overrides the websocket dialer used for notifications.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithLogger sets the logger used for stream diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRequestTimeout sets the timeout of the default HTTP client.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = vendorhttp.NewClient(vendorhttp.WithCookieJar(), vendorhttp.WithTimeout(d))
	}
}

// NewClient creates a workspace client for apiURL. Listeners may be registered
// through Voice() before Initialize is called.
func NewClient(apiKey, apiURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(apiURL, "/") + "/workspace/v3",
		http:      vendorhttp.NewClient(vendorhttp.WithCookieJar()),
		dialer:    websocket.DefaultDialer,
		log:       logger.Nop(),
		listeners: newDispatcher(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.voice = &Voice{client: c}
	return c
}

// Voice exposes call control and call/dn event registration.
func (c *Client) Voice() *Voice {
	return c.voice
}

// OnStreamError registers a listener invoked when the notification stream fails.
func (c *Client) OnStreamError(l ErrorListener) {
	c.listeners.addError(l)
}

// User returns the identity of the initialized session, or nil.
func (c *Client) User() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Initialize starts a workspace session with accessToken, loads the current
// user and opens the notification stream.
func (c *Client) Initialize(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", apperrors.ErrValidation)
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil, fmt.Errorf("workspace: session already initialized")
	}
	c.token = accessToken
	c.mu.Unlock()

	if err := c.do(ctx, "initialize workspace", http.MethodPost, "/initialize-workspace", nil, nil); err != nil {
		return nil, err
	}

	// The vendor session exists from here on; Destroy must log it out even if
	// the rest of the handshake fails.
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()

	var session sessionData
	if err := c.do(ctx, "current session", http.MethodGet, "/current-session", nil, &session); err != nil {
		return nil, err
	}

	st, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.user = &session.User
	c.stream = st
	c.mu.Unlock()

	return &session.User, nil
}

// ActivateChannels activates the voice channel for agentID on dn.
func (c *Client) ActivateChannels(ctx context.Context, agentID, dn string) error {
	if agentID == "" {
		return fmt.Errorf("%w: agent id is required", apperrors.ErrValidation)
	}
	body := request[activateChannelsData]{Data: activateChannelsData{AgentID: agentID, Dn: dn}}
	return c.do(ctx, "activate channels", http.MethodPost, "/activate-channels", body, nil)
}

// Destroy logs the session out and closes the notification stream.
func (c *Client) Destroy(ctx context.Context) error {
	c.mu.Lock()
	st := c.stream
	started := c.started
	c.stream = nil
	c.user = nil
	c.started = false
	c.mu.Unlock()

	var errs []error
	if started {
		if err := c.do(ctx, "logout", http.MethodPost, "/logout", nil, nil); err != nil {
			errs = append(errs, err)
		}
	}
	if st != nil {
		if err := st.close(); err != nil {
			errs = append(errs, fmt.Errorf("workspace: close stream: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("workspace: %s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("workspace: %s: build request: %w", op, err)
	}
	c.decorate(req.Header)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("workspace: %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("workspace: %s: read response: %w", op, err)
	}

	var env envelope[json.RawMessage]
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("workspace: %s: decode response: %w", op, err)
		}
	}

	if resp.StatusCode >= 300 || (env.Status.Code != codeOK && env.Status.Code != codeAsyncOK) {
		msg := env.Status.Message
		if msg == "" && resp.StatusCode >= 300 {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Operation: op, StatusCode: resp.StatusCode, Code: env.Status.Code, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("workspace: %s: decode data: %w", op, err)
		}
	}
	return nil
}

func (c *Client) decorate(h http.Header) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	h.Set("x-api-key", c.apiKey)
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) logStreamError(err error) {
	c.log.Error("workspace: notification stream", zap.Error(err))
}
