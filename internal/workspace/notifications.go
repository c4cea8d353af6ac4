package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Notification message types routed to listeners.
const (
	MessageCallStateChanged = "CallStateChanged"
	MessageDnStateChanged   = "DnStateChanged"
)

const closeGracePeriod = 2 * time.Second

// CallEventListener receives call state changes.
type CallEventListener func(ctx context.Context, msg CallStateChanged)

// DnEventListener receives dn state changes.
type DnEventListener func(ctx context.Context, msg DnStateChanged)

// ErrorListener receives fatal notification stream errors.
type ErrorListener func(err error)

type notification struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type messageHeader struct {
	MessageType string `json:"messageType"`
}

type dispatcher struct {
	mu     sync.RWMutex
	calls  []CallEventListener
	dns    []DnEventListener
	errors []ErrorListener
}

func newDispatcher() *dispatcher {
	return &dispatcher{}
}

func (d *dispatcher) addCall(l CallEventListener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, l)
}

func (d *dispatcher) addDn(l DnEventListener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dns = append(d.dns, l)
}

func (d *dispatcher) addError(l ErrorListener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, l)
}

// dispatch decodes one raw notification and invokes the matching listeners in
// registration order. It reports whether the message type was recognised.
func (d *dispatcher) dispatch(ctx context.Context, raw []byte) (bool, error) {
	var n notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return false, fmt.Errorf("decode notification: %w", err)
	}
	var hdr messageHeader
	if err := json.Unmarshal(n.Data, &hdr); err != nil {
		return false, fmt.Errorf("decode message header: %w", err)
	}

	switch hdr.MessageType {
	case MessageCallStateChanged:
		var msg CallStateChanged
		if err := json.Unmarshal(n.Data, &msg); err != nil {
			return true, fmt.Errorf("decode %s: %w", hdr.MessageType, err)
		}
		d.mu.RLock()
		listeners := append([]CallEventListener(nil), d.calls...)
		d.mu.RUnlock()
		for _, l := range listeners {
			l(ctx, msg)
		}
		return true, nil
	case MessageDnStateChanged:
		var msg DnStateChanged
		if err := json.Unmarshal(n.Data, &msg); err != nil {
			return true, fmt.Errorf("decode %s: %w", hdr.MessageType, err)
		}
		d.mu.RLock()
		listeners := append([]DnEventListener(nil), d.dns...)
		d.mu.RUnlock()
		for _, l := range listeners {
			l(ctx, msg)
		}
		return true, nil
	default:
		return false, nil
	}
}

func (d *dispatcher) fail(err error) {
	d.mu.RLock()
	listeners := append([]ErrorListener(nil), d.errors...)
	d.mu.RUnlock()
	for _, l := range listeners {
		l(err)
	}
}

type stream struct {
	conn    *websocket.Conn
	cancel  context.CancelFunc
	done    chan struct{}
	closing sync.Once
	closed  chan struct{}
}

// notificationsURL maps the REST base URL onto the websocket notifications endpoint.
func notificationsURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL + "/notifications")
	if err != nil {
		return "", fmt.Errorf("workspace: notifications url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("workspace: unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func (c *Client) connect(ctx context.Context) (*stream, error) {
	wsURL, err := notificationsURL(c.baseURL)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	c.decorate(header)
	if c.http.Jar != nil {
		if u, err := url.Parse(c.baseURL); err == nil {
			var cookies []string
			for _, ck := range c.http.Jar.Cookies(u) {
				cookies = append(cookies, ck.String())
			}
			if len(cookies) > 0 {
				header.Set("Cookie", strings.Join(cookies, "; "))
			}
		}
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Operation: "open notifications", StatusCode: resp.StatusCode, Message: err.Error()}
		}
		return nil, fmt.Errorf("workspace: open notifications: %w", err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	st := &stream{
		conn:   conn,
		cancel: cancel,
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go c.readLoop(streamCtx, st)
	return st, nil
}

// readLoop delivers notifications serially until the stream closes.
func (c *Client) readLoop(ctx context.Context, st *stream) {
	defer close(st.done)
	for {
		_, raw, err := st.conn.ReadMessage()
		if err != nil {
			select {
			case <-st.closed:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = fmt.Errorf("workspace: notification stream closed by server: %w", err)
			} else {
				err = fmt.Errorf("workspace: notification stream: %w", err)
			}
			c.logStreamError(err)
			c.listeners.fail(err)
			return
		}

		known, err := c.listeners.dispatch(ctx, raw)
		if err != nil {
			c.log.Warn("workspace: dropping notification", zap.Error(err))
			continue
		}
		if !known {
			c.log.Debug("workspace: ignoring notification", zap.ByteString("payload", raw))
		}
	}
}

func (s *stream) close() error {
	var err error
	s.closing.Do(func() {
		close(s.closed)
		s.cancel()
		deadline := time.Now().Add(closeGracePeriod)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
			err = werr
		}
		select {
		case <-s.done:
		case <-time.After(closeGracePeriod):
		}
		if cerr := s.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}
