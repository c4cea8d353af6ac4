package workspace

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/contact-center-samples/internal/workspace/workspacetest"
)

func TestNotificationsURL(t *testing.T) {
	u, err := notificationsURL("https://api.example.com/workspace/v3")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.com/workspace/v3/notifications", u)

	u, err = notificationsURL("http://localhost:8080/workspace/v3")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/workspace/v3/notifications", u)

	_, err = notificationsURL("ftp://example.com/workspace/v3")
	assert.Error(t, err)
}

func TestDispatchRoutesByMessageType(t *testing.T) {
	d := newDispatcher()
	var calls []CallStateChanged
	var dns []DnStateChanged
	d.addCall(func(_ context.Context, msg CallStateChanged) { calls = append(calls, msg) })
	d.addDn(func(_ context.Context, msg DnStateChanged) { dns = append(dns, msg) })

	known, err := d.dispatch(context.Background(), []byte(`{"channel":"/workspace/v3/voice","data":{"messageType":"CallStateChanged","call":{"id":"c1","state":"Ringing"}}}`))
	require.NoError(t, err)
	assert.True(t, known)

	known, err = d.dispatch(context.Background(), []byte(`{"channel":"/workspace/v3/voice","data":{"messageType":"DnStateChanged","dn":{"number":"1001","agentWorkMode":"AfterCallWork"}}}`))
	require.NoError(t, err)
	assert.True(t, known)

	known, err = d.dispatch(context.Background(), []byte(`{"channel":"/workspace/v3/initialization","data":{"messageType":"WorkspaceInitializationChanged"}}`))
	require.NoError(t, err)
	assert.False(t, known)

	_, err = d.dispatch(context.Background(), []byte(`not json`))
	assert.Error(t, err)

	require.Len(t, calls, 1)
	assert.Equal(t, "c1", calls[0].Call.ID)
	assert.Equal(t, CallStateRinging, calls[0].Call.State)
	require.Len(t, dns, 1)
	assert.Equal(t, WorkModeAfterCallWork, dns[0].Dn.WorkMode)
}

func TestStreamDeliversEventsInOrder(t *testing.T) {
	f := workspacetest.NewServer(t)
	c := NewClient("key", f.URL())

	var mu sync.Mutex
	var seen []string
	got := make(chan struct{}, 4)
	c.Voice().AddCallEventListener(func(_ context.Context, msg CallStateChanged) {
		mu.Lock()
		seen = append(seen, string(msg.Call.State))
		mu.Unlock()
		got <- struct{}{}
	})
	c.Voice().AddDnEventListener(func(_ context.Context, msg DnStateChanged) {
		mu.Lock()
		seen = append(seen, "dn:"+string(msg.Dn.WorkMode))
		mu.Unlock()
		got <- struct{}{}
	})

	_, err := c.Initialize(context.Background(), "tok")
	require.NoError(t, err)
	conn := f.Socket()
	workspacetest.Drain(conn)

	workspacetest.SendEvent(t, conn, map[string]any{"messageType": "CallStateChanged", "call": map[string]any{"id": "c1", "state": "Ringing"}})
	workspacetest.SendEvent(t, conn, map[string]any{"messageType": "Unrelated"})
	workspacetest.SendEvent(t, conn, map[string]any{"messageType": "CallStateChanged", "call": map[string]any{"id": "c1", "state": "Established"}})
	workspacetest.SendEvent(t, conn, map[string]any{"messageType": "DnStateChanged", "dn": map[string]any{"number": "1001", "agentWorkMode": "AfterCallWork"}})

	for i := 0; i < 3; i++ {
		select {
		case <-got:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	require.NoError(t, c.Destroy(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Ringing", "Established", "dn:AfterCallWork"}, seen)
}

func TestStreamFailureNotifiesErrorListeners(t *testing.T) {
	f := workspacetest.NewServer(t)
	c := NewClient("key", f.URL())

	failed := make(chan error, 1)
	c.OnStreamError(func(err error) { failed <- err })

	_, err := c.Initialize(context.Background(), "tok")
	require.NoError(t, err)
	conn := f.Socket()
	require.NoError(t, conn.Close())

	select {
	case err := <-failed:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("expected stream error")
	}
	_ = c.Destroy(context.Background())
}
