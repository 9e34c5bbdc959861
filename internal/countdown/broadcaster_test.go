package countdown

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_InitialAndBroadcast(t *testing.T) {
	bc := NewBroadcaster()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bc.HandleConnection(w, r, []byte(`{"type":"display"}`))
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"display"}`, string(msg))

	require.Eventually(t, func() bool { return bc.Clients() == 1 }, time.Second, 5*time.Millisecond)

	bc.Broadcast([]byte(`{"type":"tick"}`))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"tick"}`, string(msg))
}

func TestBroadcaster_ClientRemovedOnDisconnect(t *testing.T) {
	bc := NewBroadcaster()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bc.HandleConnection(w, r, nil)
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return bc.Clients() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return bc.Clients() == 0 }, time.Second, 5*time.Millisecond)
}
