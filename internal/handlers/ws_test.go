package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alfagnish/mergington-activities/internal/catalog"
	"github.com/alfagnish/mergington-activities/internal/events"
)

func TestWSStreamsSnapshotThenChanges(t *testing.T) {
	hub := events.NewHub(4, nil)
	cat := catalog.New(catalog.DefaultSeed(), catalog.WithListener(hub))

	r := chi.NewRouter()
	r.Route("/ws", NewWSHandler(cat, hub, zap.NewNop()).Routes)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var snapshot wsEvent
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, "snapshot", snapshot.Type)
	assert.Contains(t, snapshot.Activities, "Chess Club")

	_, err = cat.Signup("Chess Club", "live@mergington.edu")
	require.NoError(t, err)

	var evt wsEvent
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, "change", evt.Type)
	require.NotNil(t, evt.Change)
	assert.Equal(t, catalog.ChangeSignup, evt.Change.Kind)
	assert.Equal(t, "Chess Club", evt.Change.Activity)
	assert.Equal(t, "live@mergington.edu", evt.Change.Email)
}

func TestWSUnsubscribesOnClose(t *testing.T) {
	hub := events.NewHub(4, nil)
	cat := catalog.New(catalog.DefaultSeed(), catalog.WithListener(hub))

	r := chi.NewRouter()
	r.Route("/ws", NewWSHandler(cat, hub, zap.NewNop()).Routes)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var snapshot wsEvent
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, 1, hub.Len())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}
