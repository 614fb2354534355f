package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alfagnish/mergington-activities/internal/catalog"
	"github.com/alfagnish/mergington-activities/internal/events"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins (CORS is handled at the middleware level).
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler streams roster changes to WebSocket clients.
type WSHandler struct {
	catalog *catalog.Catalog
	hub     *events.Hub
	log     *zap.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(c *catalog.Catalog, hub *events.Hub, log *zap.Logger) *WSHandler {
	return &WSHandler{catalog: c, hub: hub, log: log}
}

// Routes registers the WebSocket endpoint.
func (h *WSHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleWS)
}

// wsEvent is the JSON frame sent to clients. The first frame on a connection
// is a snapshot of the whole catalog; every later frame carries one change.
type wsEvent struct {
	Type       string                      `json:"type"`
	Activities map[string]catalog.Activity `json:"activities,omitempty"`
	Change     *catalog.Change             `json:"change,omitempty"`
}

// HandleWS upgrades the connection, sends a snapshot and then forwards
// changes until either side goes away. Client frames are read and discarded
// so close frames are noticed.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Subscribe before taking the snapshot so no change falls in between.
	id, changes, cancel := h.hub.Subscribe()
	defer cancel()
	log := h.log.With(zap.String("subscriber", id))
	log.Debug("websocket subscriber connected")

	if err := h.write(conn, wsEvent{Type: "snapshot", Activities: h.catalog.List()}); err != nil {
		log.Debug("websocket snapshot write failed", zap.Error(err))
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("websocket read error", zap.Error(err))
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			log.Debug("websocket subscriber disconnected")
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if err := h.write(conn, wsEvent{Type: "change", Change: &change}); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *WSHandler) write(conn *websocket.Conn, evt wsEvent) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(evt)
}
