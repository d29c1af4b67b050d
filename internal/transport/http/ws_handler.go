package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/domain"
)

// WSHandler streams a user's notifications (overdue quizzes) over a websocket.
type WSHandler struct {
	hub      *app.NotificationHub
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *app.NotificationHub, log *zap.SugaredLogger) *WSHandler {
	return &WSHandler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string              `json:"type"`
	Payload domain.Notification `json:"payload"`
}

// ServeWS upgrades the request and forwards hub notifications until the
// client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe(userID)
	defer cancel()

	// Reader goroutine: inbound messages are ignored, but a read error means
	// the client is gone.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case n, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "notification", Payload: n}); err != nil {
				h.log.Debugw("ws write error", "error", err)
				return
			}
		case <-closed:
			return
		}
	}
}
