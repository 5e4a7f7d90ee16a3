package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/ocrheader/internal/events"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsBuffer       = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// eventsWebSocketHandler streams pipeline events to the client as JSON
// envelopes until the client goes away.
func (s *Server) eventsWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if s.deps.Events == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "event stream is not configured")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	wsClients.Inc()
	defer wsClients.Dec()
	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	obs, ch := events.Channel(wsBuffer)
	unsubscribe := s.deps.Events.Subscribe(obs)
	defer unsubscribe()

	closed := make(chan struct{})
	go readUntilClosed(conn, closed)

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-s.runCtx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteTimeout))
			return
		case ev := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(events.Wrap(ev)); err != nil {
				slog.Debug("WebSocket write failed", "error", err)
				return
			}
			wsMessages.WithLabelValues("sent").Inc()
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

// readUntilClosed discards client messages and handles pongs; it closes
// done when the connection fails.
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("WebSocket error", "error", err)
			}
			return
		}
		wsMessages.WithLabelValues("received").Inc()
	}
}
