package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"wildwatch/internal/logger"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewerHub tracks live viewer connections.
type ViewerHub interface {
	Register(conn *websocket.Conn)
	Unregister(conn *websocket.Conn)
}

// LiveEventsHandler upgrades to WebSocket and keeps the viewer registered
// until it disconnects. Viewers only receive; incoming messages are dropped.
func LiveEventsHandler(hub ViewerHub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Warning("Viewer disconnected with error: %v", err)
				}
				return
			}
		}
	}
}
