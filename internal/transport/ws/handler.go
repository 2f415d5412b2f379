package ws

import (
	"context"
	"net/http"

	"nhooyr.io/websocket"

	"github.com/vedran77/conversa/internal/audit"
	"github.com/vedran77/conversa/internal/auth"
)

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
// ctx bounds every connection's lifetime; cancel it to close them all.
func ServeWS(ctx context.Context, hub *Hub, jwtSecret string, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.ParseSubject(r.URL.Query().Get("token"), jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			hub.logger.Warn("ws: accept error", "error", err)
			return
		}

		connCtx := audit.WithRemoteAddr(ctx, r.RemoteAddr)
		client := NewClient(hub, conn, userID, hub.cfg.SendBuffer)
		hub.Connect(client)

		go client.WritePump(connCtx)
		go client.ReadPump(connCtx)
	}
}
