package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"grievance/backend/internal/eventhub"
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return h.AllowedOrigin == "" || h.AllowedOrigin == "*" || origin == "" || origin == h.AllowedOrigin
		},
	}
}

// ServeWebSocket upgrades an authenticated request to the live event feed.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	u := currentUser(c)
	up := h.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := eventhub.NewWebSocketClient(h.Hub, conn, eventhub.ViewerOf(u), h.logger)
	if err := h.Hub.Register(client); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "event hub stopped"))
		conn.Close()
		return
	}
	client.Run()
}
