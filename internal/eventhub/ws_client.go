package eventhub

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"grievance/backend/internal/logger"
	"grievance/backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// WebSocketClient streams events to one dashboard connection. The feed is one way;
// inbound frames are read only to process pongs and close frames.
type WebSocketClient struct {
	viewer Viewer
	conn   *websocket.Conn
	hub    *ManagerService
	send   chan models.Event
	logger *zap.Logger
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, v Viewer, l *zap.Logger) *WebSocketClient {
	return &WebSocketClient{
		viewer: v,
		conn:   conn,
		hub:    hub,
		send:   make(chan models.Event, sendBuffer),
		logger: logger.OrNop(l),
	}
}

func (c *WebSocketClient) GetViewer() Viewer                   { return c.viewer }
func (c *WebSocketClient) GetSendChannel() chan<- models.Event { return c.send }

func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close stops the write pump, which closes the connection.
func (c *WebSocketClient) Close() {
	close(c.send)
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("Websocket read failed", zap.String("user_id", c.viewer.UserID), zap.Error(err))
			}
			return
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case e, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
