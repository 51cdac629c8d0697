package handler

import (
	"net/http"
	"time"

	"github.com/chrism0rs/Taskie/internal/hub"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

type WebSocketHandler struct {
	Hub *hub.Hub
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsWriter adapts a gorilla connection to hub.Writer. Write is only called
// from the hub's writer goroutine; pings go through WriteControl, which may
// run concurrently with it.
type wsWriter struct {
	conn *websocket.Conn
}

func (w *wsWriter) Write(message []byte) error {
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.TextMessage, message)
}

func (w *wsWriter) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return w.conn.Close()
}

// Serve upgrades the request and pumps inbound frames into the hub until the
// socket fails or the hub closes the connection. Authentication happens over
// the socket with an auth message.
func (h *WebSocketHandler) Serve(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	conn := h.Hub.Connect(&wsWriter{conn: ws})
	defer h.Hub.Disconnect(conn)

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					h.Hub.Disconnect(conn)
					return
				}
			}
		}
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		h.Hub.Receive(conn, data)
	}
}
