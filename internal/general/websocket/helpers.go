package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsWriteClose sends a close control frame with the given code and reason.
func (ws *Hub) wsWriteClose(conn *websocket.Conn, code int, reason string) {
	mu := ws.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()

	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
}

// wsWriteMessage sets a short write deadline and writes a message.
func (ws *Hub) wsWriteMessage(conn *websocket.Conn, mt int, payload []byte) error {
	mu := ws.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(mt, payload)
}

// lockOf returns the mutex for a specific connection
func (ws *Hub) lockOf(conn *websocket.Conn) *sync.Mutex {
	if v, ok := ws.writeLocks.Load(conn); ok {
		if mu, ok := v.(*sync.Mutex); ok && mu != nil {
			return mu
		}
	}
	mu := &sync.Mutex{}
	actual, _ := ws.writeLocks.LoadOrStore(conn, mu)
	return actual.(*sync.Mutex)
}

// writeJSON marshals v and writes a single TextMessage to the given connection.
func (ws *Hub) writeJSON(conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.wsWriteMessage(conn, websocket.TextMessage, payload)
}
