package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"nearest-departures/internal/domain/user"
	"nearest-departures/internal/general/jwt"
	"nearest-departures/internal/general/logger"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
	authTimeout      = 5 * time.Second
	pongWait         = 60 * time.Second
	pingEvery        = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub pushes departure boards to connected viewers. With a non-nil jwt manager
// every viewer must authenticate with its first frame.
type Hub struct {
	logger     *logger.Logger
	jwtMgr     *jwt.Manager
	writeLocks sync.Map
	viewers    sync.Map // key: *websocket.Conn -> viewer subject
	count      atomic.Int64
	latest     atomic.Pointer[[]byte]
}

// NewHub creates a board hub. jwtMgr may be nil to serve the board without auth.
func NewHub(logger *logger.Logger, jwtMgr *jwt.Manager) *Hub {
	return &Hub{logger: logger, jwtMgr: jwtMgr}
}

// ServeBoard upgrades the request and keeps the viewer subscribed until it leaves.
func (ws *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	// Teardown order (LIFO on return):
	defer conn.Close()
	defer ws.writeLocks.Delete(conn)

	conn.SetReadLimit(1 << 16)

	viewer := "anonymous"
	if ws.jwtMgr != nil {
		subject, ok := ws.authenticate(r.Context(), conn)
		if !ok {
			return
		}
		viewer = subject
	}

	ws.viewers.Store(conn, viewer)
	ws.count.Add(1)
	defer func() {
		ws.viewers.Delete(conn)
		ws.count.Add(-1)
	}()

	ws.logger.Info(r.Context(), "ws_connected", "Board viewer connected", map[string]any{"viewer": viewer})

	// new viewers see the current board right away
	if snap := ws.latest.Load(); snap != nil {
		_ = ws.wsWriteMessage(conn, websocket.TextMessage, *snap)
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go ws.pingLoop(r.Context(), conn, stop)

	// viewers only listen; reading keeps pongs and close frames flowing
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.logger.Warn(r.Context(), "ws_unexpected_close", "Board viewer connection closed unexpectedly", err,
					map[string]any{"viewer": viewer})
			} else {
				ws.logger.Info(r.Context(), "ws_connection_closed", "Board viewer disconnected",
					map[string]any{"viewer": viewer})
			}
			ws.wsWriteClose(conn, websocket.CloseNormalClosure, "bye")
			return
		}
	}
}

// authenticate reads the first frame and validates its JWT.
func (ws *Hub) authenticate(ctx context.Context, conn *websocket.Conn) (string, bool) {
	if err := conn.SetReadDeadline(time.Now().Add(authTimeout)); err != nil {
		ws.logger.Error(ctx, "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		_ = ws.sendAuthError(conn, "internal server error")
		return "", false
	}

	mt, first, err := conn.ReadMessage()
	if err != nil {
		ws.logger.Warn(ctx, "ws_auth_read_failed", "Failed to read auth message", err, nil)
		_ = ws.sendAuthError(conn, "authentication timeout: please send auth message within 5 seconds")
		return "", false
	}
	if mt != websocket.TextMessage {
		_ = ws.sendAuthError(conn, "auth message must be in text format")
		return "", false
	}

	res, err := jwt.ValidateWSAuth(first, ws.jwtMgr, user.BoardRoles...)
	if err != nil {
		ws.logger.Warn(ctx, "ws_auth_failed", "Invalid auth message or token", err, nil)
		_ = ws.sendAuthError(conn, "authentication failed: invalid token")
		return "", false
	}

	if err := ws.writeJSON(conn, map[string]any{
		"type":      "auth_success",
		"success":   true,
		"viewer":    res.Claims.Subject,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		ws.logger.Error(ctx, "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return "", false
	}
	return res.Claims.Subject, true
}

func (ws *Hub) pingLoop(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			mu := ws.lockOf(conn)
			mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
			mu.Unlock()
			if err != nil {
				// close socket to unblock the reader
				_ = conn.Close()
				ws.logger.Debug(ctx, "ws_ping_failed", "Failed to send ping", map[string]any{"error": err.Error()})
				return
			}
		}
	}
}

// Broadcast sends v to every connected viewer and keeps it as the snapshot for
// viewers that connect later. Viewers that cannot be written to are dropped.
func (ws *Hub) Broadcast(ctx context.Context, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ws.latest.Store(&payload)

	sent := 0
	ws.viewers.Range(func(key, _ any) bool {
		conn := key.(*websocket.Conn)
		if err := ws.wsWriteMessage(conn, websocket.TextMessage, payload); err != nil {
			ws.logger.Debug(ctx, "ws_broadcast_failed", "Dropping board viewer", map[string]any{"error": err.Error()})
			_ = conn.Close()
			return true
		}
		sent++
		return true
	})

	ws.logger.Debug(ctx, "board_broadcast", "Board pushed to viewers", map[string]any{"viewers": sent})
	return nil
}

// Viewers reports the number of subscribed viewers.
func (ws *Hub) Viewers() int {
	return int(ws.count.Load())
}

// sendAuthError sends authentication error message to client
func (ws *Hub) sendAuthError(conn *websocket.Conn, message string) error {
	return ws.writeJSON(conn, map[string]any{
		"type":    "auth_error",
		"error":   message,
		"success": false,
	})
}
