package handlers

import (
	"context"
	"encoding/json"
	"time"

	"owatch_service/internal/reward/app"
	"owatch_service/internal/reward/domain"
	"owatch_service/pkg/logger"
	"owatch_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 5 * time.Second
)

// wsRequest client 可送出 {"action":"refresh"} 取得最新狀態
type wsRequest struct {
	Action string `json:"action"`
}

// SnapshotWebsocket 推送 dashboard 狀態
type SnapshotWebsocket struct {
	Sessions app.SessionManager
}

// NewSnapshotWebsocket create SnapshotWebsocket
func NewSnapshotWebsocket(sessions app.SessionManager) *SnapshotWebsocket {
	return &SnapshotWebsocket{Sessions: sessions}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *SnapshotWebsocket) HandleConnection(conn *websocket.Conn) {
	sessionID, _ := conn.Locals(middlewares.TokenSessionID).(string)
	s, err := h.Sessions.Get(sessionID)
	if err != nil {
		logger.Log.Warn("websocket session not found", zap.String("session", sessionID), zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	updates, unsubscribe := s.Flow.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	refresh := make(chan struct{}, 1)

	defer func() {
		cancel()
		unsubscribe()
		logger.Log.Info("websocket close", zap.String("session", sessionID))
		conn.Close()
	}()

	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(appData string) error {
		logger.Log.Debug("received pong", zap.String("session", sessionID))
		return nil
	})

	// 單一 goroutine 負責寫入
	go h.writeLoop(ctx, conn, s, updates, refresh)

	refresh <- struct{}{}
	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Debug("connection closed", zap.String("session", sessionID))
			} else {
				//直接斷線 1006
				logger.Log.Warn("websocket read error", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		var req wsRequest
		if err := json.Unmarshal(message, &req); err != nil || req.Action != "refresh" {
			continue
		}
		select {
		case refresh <- struct{}{}:
		default:
		}
	}
}

func (h *SnapshotWebsocket) writeLoop(ctx context.Context, conn *websocket.Conn, s *app.Session,
	updates <-chan domain.Snapshot, refresh <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				// session closed
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				// 讓 ReadMessage 結束
				conn.Close()
				return
			}
			if !h.send(conn, s.ID, snap) {
				return
			}
		case <-refresh:
			snap, err := s.Flow.Snapshot(ctx)
			if err != nil {
				logger.Log.Warn("websocket snapshot failed", zap.String("session", s.ID), zap.Error(err))
			}
			if !h.send(conn, s.ID, snap) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Log.Warn("ping error", zap.String("session", s.ID), zap.Error(err))
				return
			}
		}
	}
}

func (h *SnapshotWebsocket) send(conn *websocket.Conn, sessionID string, snap domain.Snapshot) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(snap); err != nil {
		logger.Log.Warn("websocket write error", zap.String("session", sessionID), zap.Error(err))
		return false
	}
	return true
}
