package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/platform/realtime"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

const wsPrincipalKey = "ws_principal"

// RealtimeHandler upgrades authenticated requests to websockets and keeps
// them registered in the hub until the client disconnects.
type RealtimeHandler struct {
	hub    *realtime.Hub
	auth   *auth.AuthMiddleware
	logger *zap.Logger
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(hub *realtime.Hub, authMiddleware *auth.AuthMiddleware, logger *zap.Logger) *RealtimeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeHandler{hub: hub, auth: authMiddleware, logger: logger}
}

// Upgrade authenticates the ?token= query parameter before the handshake.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	token := c.Query("token")
	if token == "" {
		return apperrors.NewUnauthorized("missing token")
	}
	principal, err := h.auth.Authenticate(c.UserContext(), token)
	if err != nil {
		return err
	}
	c.Locals(wsPrincipalKey, principal)
	return c.Next()
}

// Serve is the websocket session. Inbound frames are ignored; the read loop
// only detects disconnects.
func (h *RealtimeHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		principal, ok := conn.Locals(wsPrincipalKey).(*auth.Principal)
		if !ok || principal.User == nil {
			_ = conn.Close()
			return
		}
		userID := principal.User.ID
		unregister := h.hub.Register(userID, conn)
		defer unregister()
		h.logger.Debug("realtime connected", zap.String("user_id", userID))

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.logger.Debug("realtime disconnected", zap.String("user_id", userID), zap.Error(err))
				return
			}
		}
	})
}
