package websocket

import (
	"business-directory-backend/config"
	"business-directory-backend/token"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService defines a token validator interface
type AuthService interface {
	VerifyToken(token string) (*token.Payload, error)
}

// WsHandler manages WebSocket requests and connections
type WsHandler struct {
	hub  *Hub
	auth AuthService
}

func NewWsHandler(hub *Hub, auth AuthService) *WsHandler {
	return &WsHandler{hub: hub, auth: auth}
}

// HandleImportProgress upgrades the connection and streams import-job
// progress messages. An optional ?job=<id> narrows the stream to one job.
func (h *WsHandler) HandleImportProgress(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	// Token comes from the HTTPOnly cookie, never a query parameter.
	tokenStr := c.Cookies("access_token")
	if tokenStr == "" {
		config.Logger.Warn("WebSocket connection attempted without access token cookie")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	payload, err := h.auth.VerifyToken(tokenStr)
	if err != nil {
		config.Logger.Warn("Invalid access token for WebSocket", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	jobID := c.Query("job")
	if jobID != "" {
		if _, err := uuid.Parse(jobID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "job parameter must be a valid id",
			})
		}
	}

	email := payload.Email
	return websocket.New(func(conn *websocket.Conn) {
		client := &Client{
			Conn:  conn,
			Hub:   h.hub,
			Send:  make(chan WebSocketMessage, 16),
			JobID: jobID,
		}
		h.hub.register <- client

		config.Logger.Debug("WebSocket client connected",
			zap.String("email", email),
			zap.String("job", jobID),
		)

		defer func() {
			h.hub.unregister <- client
			conn.Close()
		}()

		// Writer loop; reads are drained and discarded in a goroutine so we
		// notice the peer closing.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.hub.unregister <- client
					return
				}
			}
		}()

		for message := range client.Send {
			if err := conn.WriteJSON(message); err != nil {
				return
			}
		}
	})(c)
}
