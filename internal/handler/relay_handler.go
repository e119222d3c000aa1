package handler

import (
	"strings"

	"care-relay-be/internal/pkg/logger"
	"care-relay-be/internal/pkg/serverutils"
	internalWS "care-relay-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type RelayHandler struct {
	lifecycle internalWS.Lifecycle
	logger    logger.ILogger
}

func NewRelayHandler(lc internalWS.Lifecycle, log logger.ILogger) *RelayHandler {
	return &RelayHandler{
		lifecycle: lc,
		logger:    log,
	}
}

func (h *RelayHandler) ServePatient(c *fiber.Ctx) error {
	return h.serve(c, internalWS.SidePatient)
}

func (h *RelayHandler) ServeExpert(c *fiber.Ctx) error {
	return h.serve(c, internalWS.SideExpert)
}

func (h *RelayHandler) serve(c *fiber.Ctx, side internalWS.Side) error {
	participantID := strings.TrimSpace(c.Query("user_id"))
	if participantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Missing query parameter 'user_id'"))
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			details := map[string]interface{}{"participant_id": participantID, "side": side}
			h.logger.Info("RelayHandler", "Starting WebSocket session", details)
			internalWS.ServeWs(conn, side, participantID, h.lifecycle, h.logger)
			h.logger.Info("RelayHandler", "WebSocket session ended", details)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *RelayHandler) RegisterRoutes(r fiber.Router) {
	ws := r.Group("/ws")
	ws.Get("/patient", h.ServePatient)
	ws.Get("/expert", h.ServeExpert)
}
