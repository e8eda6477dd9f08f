package controller

import (
	"ai-jobanalyzer-be/internal/pkg/logger"
	"ai-jobanalyzer-be/internal/pkg/serverutils"
	"ai-jobanalyzer-be/internal/service"
	internalWS "ai-jobanalyzer-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	Graph(ctx *fiber.Ctx) error
	Events(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
}

type agentController struct {
	service service.IAnalysisService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewAgentController(service service.IAnalysisService, hub *internalWS.Hub, log logger.ILogger) IAgentController {
	return &agentController{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent/v1")
	h.Get("/graph/:sessionId?", c.Graph)
	h.Get("/events/:sessionId?", c.Events)
	h.Get("/stream/:sessionId", c.Stream)
}

// Graph returns the flow graph snapshot. With no session id it shows the
// most recently active session.
func (c *agentController) Graph(ctx *fiber.Ctx) error {
	res, err := c.service.GetGraph(ctx.Params("sessionId"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get graph", res))
}

// Events returns the session's event log. Pass ?since=<seq> to fetch only
// events newer than an already-seen sequence number.
func (c *agentController) Events(ctx *fiber.Ctx) error {
	since := ctx.QueryInt("since", 0)

	res, err := c.service.GetEvents(ctx.Params("sessionId"), since)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get events", res))
}

// Stream upgrades to a websocket that receives the session's events live.
func (c *agentController) Stream(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")

	// Reject unknown sessions before upgrading
	if _, err := c.service.GetSession(sessionID); err != nil {
		return err
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.logger.Info("AgentController", "Starting WebSocket stream", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(c.hub, conn, sessionID)
			c.logger.Info("AgentController", "WebSocket stream ended", map[string]interface{}{"session_id": sessionID})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}
