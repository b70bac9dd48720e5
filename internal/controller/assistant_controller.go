package controller

import (
	"github.com/gofiber/fiber/v2"
	ws "github.com/gofiber/websocket/v2"

	"portfolio-assistant-be/internal/dto"
	"portfolio-assistant-be/internal/pkg/serverutils"
	"portfolio-assistant-be/internal/service"
	"portfolio-assistant-be/internal/websocket"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	ListIntents(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
	hub              *websocket.Hub
}

func NewAssistantController(assistantService service.IAssistantService, hub *websocket.Hub) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
		hub:              hub,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("query", c.Query)
	h.Get("intents", c.ListIntents)

	// Streaming endpoint: upgrade check then websocket handler
	h.Use("stream", func(ctx *fiber.Ctx) error {
		if ws.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("stream", ws.New(func(conn *ws.Conn) {
		websocket.ServeQueryStream(c.hub, c.assistantService, conn)
	}))
}

func (c *assistantController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.assistantService.HandleQuery(ctx.Context(), &req, nil, false)

	return ctx.JSON(serverutils.SuccessResponse("Success handle query", res))
}

func (c *assistantController) ListIntents(ctx *fiber.Ctx) error {
	res := c.assistantService.ListIntents()
	return ctx.JSON(serverutils.SuccessResponse("Success list intents", res))
}
