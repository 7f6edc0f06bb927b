package controller

import (
	"github.com/gofiber/fiber/v2"

	"ai-salesbot-be/internal/dto"
	"ai-salesbot-be/internal/pkg/serverutils"
	"ai-salesbot-be/internal/service"
	"ai-salesbot-be/pkg/tenant"
)

type ChatController interface {
	RegisterRoutes(app fiber.Router, serviceSecret fiber.Handler)
}

type chatController struct {
	chatService service.IChatService
	registry    *tenant.Registry
}

func NewChatController(chatService service.IChatService, registry *tenant.Registry) ChatController {
	return &chatController{
		chatService: chatService,
		registry:    registry,
	}
}

func (c *chatController) RegisterRoutes(app fiber.Router, serviceSecret fiber.Handler) {
	// Public endpoints
	app.Get("/", c.Root)
	app.Get("/health", c.Health)

	// Inter-service endpoints
	app.Post("/chat", serviceSecret, c.Chat)
	app.Post("/api/bots/:resource_id/chat", serviceSecret, c.ChatWithResource)
	app.Get("/contact-info", serviceSecret, c.ContactInfo)
	app.Get("/leads", serviceSecret, c.Leads)
	app.Get("/leads/count", serviceSecret, c.LeadsCount)
}

func (c *chatController) Root(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("RAG sales chatbot with lead capture", fiber.Map{
		"status": "Ready!",
	}))
}

func (c *chatController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.HealthResponse{
		Status:        "healthy",
		ActiveTenants: c.registry.Len(),
	})
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var request dto.QuestionRequest
	if err := ctx.BodyParser(&request); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	response, err := c.chatService.Chat(ctx.Context(), &request)
	if err != nil {
		return c.serviceError(ctx, err)
	}
	return ctx.JSON(response)
}

func (c *chatController) ChatWithResource(ctx *fiber.Ctx) error {
	var request dto.QuestionRequest
	if err := ctx.BodyParser(&request); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if request.ResourceID == "" {
		request.ResourceID = ctx.Params("resource_id")
	}

	response, err := c.chatService.Chat(ctx.Context(), &request)
	if err != nil {
		return c.serviceError(ctx, err)
	}
	return ctx.JSON(response)
}

func (c *chatController) ContactInfo(ctx *fiber.Ctx) error {
	request := queryRequest(ctx)

	response, err := c.chatService.ContactInfo(ctx.Context(), request)
	if err != nil {
		return c.serviceError(ctx, err)
	}
	return ctx.JSON(response)
}

func (c *chatController) Leads(ctx *fiber.Ctx) error {
	request := queryRequest(ctx)

	response, err := c.chatService.Leads(ctx.Context(), request)
	if err != nil {
		return c.serviceError(ctx, err)
	}
	return ctx.JSON(response)
}

func (c *chatController) LeadsCount(ctx *fiber.Ctx) error {
	request := queryRequest(ctx)

	response, err := c.chatService.LeadsCount(ctx.Context(), request)
	if err != nil {
		return c.serviceError(ctx, err)
	}
	return ctx.JSON(response)
}

// queryRequest maps the tenant coordinates passed as query parameters on
// the GET endpoints.
func queryRequest(ctx *fiber.Ctx) *dto.QuestionRequest {
	return &dto.QuestionRequest{
		ResourceID:      ctx.Query("resource_id"),
		UserID:          ctx.Query("user_id"),
		DatabaseURI:     ctx.Query("database_uri"),
		VectorStorePath: ctx.Query("vector_store_path"),
	}
}

// serviceError maps missing-parameter failures to 400 and everything else
// to 500.
func (c *chatController) serviceError(ctx *fiber.Ctx, err error) error {
	msg := err.Error()
	switch msg {
	case "query text is required", "vector_store_path is required", "database_uri is required":
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, msg))
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, msg))
}
