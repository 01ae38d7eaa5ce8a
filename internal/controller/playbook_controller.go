package controller

import (
	"context"

	"ai-playbook-be/internal/dto"
	"ai-playbook-be/internal/pkg/serverutils"
	"ai-playbook-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPlaybookController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	Regenerate(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type playbookController struct {
	service service.IPlaybookService
}

func NewPlaybookController(service service.IPlaybookService) IPlaybookController {
	return &playbookController{service: service}
}

func (c *playbookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/playbook/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetAll)
	h.Post("", c.Generate)
	h.Post("upload", c.Upload)
	h.Get(":id", c.Show)
	h.Post(":id/regenerate", c.Regenerate)
	h.Delete(":id", c.Delete)
}

// Generate runs the synthesis job, relaying phase updates as SSE status
// events. The terminal event is either done with the playbook id or error.
func (c *playbookController) Generate(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.GeneratePlaybookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return serverutils.StreamSSE(ctx, func(sse *serverutils.SSEWriter) {
		onStatus := func(message string) {
			sse.Event("status", fiber.Map{"message": message})
		}
		res, err := c.service.Generate(context.Background(), userId, &req, onStatus)
		if err != nil {
			sse.Error(err)
			return
		}
		sse.Event("done", res)
	})
}

func (c *playbookController) Regenerate(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	id, _ := uuid.Parse(ctx.Params("id"))

	var req dto.RegeneratePlaybookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return serverutils.StreamSSE(ctx, func(sse *serverutils.SSEWriter) {
		onStatus := func(message string) {
			sse.Event("status", fiber.Map{"message": message})
		}
		res, err := c.service.Regenerate(context.Background(), userId, &req, onStatus)
		if err != nil {
			sse.Error(err)
			return
		}
		sse.Event("done", res)
	})
}

func (c *playbookController) Upload(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.UploadPlaybookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return serverutils.StreamSSE(ctx, func(sse *serverutils.SSEWriter) {
		onStatus := func(message string) {
			sse.Event("status", fiber.Map{"message": message})
		}
		res, err := c.service.Upload(context.Background(), userId, &req, onStatus)
		if err != nil {
			sse.Error(err)
			return
		}
		sse.Event("done", res)
	})
}

func (c *playbookController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.service.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show playbook", res))
}

func (c *playbookController) GetAll(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.GetAll(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all playbooks", res))
}

func (c *playbookController) Delete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	id, _ := uuid.Parse(ctx.Params("id"))

	if err := c.service.Delete(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete playbook", nil))
}
