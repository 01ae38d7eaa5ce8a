package controller

import (
	"context"

	"ai-playbook-be/internal/dto"
	"ai-playbook-be/internal/pkg/serverutils"
	"ai-playbook-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IInterviewController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	SendTurn(ctx *fiber.Ctx) error
	Finalize(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type interviewController struct {
	service service.IInterviewService
}

func NewInterviewController(service service.IInterviewService) IInterviewController {
	return &interviewController{service: service}
}

func (c *interviewController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/interview/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetAll)
	h.Post("", c.Start)
	h.Get(":id", c.GetHistory)
	h.Post(":id/turns", c.SendTurn)
	h.Post(":id/finalize", c.Finalize)
	h.Delete(":id", c.Delete)
}

// Start opens a session and streams the interviewer's first question token
// by token. The final event carries the session id and persisted state.
func (c *interviewController) Start(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return serverutils.StreamSSE(ctx, func(sse *serverutils.SSEWriter) {
		// The request context dies when the handler returns, before this
		// callback runs
		res, err := c.service.StartSession(context.Background(), userId, &req, sse.Token)
		if err != nil {
			sse.Error(err)
			return
		}
		sse.Event("done", res)
	})
}

// SendTurn records the expert's answer and streams the next question.
func (c *interviewController) SendTurn(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	sessionId, _ := uuid.Parse(ctx.Params("id"))

	var req dto.SendTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.SessionId = sessionId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return serverutils.StreamSSE(ctx, func(sse *serverutils.SSEWriter) {
		res, err := c.service.SendTurn(context.Background(), userId, &req, sse.Token)
		if err != nil {
			sse.Error(err)
			return
		}
		sse.Event("done", res)
	})
}

func (c *interviewController) Finalize(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	sessionId, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.service.Finalize(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success finalize interview session", res))
}

func (c *interviewController) GetAll(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.GetAllSessions(ctx.Context(), userId, ctx.Query("status"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all interview sessions", res))
}

func (c *interviewController) GetHistory(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	sessionId, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.service.GetHistory(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get interview session history", res))
}

func (c *interviewController) Delete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	sessionId, _ := uuid.Parse(ctx.Params("id"))

	if err := c.service.DeleteSession(ctx.Context(), userId, sessionId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete interview session", nil))
}
