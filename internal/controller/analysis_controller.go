package controller

import (
	"ai-jobanalyzer-be/internal/dto"
	"ai-jobanalyzer-be/internal/pkg/serverutils"
	"ai-jobanalyzer-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAnalysisController interface {
	RegisterRoutes(r fiber.Router)
	Analyze(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Destroy(ctx *fiber.Ctx) error
}

type analysisController struct {
	service service.IAnalysisService
}

func NewAnalysisController(service service.IAnalysisService) IAnalysisController {
	return &analysisController{service: service}
}

func (c *analysisController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/analysis/v1")
	h.Post("/analyze", c.Analyze)
	h.Get("/session/:id", c.Show)
	h.Post("/session/:id/cancel", c.Cancel)
	h.Delete("/session/:id", c.Destroy)
}

func (c *analysisController) Analyze(ctx *fiber.Ctx) error {
	var req dto.AnalyzeJobRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Analyze(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Analysis started", res))
}

func (c *analysisController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *analysisController) Cancel(ctx *fiber.Ctx) error {
	if err := c.service.Cancel(ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Cancellation requested", nil))
}

func (c *analysisController) Destroy(ctx *fiber.Ctx) error {
	if err := c.service.Delete(ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Session deleted", nil))
}
