package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/services"
	"asset-system/pkg/utils"
)

type ReplacementController struct {
	replacementService services.ReplacementServiceInterface
	logger             *zap.Logger
}

func NewReplacementController(replacementService services.ReplacementServiceInterface, logger *zap.Logger) *ReplacementController {
	return &ReplacementController{replacementService: replacementService, logger: logger}
}

func (c *ReplacementController) GetReplacements(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	replacements, total, err := c.replacementService.GetReplacements(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, replacements, "Список замен получен", http.StatusOK, total)
}

func (c *ReplacementController) CreateReplacement(ctx echo.Context) error {
	var payload dto.CreateReplacementDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	id, err := c.replacementService.CreateReplacement(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]uint64{"id": id}, "Замена выполнена", http.StatusCreated)
}
