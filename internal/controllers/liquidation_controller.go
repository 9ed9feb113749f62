package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/services"
	"asset-system/pkg/utils"
)

type LiquidationController struct {
	liquidationService services.LiquidationServiceInterface
	logger             *zap.Logger
}

func NewLiquidationController(liquidationService services.LiquidationServiceInterface, logger *zap.Logger) *LiquidationController {
	return &LiquidationController{liquidationService: liquidationService, logger: logger}
}

func (c *LiquidationController) GetLiquidations(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	liquidations, total, err := c.liquidationService.GetLiquidations(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, liquidations, "Список списаний получен", http.StatusOK, total)
}

func (c *LiquidationController) GetEligibleDevices(ctx echo.Context) error {
	devices, err := c.liquidationService.GetEligibleDevices(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, devices, "Кандидаты на списание получены", http.StatusOK)
}

func (c *LiquidationController) LiquidateOne(ctx echo.Context) error {
	var payload dto.LiquidateOneDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	id, err := c.liquidationService.LiquidateOne(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]uint64{"id": id}, "Устройство списано", http.StatusCreated)
}

func (c *LiquidationController) LiquidateBatch(ctx echo.Context) error {
	var payload dto.LiquidateBatchDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	ids, err := c.liquidationService.LiquidateBatch(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]interface{}{"ids": ids}, "Партия списана", http.StatusCreated)
}
