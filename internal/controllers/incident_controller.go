package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/services"
	"asset-system/pkg/utils"
)

type IncidentController struct {
	incidentService services.IncidentServiceInterface
	logger          *zap.Logger
}

func NewIncidentController(incidentService services.IncidentServiceInterface, logger *zap.Logger) *IncidentController {
	return &IncidentController{incidentService: incidentService, logger: logger}
}

func (c *IncidentController) GetIncidents(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	incidents, total, err := c.incidentService.GetIncidents(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, incidents, "Список заявок получен", http.StatusOK, total)
}

func (c *IncidentController) FindIncident(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	incident, err := c.incidentService.FindIncident(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, incident, "Заявка найдена", http.StatusOK)
}

func (c *IncidentController) CreateIncident(ctx echo.Context) error {
	var payload dto.CreateIncidentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	id, err := c.incidentService.CreateIncident(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]uint64{"id": id}, "Заявка создана", http.StatusCreated)
}

func (c *IncidentController) ApproveIncident(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	repairID, err := c.incidentService.ApproveIncident(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]uint64{"repair_id": repairID}, "Заявка одобрена, создан заказ на ремонт", http.StatusOK)
}

func (c *IncidentController) RejectIncident(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.RejectIncidentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.incidentService.RejectIncident(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Заявка отклонена", http.StatusOK)
}
