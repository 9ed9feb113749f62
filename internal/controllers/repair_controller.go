package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/services"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/filestorage"
	"asset-system/pkg/utils"
)

type RepairController struct {
	repairService services.RepairServiceInterface
	fileStorage   filestorage.FileStorageInterface
	maxImageSize  int64
	logger        *zap.Logger
}

func NewRepairController(
	repairService services.RepairServiceInterface,
	fileStorage filestorage.FileStorageInterface,
	maxImageSize int64,
	logger *zap.Logger,
) *RepairController {
	return &RepairController{
		repairService: repairService,
		fileStorage:   fileStorage,
		maxImageSize:  maxImageSize,
		logger:        logger,
	}
}

func (c *RepairController) GetRepairs(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	repairs, total, err := c.repairService.GetRepairs(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, repairs, "Список ремонтов получен", http.StatusOK, total)
}

func (c *RepairController) FindRepair(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	repair, err := c.repairService.FindRepair(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, repair, "Заказ на ремонт найден", http.StatusOK)
}

func (c *RepairController) CreateRepair(ctx echo.Context) error {
	var payload dto.CreateRepairDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	id, err := c.repairService.CreateRepair(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]uint64{"id": id}, "Заказ на ремонт создан", http.StatusCreated)
}

func (c *RepairController) AssignTechnician(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.AssignTechnicianDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.repairService.AssignTechnician(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Техник назначен", http.StatusOK)
}

func (c *RepairController) AcceptRepair(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.repairService.AcceptRepair(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Заказ принят в работу", http.StatusOK)
}

func (c *RepairController) CompleteRepair(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CompleteRepairDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.repairService.CompleteRepair(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Заказ сдан на подтверждение", http.StatusOK)
}

func (c *RepairController) ConfirmCompletion(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.repairService.ConfirmCompletion(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Ремонт подтвержден", http.StatusOK)
}

func (c *RepairController) RejectRepair(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.RejectRepairDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.repairService.RejectRepair(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Заказ отклонен", http.StatusOK)
}

func (c *RepairController) MarkNotNeeded(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.NotNeededRepairDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.repairService.MarkNotNeeded(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Заказ закрыт без ремонта", http.StatusOK)
}

// UploadImage сохраняет фото работ и возвращает URL. Полученные URL техник
// передает в CompleteRepair.
func (c *RepairController) UploadImage(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(
			http.StatusBadRequest, "Файл 'image' не найден в запросе", err, nil), c.logger)
	}
	if fileHeader.Size > c.maxImageSize {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(
			http.StatusBadRequest, "Файл слишком большой", nil,
			map[string]interface{}{"maxSize": c.maxImageSize}), c.logger)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer src.Close()

	url, err := c.fileStorage.Save(src, fileHeader.Filename, "repairs")
	if err != nil {
		c.logger.Error("ошибка сохранения файла", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]string{"url": url}, "Файл сохранен", http.StatusCreated)
}
