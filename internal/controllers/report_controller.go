package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/services"
	"asset-system/pkg/utils"
)

var inventoryHeaders = []interface{}{
	"№", "Наименование", "Серийный номер", "Статус", "Тип", "Поставщик",
	"Держатель", "Подразделение", "Дата покупки", "Цена покупки",
	"Заявок", "Ремонтов", "Сумма ремонтов",
}

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

// GetDeviceInventoryXLSX выгружает инвентарный отчет в Excel.
func (c *ReportController) GetDeviceInventoryXLSX(ctx echo.Context) error {
	items, err := c.reportService.GetDeviceInventory(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respondWithXLSX(ctx, items)
}

func inventoryRow(item dto.DeviceReportItem) []interface{} {
	return []interface{}{
		item.ID, item.Name, item.SerialNumber, item.Status,
		item.DeviceType, item.Supplier, item.HolderFio, item.HolderDept,
		item.PurchaseDate, item.PurchasePrice,
		item.IncidentCount, item.RepairCount, item.TotalRepairSum,
	}
}

func (c *ReportController) respondWithXLSX(ctx echo.Context, data []dto.DeviceReportItem) error {
	f := excelize.NewFile()
	sheet := "Инвентаризация"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &inventoryHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "M1", style)

	for i, item := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := inventoryRow(item)
		f.SetSheetRow(sheet, cell, &row)
	}
	f.SetColWidth(sheet, "B", "C", 25)
	f.SetColWidth(sheet, "D", "H", 20)

	fileName := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
