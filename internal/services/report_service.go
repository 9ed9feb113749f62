package services

import (
	"context"

	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/repositories"
)

type ReportServiceInterface interface {
	// GetDeviceInventory — данные инвентарного отчета для выгрузки в Excel.
	GetDeviceInventory(ctx context.Context) ([]dto.DeviceReportItem, error)
}

type reportService struct {
	reportRepo repositories.ReportRepositoryInterface
	logger     *zap.Logger
}

func NewReportService(reportRepo repositories.ReportRepositoryInterface, logger *zap.Logger) ReportServiceInterface {
	return &reportService{reportRepo: reportRepo, logger: logger}
}

func (s *reportService) GetDeviceInventory(ctx context.Context) ([]dto.DeviceReportItem, error) {
	items, err := s.reportRepo.GetDeviceInventory(ctx)
	if err != nil {
		s.logger.Error("ошибка формирования инвентарного отчета", zap.Error(err))
		return nil, err
	}
	return items, nil
}
