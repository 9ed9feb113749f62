package services

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/types"
)

type DeviceServiceInterface interface {
	GetDevices(ctx context.Context, filter types.Filter) ([]entities.Device, uint64, error)
	FindDevice(ctx context.Context, id uint64) (*entities.Device, error)
	CreateDevice(ctx context.Context, payload dto.CreateDeviceDTO) (uint64, error)
	UpdateDevice(ctx context.Context, id uint64, payload dto.UpdateDeviceDTO) error
	DeleteDevice(ctx context.Context, id uint64) error
	GetDeviceHistory(ctx context.Context, deviceID uint64) ([]dto.DeviceHistoryDTO, error)
}

type DeviceService struct {
	deviceRepo  repositories.DeviceRepositoryInterface
	historyRepo repositories.HistoryRepositoryInterface
	logger      *zap.Logger
}

func NewDeviceService(
	deviceRepo repositories.DeviceRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	logger *zap.Logger,
) DeviceServiceInterface {
	return &DeviceService{
		deviceRepo:  deviceRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

func (s *DeviceService) GetDevices(ctx context.Context, filter types.Filter) ([]entities.Device, uint64, error) {
	return s.deviceRepo.GetDevices(ctx, filter)
}

func (s *DeviceService) FindDevice(ctx context.Context, id uint64) (*entities.Device, error) {
	return s.deviceRepo.FindByID(ctx, id)
}

func parsePurchaseDate(raw string) (null.Time, error) {
	if raw == "" {
		return null.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return null.Time{}, apperrors.NewInvalidInputError("неверный формат даты покупки: %s", raw)
	}
	return null.TimeFrom(t), nil
}

func (s *DeviceService) CreateDevice(ctx context.Context, payload dto.CreateDeviceDTO) (uint64, error) {
	purchaseDate, err := parsePurchaseDate(payload.PurchaseDate)
	if err != nil {
		return 0, err
	}

	device := &entities.Device{
		Name:         payload.Name,
		SerialNumber: payload.SerialNumber,
		Status:       constants.DeviceAvailable,
		PurchaseDate: purchaseDate,
	}
	if payload.DeviceTypeID != nil {
		device.DeviceTypeID = null.Uint64From(*payload.DeviceTypeID)
	}
	if payload.SupplierID != nil {
		device.SupplierID = null.Uint64From(*payload.SupplierID)
	}
	if payload.PurchasePrice != nil {
		device.PurchasePrice = null.Float64From(*payload.PurchasePrice)
	}

	id, err := s.deviceRepo.Create(ctx, device)
	if err != nil {
		s.logger.Error("ошибка при создании устройства", zap.Error(err))
		return 0, err
	}
	s.logger.Info("устройство создано", zap.Uint64("deviceID", id), zap.String("serial", payload.SerialNumber))
	return id, nil
}

// UpdateDevice меняет паспортные данные устройства.
// Статус жизненного цикла этим методом не изменяется.
func (s *DeviceService) UpdateDevice(ctx context.Context, id uint64, payload dto.UpdateDeviceDTO) error {
	device, err := s.deviceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if payload.Name != nil {
		device.Name = *payload.Name
	}
	if payload.SerialNumber != nil {
		device.SerialNumber = *payload.SerialNumber
	}
	if payload.DeviceTypeID != nil {
		device.DeviceTypeID = null.Uint64From(*payload.DeviceTypeID)
	}
	if payload.SupplierID != nil {
		device.SupplierID = null.Uint64From(*payload.SupplierID)
	}
	if payload.PurchaseDate != nil {
		purchaseDate, err := parsePurchaseDate(*payload.PurchaseDate)
		if err != nil {
			return err
		}
		device.PurchaseDate = purchaseDate
	}
	if payload.PurchasePrice != nil {
		device.PurchasePrice = null.Float64From(*payload.PurchasePrice)
	}

	return s.deviceRepo.Update(ctx, id, device)
}

// DeleteDevice мягко удаляет устройство. Удаление запрещено, пока устройство
// используется или находится в ремонте.
func (s *DeviceService) DeleteDevice(ctx context.Context, id uint64) error {
	device, err := s.deviceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	switch device.Status {
	case constants.DeviceInUse, constants.DeviceRepairing:
		return apperrors.ErrStateConflict
	}
	return s.deviceRepo.SoftDelete(ctx, id)
}

func (s *DeviceService) GetDeviceHistory(ctx context.Context, deviceID uint64) ([]dto.DeviceHistoryDTO, error) {
	if _, err := s.deviceRepo.FindByID(ctx, deviceID); err != nil {
		return nil, err
	}

	items, err := s.historyRepo.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.DeviceHistoryDTO, 0, len(items))
	for _, item := range items {
		result = append(result, dto.DeviceHistoryDTO{
			ID:       item.ID,
			DeviceID: item.DeviceID,
			Action:   item.Action,
			Actor: dto.ShortUserDTO{
				ID:  item.ActorID,
				Fio: item.ActorFio,
			},
			Description: item.Description,
			CreatedAt:   item.CreatedAt.Format(time.RFC3339),
		})
	}
	return result, nil
}
