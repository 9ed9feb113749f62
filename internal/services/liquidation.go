package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/events"
	"asset-system/internal/repositories"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/eventbus"
	"asset-system/pkg/types"
	"asset-system/pkg/utils"
)

type LiquidationServiceInterface interface {
	GetLiquidations(ctx context.Context, filter types.Filter) ([]entities.Liquidation, uint64, error)
	GetEligibleDevices(ctx context.Context) ([]dto.EligibleDeviceDTO, error)
	LiquidateOne(ctx context.Context, payload dto.LiquidateOneDTO) (uint64, error)
	// LiquidateBatch списывает партию по принципу «все или ничего»:
	// непригодность любого устройства откатывает всю партию без единой записи.
	LiquidateBatch(ctx context.Context, payload dto.LiquidateBatchDTO) ([]uint64, error)
}

type LiquidationService struct {
	txManager       repositories.TxManagerInterface
	liquidationRepo repositories.LiquidationRepositoryInterface
	deviceRepo      repositories.DeviceRepositoryInterface
	incidentRepo    repositories.IncidentRepositoryInterface
	repairRepo      repositories.RepairRepositoryInterface
	historyRepo     repositories.HistoryRepositoryInterface
	bus             *eventbus.Bus
	logger          *zap.Logger

	depreciationYears int
}

func NewLiquidationService(
	txManager repositories.TxManagerInterface,
	liquidationRepo repositories.LiquidationRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	incidentRepo repositories.IncidentRepositoryInterface,
	repairRepo repositories.RepairRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
	depreciationYears int,
) LiquidationServiceInterface {
	return &LiquidationService{
		txManager:         txManager,
		liquidationRepo:   liquidationRepo,
		deviceRepo:        deviceRepo,
		incidentRepo:      incidentRepo,
		repairRepo:        repairRepo,
		historyRepo:       historyRepo,
		bus:               bus,
		logger:            logger,
		depreciationYears: depreciationYears,
	}
}

func (s *LiquidationService) GetLiquidations(ctx context.Context, filter types.Filter) ([]entities.Liquidation, uint64, error) {
	return s.liquidationRepo.GetLiquidations(ctx, filter)
}

func (s *LiquidationService) GetEligibleDevices(ctx context.Context) ([]dto.EligibleDeviceDTO, error) {
	depreciationBefore := time.Now().AddDate(-s.depreciationYears, 0, 0)
	rows, err := s.liquidationRepo.GetEligibleDevices(ctx, depreciationBefore)
	if err != nil {
		return nil, err
	}

	result := make([]dto.EligibleDeviceDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, dto.EligibleDeviceDTO{
			ID:           row.Device.ID,
			Name:         row.Device.Name,
			SerialNumber: row.Device.SerialNumber,
			Status:       row.Device.Status.String(),
			Reason:       eligibilityReason(row),
		})
	}
	return result, nil
}

func eligibilityReason(row repositories.EligibleDeviceRow) string {
	switch {
	case row.Device.Status.IsLiquidatable():
		return fmt.Sprintf("статус %s", row.Device.Status)
	case row.HasTriggerIncident:
		return "открытая заявка об утере или аппаратном отказе"
	case row.IsDepreciated:
		return "исчерпан срок амортизации"
	}
	return ""
}

// checkEligibilityInTx повторяет проверку пригодности к списанию под блокировкой
// строки устройства. Устройство пригодно, если его статус списываемый, либо
// есть открытая заявка-триггер, либо исчерпан срок амортизации — и при этом
// по нему нет активного ремонта.
func (s *LiquidationService) checkEligibilityInTx(ctx context.Context, tx pgx.Tx, device *entities.Device) error {
	if device.Status == constants.DeviceLiquidated {
		return apperrors.ErrStateConflict
	}

	hasActiveRepair, err := s.repairRepo.HasActiveByDeviceIDInTx(ctx, tx, device.ID)
	if err != nil {
		return err
	}
	if hasActiveRepair {
		s.logger.Warn("списание заблокировано активным ремонтом", zap.Uint64("deviceID", device.ID))
		return apperrors.ErrStateConflict
	}

	if device.Status.IsLiquidatable() {
		return nil
	}
	if device.IsDepreciated(s.depreciationYears, time.Now()) {
		return nil
	}

	hasTrigger, err := s.incidentRepo.HasOpenLiquidationTriggerInTx(ctx, tx, device.ID)
	if err != nil {
		return err
	}
	if hasTrigger {
		return nil
	}

	s.logger.Warn("устройство не пригодно к списанию",
		zap.Uint64("deviceID", device.ID), zap.String("status", device.Status.String()))
	return apperrors.ErrStateConflict
}

// liquidateDeviceInTx — общий шаг списания одного устройства внутри транзакции.
func (s *LiquidationService) liquidateDeviceInTx(ctx context.Context, tx pgx.Tx, deviceID uint64, reason string, liquidatedAt time.Time, approverID uint64) (uint64, error) {
	device, err := s.deviceRepo.FindByIDForUpdateInTx(ctx, tx, deviceID)
	if err != nil {
		return 0, err
	}
	if err := s.checkEligibilityInTx(ctx, tx, device); err != nil {
		return 0, err
	}

	liquidation := &entities.Liquidation{
		DeviceID:     device.ID,
		Reason:       reason,
		LiquidatedAt: liquidatedAt,
		ApprovedBy:   approverID,
	}
	liquidationID, err := s.liquidationRepo.CreateInTx(ctx, tx, liquidation)
	if err != nil {
		return 0, err
	}

	if err := s.deviceRepo.UpdateStatusInTx(ctx, tx, device.ID, device.Status, constants.DeviceLiquidated); err != nil {
		return 0, err
	}
	if err := s.deviceRepo.ClearHolderInTx(ctx, tx, device.ID); err != nil {
		return 0, err
	}

	if err := s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
		DeviceID:    device.ID,
		Action:      constants.HistoryActionLiquidated,
		ActorID:     approverID,
		Description: fmt.Sprintf("списано: %s", reason),
	}); err != nil {
		return 0, err
	}
	return liquidationID, nil
}

// parseLiquidationDate разбирает дату списания; пустая строка — сегодня.
func parseLiquidationDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apperrors.NewInvalidInputError("неверный формат даты списания: %s", raw)
	}
	return t, nil
}

func (s *LiquidationService) LiquidateOne(ctx context.Context, payload dto.LiquidateOneDTO) (uint64, error) {
	approverID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}
	liquidatedAt, err := parseLiquidationDate(payload.Date)
	if err != nil {
		return 0, err
	}

	var liquidationID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		liquidationID, err = s.liquidateDeviceInTx(ctx, tx, payload.DeviceID, payload.Reason, liquidatedAt, approverID)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.bus.Publish(ctx, events.DeviceLiquidatedEvent{
		LiquidationID: liquidationID,
		DeviceID:      payload.DeviceID,
		ActorID:       approverID,
	})
	return liquidationID, nil
}

func (s *LiquidationService) LiquidateBatch(ctx context.Context, payload dto.LiquidateBatchDTO) ([]uint64, error) {
	approverID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	liquidatedAt, err := parseLiquidationDate(payload.Date)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint64]bool, len(payload.DeviceIDs))
	for _, id := range payload.DeviceIDs {
		if seen[id] {
			return nil, apperrors.NewInvalidInputError("устройство #%d указано в партии дважды", id)
		}
		seen[id] = true
	}

	liquidationIDs := make([]uint64, 0, len(payload.DeviceIDs))
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// Один общий шаг на устройство; первая же непригодность откатывает
		// всё, что успело записаться по предыдущим устройствам партии.
		for _, deviceID := range payload.DeviceIDs {
			liquidationID, err := s.liquidateDeviceInTx(ctx, tx, deviceID, payload.Reason, liquidatedAt, approverID)
			if err != nil {
				s.logger.Warn("партия списания откатывается",
					zap.Uint64("deviceID", deviceID), zap.Error(err))
				return err
			}
			liquidationIDs = append(liquidationIDs, liquidationID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, deviceID := range payload.DeviceIDs {
		s.bus.Publish(ctx, events.DeviceLiquidatedEvent{
			LiquidationID: liquidationIDs[i],
			DeviceID:      deviceID,
			ActorID:       approverID,
		})
	}
	return liquidationIDs, nil
}
