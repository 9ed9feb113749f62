package services

import (
	"context"
	"fmt"

	"github.com/aarondl/null/v8"
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

type IncidentServiceInterface interface {
	GetIncidents(ctx context.Context, filter types.Filter) ([]entities.IncidentReport, uint64, error)
	FindIncident(ctx context.Context, id uint64) (*entities.IncidentReport, error)
	CreateIncident(ctx context.Context, payload dto.CreateIncidentDTO) (uint64, error)
	// ApproveIncident одобряет заявку: заявка переходит в REPAIR_CREATED,
	// устройство — в REPAIRING, создается заказ на ремонт PENDING_EXECUTION.
	// Все три записи коммитятся вместе или не коммитятся вовсе.
	ApproveIncident(ctx context.Context, incidentID uint64) (uint64, error)
	RejectIncident(ctx context.Context, incidentID uint64, payload dto.RejectIncidentDTO) error
}

type IncidentService struct {
	txManager    repositories.TxManagerInterface
	incidentRepo repositories.IncidentRepositoryInterface
	deviceRepo   repositories.DeviceRepositoryInterface
	repairRepo   repositories.RepairRepositoryInterface
	historyRepo  repositories.HistoryRepositoryInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewIncidentService(
	txManager repositories.TxManagerInterface,
	incidentRepo repositories.IncidentRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	repairRepo repositories.RepairRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) IncidentServiceInterface {
	return &IncidentService{
		txManager:    txManager,
		incidentRepo: incidentRepo,
		deviceRepo:   deviceRepo,
		repairRepo:   repairRepo,
		historyRepo:  historyRepo,
		bus:          bus,
		logger:       logger,
	}
}

func (s *IncidentService) GetIncidents(ctx context.Context, filter types.Filter) ([]entities.IncidentReport, uint64, error) {
	return s.incidentRepo.GetIncidents(ctx, filter)
}

func (s *IncidentService) FindIncident(ctx context.Context, id uint64) (*entities.IncidentReport, error) {
	return s.incidentRepo.FindByID(ctx, id)
}

func (s *IncidentService) CreateIncident(ctx context.Context, payload dto.CreateIncidentDTO) (uint64, error) {
	reporterID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}

	reportType := constants.IncidentReportType(payload.ReportType)
	if !reportType.IsValid() {
		return 0, apperrors.NewInvalidInputError("неизвестный тип заявки: %s", payload.ReportType)
	}

	var newIncidentID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		device, err := s.deviceRepo.FindByIDForUpdateInTx(ctx, tx, payload.DeviceID)
		if err != nil {
			return err
		}

		hasOpen, err := s.incidentRepo.HasOpenByDeviceIDInTx(ctx, tx, device.ID)
		if err != nil {
			return err
		}
		if hasOpen {
			s.logger.Warn("по устройству уже есть открытая заявка", zap.Uint64("deviceID", device.ID))
			return apperrors.ErrStateConflict
		}

		incident := &entities.IncidentReport{
			DeviceID:    device.ID,
			ReporterID:  reporterID,
			ReportType:  reportType,
			Description: payload.Description,
			Status:      constants.IncidentPending,
		}
		newIncidentID, err = s.incidentRepo.CreateInTx(ctx, tx, incident)
		if err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    device.ID,
			Action:      constants.HistoryActionIncidentReported,
			ActorID:     reporterID,
			Description: fmt.Sprintf("заявка #%d (%s): %s", newIncidentID, reportType, payload.Description),
		})
	})
	if err != nil {
		return 0, err
	}

	s.bus.Publish(ctx, events.IncidentCreatedEvent{
		IncidentID: newIncidentID,
		DeviceID:   payload.DeviceID,
		ReporterID: reporterID,
	})
	return newIncidentID, nil
}

func (s *IncidentService) ApproveIncident(ctx context.Context, incidentID uint64) (uint64, error) {
	approverID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}

	var newRepairID, deviceID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		incident, err := s.incidentRepo.FindByIDForUpdateInTx(ctx, tx, incidentID)
		if err != nil {
			return err
		}
		if incident.Status != constants.IncidentPending {
			return apperrors.ErrStateConflict
		}
		deviceID = incident.DeviceID

		device, err := s.deviceRepo.FindByIDForUpdateInTx(ctx, tx, incident.DeviceID)
		if err != nil {
			return err
		}

		if err := s.incidentRepo.UpdateStatusInTx(ctx, tx, incident.ID, constants.IncidentPending, constants.IncidentRepairCreated); err != nil {
			return err
		}
		if err := s.deviceRepo.UpdateStatusInTx(ctx, tx, device.ID, device.Status, constants.DeviceRepairing); err != nil {
			return err
		}

		repair := &entities.RepairOrder{
			DeviceID:   device.ID,
			IncidentID: null.Uint64From(incident.ID),
			Status:     constants.RepairPendingExecution,
		}
		newRepairID, err = s.repairRepo.CreateInTx(ctx, tx, repair)
		if err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    device.ID,
			Action:      constants.HistoryActionIncidentApproved,
			ActorID:     approverID,
			Description: fmt.Sprintf("заявка #%d одобрена, создан заказ на ремонт #%d", incident.ID, newRepairID),
		})
	})
	if err != nil {
		return 0, err
	}

	s.bus.Publish(ctx, events.IncidentApprovedEvent{
		IncidentID: incidentID,
		RepairID:   newRepairID,
		DeviceID:   deviceID,
		ActorID:    approverID,
	})
	return newRepairID, nil
}

func (s *IncidentService) RejectIncident(ctx context.Context, incidentID uint64, payload dto.RejectIncidentDTO) error {
	rejecterID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var deviceID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		incident, err := s.incidentRepo.FindByIDForUpdateInTx(ctx, tx, incidentID)
		if err != nil {
			return err
		}
		if incident.Status != constants.IncidentPending {
			return apperrors.ErrStateConflict
		}
		deviceID = incident.DeviceID

		// Статус устройства при отклонении не трогаем.
		if err := s.incidentRepo.RejectInTx(ctx, tx, incident.ID, payload.Reason, rejecterID); err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    incident.DeviceID,
			Action:      constants.HistoryActionIncidentRejected,
			ActorID:     rejecterID,
			Description: fmt.Sprintf("заявка #%d отклонена: %s", incident.ID, payload.Reason),
		})
	})
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.IncidentRejectedEvent{
		IncidentID: incidentID,
		DeviceID:   deviceID,
		ActorID:    rejecterID,
	})
	return nil
}
