package services

import (
	"context"
	"errors"
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

type ReplacementServiceInterface interface {
	GetReplacements(ctx context.Context, filter types.Filter) ([]entities.Replacement, uint64, error)
	CreateReplacement(ctx context.Context, payload dto.CreateReplacementDTO) (uint64, error)
}

type ReplacementService struct {
	txManager       repositories.TxManagerInterface
	replacementRepo repositories.ReplacementRepositoryInterface
	deviceRepo      repositories.DeviceRepositoryInterface
	assignmentRepo  repositories.AssignmentRepositoryInterface
	incidentRepo    repositories.IncidentRepositoryInterface
	historyRepo     repositories.HistoryRepositoryInterface
	bus             *eventbus.Bus
	logger          *zap.Logger
}

func NewReplacementService(
	txManager repositories.TxManagerInterface,
	replacementRepo repositories.ReplacementRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	incidentRepo repositories.IncidentRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) ReplacementServiceInterface {
	return &ReplacementService{
		txManager:       txManager,
		replacementRepo: replacementRepo,
		deviceRepo:      deviceRepo,
		assignmentRepo:  assignmentRepo,
		incidentRepo:    incidentRepo,
		historyRepo:     historyRepo,
		bus:             bus,
		logger:          logger,
	}
}

func (s *ReplacementService) GetReplacements(ctx context.Context, filter types.Filter) ([]entities.Replacement, uint64, error) {
	return s.replacementRepo.GetReplacements(ctx, filter)
}

// CreateReplacement заменяет старое устройство новым с переносом выдачи.
//
// Старое устройство должно быть в IN_USE, REPAIRING или PENDING_LIQUIDATION,
// новое — в AVAILABLE. Если старое было в PENDING_LIQUIDATION, его статус
// намеренно не меняется: устройство остается в очереди на списание, а замена
// фиксируется только в истории. Это правило бизнеса, а не недоработка.
func (s *ReplacementService) CreateReplacement(ctx context.Context, payload dto.CreateReplacementDTO) (uint64, error) {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}
	if payload.OldDeviceID == payload.NewDeviceID {
		return 0, apperrors.NewInvalidInputError("нельзя заменить устройство самим собой")
	}

	var newReplacementID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// Блокировка в порядке возрастания ID, чтобы исключить взаимные блокировки
		// двух встречных замен.
		firstID, secondID := payload.OldDeviceID, payload.NewDeviceID
		if firstID > secondID {
			firstID, secondID = secondID, firstID
		}
		first, err := s.deviceRepo.FindByIDForUpdateInTx(ctx, tx, firstID)
		if err != nil {
			return err
		}
		second, err := s.deviceRepo.FindByIDForUpdateInTx(ctx, tx, secondID)
		if err != nil {
			return err
		}

		oldDevice, newDevice := first, second
		if oldDevice.ID != payload.OldDeviceID {
			oldDevice, newDevice = second, first
		}

		if !oldDevice.Status.CanBeReplaced() {
			s.logger.Warn("старое устройство не допускает замену",
				zap.Uint64("deviceID", oldDevice.ID), zap.String("status", oldDevice.Status.String()))
			return apperrors.ErrStateConflict
		}
		if newDevice.Status != constants.DeviceAvailable {
			s.logger.Warn("новое устройство не свободно",
				zap.Uint64("deviceID", newDevice.ID), zap.String("status", newDevice.Status.String()))
			return apperrors.ErrStateConflict
		}

		activeAssignment, err := s.assignmentRepo.FindActiveByDeviceIDInTx(ctx, tx, oldDevice.ID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrAssignmentNotFound) {
				return err
			}
			activeAssignment = nil
		}

		now := time.Now()
		replacement := &entities.Replacement{
			OldDeviceID: oldDevice.ID,
			NewDeviceID: newDevice.ID,
			Reason:      payload.Reason,
			ReplacedAt:  now,
			CreatedBy:   actorID,
		}
		newReplacementID, err = s.replacementRepo.CreateInTx(ctx, tx, replacement)
		if err != nil {
			return err
		}

		if oldDevice.Status != constants.DevicePendingLiquidation {
			if err := s.deviceRepo.UpdateStatusInTx(ctx, tx, oldDevice.ID, oldDevice.Status, constants.DeviceReplaced); err != nil {
				return err
			}
			if err := s.deviceRepo.ClearHolderInTx(ctx, tx, oldDevice.ID); err != nil {
				return err
			}
		}

		if activeAssignment != nil {
			if err := s.assignmentRepo.CloseInTx(ctx, tx, activeAssignment.ID, now); err != nil {
				return err
			}
			newAssignment := &entities.Assignment{
				DeviceID:           newDevice.ID,
				HolderUserID:       activeAssignment.HolderUserID,
				HolderDepartmentID: activeAssignment.HolderDepartmentID,
				AssignedBy:         actorID,
				AssignedAt:         now,
			}
			if _, err := s.assignmentRepo.CreateInTx(ctx, tx, newAssignment); err != nil {
				return err
			}
			if err := s.deviceRepo.UpdateStatusInTx(ctx, tx, newDevice.ID, constants.DeviceAvailable, constants.DeviceInUse); err != nil {
				return err
			}
			if err := s.deviceRepo.SetHolderInTx(ctx, tx, newDevice.ID, activeAssignment.HolderUserID, activeAssignment.HolderDepartmentID); err != nil {
				return err
			}
		}

		if payload.IncidentID != nil {
			incident, err := s.incidentRepo.FindByIDForUpdateInTx(ctx, tx, *payload.IncidentID)
			if err != nil {
				return err
			}
			if incident.DeviceID != oldDevice.ID {
				return apperrors.NewInvalidInputError("заявка #%d относится к другому устройству", incident.ID)
			}
			if incident.Status.IsOpen() {
				if err := s.incidentRepo.UpdateStatusInTx(ctx, tx, incident.ID, incident.Status, constants.IncidentClosed); err != nil {
					return err
				}
			}
		}

		if err := s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    oldDevice.ID,
			Action:      constants.HistoryActionReplacedBy,
			ActorID:     actorID,
			Description: fmt.Sprintf("заменено устройством #%d (%s): %s", newDevice.ID, newDevice.SerialNumber, payload.Reason),
		}); err != nil {
			return err
		}
		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    newDevice.ID,
			Action:      constants.HistoryActionReplacementFor,
			ActorID:     actorID,
			Description: fmt.Sprintf("выдано взамен устройства #%d (%s)", oldDevice.ID, oldDevice.SerialNumber),
		})
	})
	if err != nil {
		return 0, err
	}

	s.bus.Publish(ctx, events.ReplacementCreatedEvent{
		ReplacementID: newReplacementID,
		OldDeviceID:   payload.OldDeviceID,
		NewDeviceID:   payload.NewDeviceID,
		ActorID:       actorID,
	})
	return newReplacementID, nil
}
