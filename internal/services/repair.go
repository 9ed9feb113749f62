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

type RepairServiceInterface interface {
	GetRepairs(ctx context.Context, filter types.Filter) ([]entities.RepairOrder, uint64, error)
	FindRepair(ctx context.Context, id uint64) (*entities.RepairOrder, error)
	// CreateRepair создает заказ на ремонт напрямую, без заявки о неисправности.
	CreateRepair(ctx context.Context, payload dto.CreateRepairDTO) (uint64, error)
	AssignTechnician(ctx context.Context, repairID uint64, payload dto.AssignTechnicianDTO) error
	AcceptRepair(ctx context.Context, repairID uint64) error
	CompleteRepair(ctx context.Context, repairID uint64, payload dto.CompleteRepairDTO) error
	ConfirmCompletion(ctx context.Context, repairID uint64) error
	RejectRepair(ctx context.Context, repairID uint64, payload dto.RejectRepairDTO) error
	MarkNotNeeded(ctx context.Context, repairID uint64, payload dto.NotNeededRepairDTO) error
}

type RepairService struct {
	txManager    repositories.TxManagerInterface
	repairRepo   repositories.RepairRepositoryInterface
	deviceRepo   repositories.DeviceRepositoryInterface
	incidentRepo repositories.IncidentRepositoryInterface
	historyRepo  repositories.HistoryRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewRepairService(
	txManager repositories.TxManagerInterface,
	repairRepo repositories.RepairRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	incidentRepo repositories.IncidentRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) RepairServiceInterface {
	return &RepairService{
		txManager:    txManager,
		repairRepo:   repairRepo,
		deviceRepo:   deviceRepo,
		incidentRepo: incidentRepo,
		historyRepo:  historyRepo,
		userRepo:     userRepo,
		bus:          bus,
		logger:       logger,
	}
}

func (s *RepairService) GetRepairs(ctx context.Context, filter types.Filter) ([]entities.RepairOrder, uint64, error) {
	return s.repairRepo.GetRepairs(ctx, filter)
}

func (s *RepairService) FindRepair(ctx context.Context, id uint64) (*entities.RepairOrder, error) {
	return s.repairRepo.FindByID(ctx, id)
}

// assertTechnician проверяет, что операцию выполняет назначенный техник.
// Чужой техник — это ошибка доступа, а не конфликт состояния.
func assertTechnician(repair *entities.RepairOrder, actorID uint64) error {
	if !repair.TechnicianID.Valid {
		return apperrors.ErrForbidden
	}
	if repair.TechnicianID.Uint64 != actorID {
		return apperrors.ErrForbidden
	}
	return nil
}

// assertTransition сверяет переход с таблицей допустимых переходов.
func assertTransition(from, to constants.RepairStatus) error {
	if !from.CanTransitionTo(to) {
		return apperrors.ErrStateConflict
	}
	return nil
}

func (s *RepairService) CreateRepair(ctx context.Context, payload dto.CreateRepairDTO) (uint64, error) {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}

	var technicianID null.Uint64
	if payload.TechnicianID != nil {
		tech, err := s.userRepo.FindByID(ctx, *payload.TechnicianID)
		if err != nil {
			return 0, err
		}
		if tech.Role != constants.RoleTechnician {
			return 0, apperrors.NewInvalidInputError("пользователь #%d не является техником", tech.ID)
		}
		technicianID = null.Uint64From(tech.ID)
	}

	var newRepairID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		device, err := s.deviceRepo.FindByIDForUpdateInTx(ctx, tx, payload.DeviceID)
		if err != nil {
			return err
		}
		if !device.Status.CanBeRepaired() {
			s.logger.Warn("устройство нельзя отправить в ремонт",
				zap.Uint64("deviceID", device.ID), zap.String("status", device.Status.String()))
			return apperrors.ErrStateConflict
		}

		if err := s.deviceRepo.UpdateStatusInTx(ctx, tx, device.ID, device.Status, constants.DeviceRepairing); err != nil {
			return err
		}

		repair := &entities.RepairOrder{
			DeviceID:     device.ID,
			TechnicianID: technicianID,
			Status:       constants.RepairPendingExecution,
			Description:  null.NewString(payload.Description, payload.Description != ""),
		}
		newRepairID, err = s.repairRepo.CreateInTx(ctx, tx, repair)
		if err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    device.ID,
			Action:      constants.HistoryActionRepairAssigned,
			ActorID:     actorID,
			Description: fmt.Sprintf("создан заказ на ремонт #%d", newRepairID),
		})
	})
	if err != nil {
		return 0, err
	}

	s.bus.Publish(ctx, events.RepairStatusChangedEvent{
		RepairID:  newRepairID,
		DeviceID:  payload.DeviceID,
		NewStatus: constants.RepairPendingExecution.String(),
		ActorID:   actorID,
	})
	return newRepairID, nil
}

// AssignTechnician назначает техника на заказ. Статус заказа не меняется,
// допустимо только из PENDING_EXECUTION.
func (s *RepairService) AssignTechnician(ctx context.Context, repairID uint64, payload dto.AssignTechnicianDTO) error {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	tech, err := s.userRepo.FindByID(ctx, payload.TechnicianID)
	if err != nil {
		return err
	}
	if tech.Role != constants.RoleTechnician {
		return apperrors.NewInvalidInputError("пользователь #%d не является техником", tech.ID)
	}

	var deviceID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		repair, err := s.repairRepo.FindByIDForUpdateInTx(ctx, tx, repairID)
		if err != nil {
			return err
		}
		if repair.Status != constants.RepairPendingExecution {
			return apperrors.ErrStateConflict
		}
		deviceID = repair.DeviceID

		if err := s.repairRepo.SetTechnicianInTx(ctx, tx, repair.ID, tech.ID); err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    repair.DeviceID,
			Action:      constants.HistoryActionRepairAssigned,
			ActorID:     actorID,
			Description: fmt.Sprintf("на заказ #%d назначен техник %s", repair.ID, tech.Fio),
		})
	})
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.RepairStatusChangedEvent{
		RepairID:  repairID,
		DeviceID:  deviceID,
		NewStatus: constants.RepairPendingExecution.String(),
		ActorID:   actorID,
	})
	return nil
}

// AcceptRepair — техник берет заказ в работу: PENDING_EXECUTION -> IN_PROGRESS.
// Если техник на заказ не назначен, назначается принявший.
func (s *RepairService) AcceptRepair(ctx context.Context, repairID uint64) error {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var deviceID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		repair, err := s.repairRepo.FindByIDForUpdateInTx(ctx, tx, repairID)
		if err != nil {
			return err
		}
		if err := assertTransition(repair.Status, constants.RepairInProgress); err != nil {
			return err
		}
		if repair.TechnicianID.Valid && repair.TechnicianID.Uint64 != actorID {
			return apperrors.ErrForbidden
		}
		deviceID = repair.DeviceID

		if !repair.TechnicianID.Valid {
			if err := s.repairRepo.SetTechnicianInTx(ctx, tx, repair.ID, actorID); err != nil {
				return err
			}
		}
		if err := s.repairRepo.UpdateStatusInTx(ctx, tx, repair.ID, repair.Status, constants.RepairInProgress); err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    repair.DeviceID,
			Action:      constants.HistoryActionRepairAccepted,
			ActorID:     actorID,
			Description: fmt.Sprintf("заказ #%d принят в работу", repair.ID),
		})
	})
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.RepairStatusChangedEvent{
		RepairID:  repairID,
		DeviceID:  deviceID,
		NewStatus: constants.RepairInProgress.String(),
		ActorID:   actorID,
	})
	return nil
}

// CompleteRepair — техник сдает работу: IN_PROGRESS -> PENDING_APPROVAL
// с результатами (описание, стоимость, трудозатраты, подрядчик, фото).
func (s *RepairService) CompleteRepair(ctx context.Context, repairID uint64, payload dto.CompleteRepairDTO) error {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var deviceID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		repair, err := s.repairRepo.FindByIDForUpdateInTx(ctx, tx, repairID)
		if err != nil {
			return err
		}
		if err := assertTechnician(repair, actorID); err != nil {
			return err
		}
		if err := assertTransition(repair.Status, constants.RepairPendingApproval); err != nil {
			return err
		}
		deviceID = repair.DeviceID

		var laborHours null.Float64
		if payload.LaborHours != nil {
			laborHours = null.Float64From(*payload.LaborHours)
		}
		vendor := null.NewString(payload.Vendor, payload.Vendor != "")
		images := payload.Images
		if images == nil {
			images = []string{}
		}

		if err := s.repairRepo.CompleteInTx(ctx, tx, repair.ID, payload.Description, payload.Cost, laborHours, vendor, images); err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    repair.DeviceID,
			Action:      constants.HistoryActionRepairCompleted,
			ActorID:     actorID,
			Description: fmt.Sprintf("заказ #%d сдан на подтверждение, стоимость %.2f", repair.ID, payload.Cost),
		})
	})
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.RepairStatusChangedEvent{
		RepairID:  repairID,
		DeviceID:  deviceID,
		NewStatus: constants.RepairPendingApproval.String(),
		ActorID:   actorID,
	})
	return nil
}

// ConfirmCompletion — администратор подтверждает ремонт:
// PENDING_APPROVAL -> COMPLETED, устройство возвращается в IN_USE,
// связанная заявка закрывается.
func (s *RepairService) ConfirmCompletion(ctx context.Context, repairID uint64) error {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var deviceID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		repair, err := s.repairRepo.FindByIDForUpdateInTx(ctx, tx, repairID)
		if err != nil {
			return err
		}
		if err := assertTransition(repair.Status, constants.RepairCompleted); err != nil {
			return err
		}
		deviceID = repair.DeviceID

		device, err := s.deviceRepo.FindByIDForUpdateInTx(ctx, tx, repair.DeviceID)
		if err != nil {
			return err
		}

		if err := s.repairRepo.UpdateStatusInTx(ctx, tx, repair.ID, repair.Status, constants.RepairCompleted); err != nil {
			return err
		}
		if err := s.deviceRepo.UpdateStatusInTx(ctx, tx, device.ID, device.Status, constants.DeviceInUse); err != nil {
			return err
		}
		if err := s.closeLinkedIncident(ctx, tx, repair); err != nil {
			return err
		}

		cost := 0.0
		if repair.Cost.Valid {
			cost = repair.Cost.Float64
		}
		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    repair.DeviceID,
			Action:      constants.HistoryActionRepairConfirmed,
			ActorID:     actorID,
			Description: fmt.Sprintf("ремонт #%d подтвержден, стоимость %.2f", repair.ID, cost),
		})
	})
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.RepairStatusChangedEvent{
		RepairID:  repairID,
		DeviceID:  deviceID,
		NewStatus: constants.RepairCompleted.String(),
		ActorID:   actorID,
	})
	return nil
}

// RejectRepair — техник отказывается от ремонта (неремонтопригодно и т.п.).
// Статус устройства не меняется: оно остается в своем неисправном состоянии.
func (s *RepairService) RejectRepair(ctx context.Context, repairID uint64, payload dto.RejectRepairDTO) error {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var deviceID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		repair, err := s.repairRepo.FindByIDForUpdateInTx(ctx, tx, repairID)
		if err != nil {
			return err
		}
		if err := assertTechnician(repair, actorID); err != nil {
			return err
		}
		if err := assertTransition(repair.Status, constants.RepairRejected); err != nil {
			return err
		}
		deviceID = repair.DeviceID

		if err := s.repairRepo.UpdateStatusInTx(ctx, tx, repair.ID, repair.Status, constants.RepairRejected); err != nil {
			return err
		}
		if err := s.repairRepo.SetRejectReasonInTx(ctx, tx, repair.ID, payload.Reason); err != nil {
			return err
		}
		if err := s.closeLinkedIncident(ctx, tx, repair); err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    repair.DeviceID,
			Action:      constants.HistoryActionRepairRejected,
			ActorID:     actorID,
			Description: fmt.Sprintf("заказ #%d отклонен техником: %s", repair.ID, payload.Reason),
		})
	})
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.RepairStatusChangedEvent{
		RepairID:  repairID,
		DeviceID:  deviceID,
		NewStatus: constants.RepairRejected.String(),
		ActorID:   actorID,
	})
	return nil
}

// MarkNotNeeded — техник фиксирует, что ремонт не требовался.
// Устройство возвращается в IN_USE, связанная заявка закрывается.
func (s *RepairService) MarkNotNeeded(ctx context.Context, repairID uint64, payload dto.NotNeededRepairDTO) error {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var deviceID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		repair, err := s.repairRepo.FindByIDForUpdateInTx(ctx, tx, repairID)
		if err != nil {
			return err
		}
		if err := assertTechnician(repair, actorID); err != nil {
			return err
		}
		if err := assertTransition(repair.Status, constants.RepairNotNeeded); err != nil {
			return err
		}
		deviceID = repair.DeviceID

		device, err := s.deviceRepo.FindByIDForUpdateInTx(ctx, tx, repair.DeviceID)
		if err != nil {
			return err
		}

		if err := s.repairRepo.UpdateStatusInTx(ctx, tx, repair.ID, repair.Status, constants.RepairNotNeeded); err != nil {
			return err
		}
		if err := s.repairRepo.SetRejectReasonInTx(ctx, tx, repair.ID, payload.Note); err != nil {
			return err
		}
		if err := s.deviceRepo.UpdateStatusInTx(ctx, tx, device.ID, device.Status, constants.DeviceInUse); err != nil {
			return err
		}
		if err := s.closeLinkedIncident(ctx, tx, repair); err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    repair.DeviceID,
			Action:      constants.HistoryActionRepairNotNeeded,
			ActorID:     actorID,
			Description: fmt.Sprintf("заказ #%d закрыт без ремонта: %s", repair.ID, payload.Note),
		})
	})
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.RepairStatusChangedEvent{
		RepairID:  repairID,
		DeviceID:  deviceID,
		NewStatus: constants.RepairNotNeeded.String(),
		ActorID:   actorID,
	})
	return nil
}

// closeLinkedIncident закрывает заявку, породившую заказ, если она есть.
func (s *RepairService) closeLinkedIncident(ctx context.Context, tx pgx.Tx, repair *entities.RepairOrder) error {
	if !repair.IncidentID.Valid {
		return nil
	}
	return s.incidentRepo.UpdateStatusInTx(ctx, tx, repair.IncidentID.Uint64,
		constants.IncidentRepairCreated, constants.IncidentClosed)
}
