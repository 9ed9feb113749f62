package services

import (
	"context"
	"fmt"
	"time"

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

type AssignmentServiceInterface interface {
	GetAssignments(ctx context.Context, filter types.Filter) ([]entities.Assignment, uint64, error)
	FindAssignment(ctx context.Context, id uint64) (*entities.Assignment, error)
	CreateAssignment(ctx context.Context, payload dto.CreateAssignmentDTO) (uint64, error)
	RevokeAssignment(ctx context.Context, assignmentID uint64) error
	TransferAssignment(ctx context.Context, payload dto.TransferAssignmentDTO) (uint64, error)
}

type AssignmentService struct {
	txManager      repositories.TxManagerInterface
	assignmentRepo repositories.AssignmentRepositoryInterface
	deviceRepo     repositories.DeviceRepositoryInterface
	historyRepo    repositories.HistoryRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
	bus            *eventbus.Bus
	logger         *zap.Logger
}

func NewAssignmentService(
	txManager repositories.TxManagerInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) AssignmentServiceInterface {
	return &AssignmentService{
		txManager:      txManager,
		assignmentRepo: assignmentRepo,
		deviceRepo:     deviceRepo,
		historyRepo:    historyRepo,
		userRepo:       userRepo,
		bus:            bus,
		logger:         logger,
	}
}

func (s *AssignmentService) GetAssignments(ctx context.Context, filter types.Filter) ([]entities.Assignment, uint64, error) {
	return s.assignmentRepo.GetAssignments(ctx, filter)
}

func (s *AssignmentService) FindAssignment(ctx context.Context, id uint64) (*entities.Assignment, error) {
	return s.assignmentRepo.FindByID(ctx, id)
}

// holderFromPayload переводит указатели из DTO в nullable-поля.
// Хотя бы один держатель (пользователь или подразделение) обязателен.
func holderFromPayload(userID, departmentID *uint64) (null.Uint64, null.Uint64, error) {
	if userID == nil && departmentID == nil {
		return null.Uint64{}, null.Uint64{}, apperrors.NewInvalidInputError("необходимо указать держателя: пользователя или подразделение")
	}
	var holderUser, holderDept null.Uint64
	if userID != nil {
		holderUser = null.Uint64From(*userID)
	}
	if departmentID != nil {
		holderDept = null.Uint64From(*departmentID)
	}
	return holderUser, holderDept, nil
}

// CreateAssignment выдает устройство держателю.
// Устройство должно быть AVAILABLE и не иметь активной выдачи.
func (s *AssignmentService) CreateAssignment(ctx context.Context, payload dto.CreateAssignmentDTO) (uint64, error) {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}

	holderUser, holderDept, err := holderFromPayload(payload.HolderUserID, payload.HolderDepartmentID)
	if err != nil {
		return 0, err
	}

	if holderUser.Valid {
		if _, err := s.userRepo.FindByID(ctx, holderUser.Uint64); err != nil {
			return 0, err
		}
	}

	var newAssignmentID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		device, err := s.deviceRepo.FindByIDForUpdateInTx(ctx, tx, payload.DeviceID)
		if err != nil {
			return err
		}
		if device.Status != constants.DeviceAvailable {
			s.logger.Warn("попытка выдачи устройства не в статусе AVAILABLE",
				zap.Uint64("deviceID", device.ID), zap.String("status", device.Status.String()))
			return apperrors.ErrStateConflict
		}

		assignment := &entities.Assignment{
			DeviceID:           device.ID,
			HolderUserID:       holderUser,
			HolderDepartmentID: holderDept,
			AssignedBy:         actorID,
			AssignedAt:         time.Now(),
		}
		newAssignmentID, err = s.assignmentRepo.CreateInTx(ctx, tx, assignment)
		if err != nil {
			return err
		}

		if err := s.deviceRepo.UpdateStatusInTx(ctx, tx, device.ID, constants.DeviceAvailable, constants.DeviceInUse); err != nil {
			return err
		}
		if err := s.deviceRepo.SetHolderInTx(ctx, tx, device.ID, holderUser, holderDept); err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    device.ID,
			Action:      constants.HistoryActionAssigned,
			ActorID:     actorID,
			Description: describeHolder(holderUser, holderDept),
		})
	})
	if err != nil {
		return 0, err
	}

	s.bus.Publish(ctx, events.AssignmentCreatedEvent{
		AssignmentID: newAssignmentID,
		DeviceID:     payload.DeviceID,
		ActorID:      actorID,
	})
	return newAssignmentID, nil
}

// RevokeAssignment закрывает выдачу возвратом устройства на склад.
func (s *AssignmentService) RevokeAssignment(ctx context.Context, assignmentID uint64) error {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var deviceID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		assignment, err := s.assignmentRepo.FindByIDForUpdateInTx(ctx, tx, assignmentID)
		if err != nil {
			return err
		}
		if !assignment.IsActive() {
			return apperrors.ErrStateConflict
		}
		deviceID = assignment.DeviceID

		// Блокируем устройство, чтобы сериализоваться с параллельной выдачей/заменой.
		device, err := s.deviceRepo.FindByIDForUpdateInTx(ctx, tx, assignment.DeviceID)
		if err != nil {
			return err
		}

		if err := s.assignmentRepo.CloseInTx(ctx, tx, assignment.ID, time.Now()); err != nil {
			return err
		}
		if err := s.deviceRepo.UpdateStatusInTx(ctx, tx, device.ID, constants.DeviceInUse, constants.DeviceAvailable); err != nil {
			return err
		}
		if err := s.deviceRepo.ClearHolderInTx(ctx, tx, device.ID); err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    device.ID,
			Action:      constants.HistoryActionReturned,
			ActorID:     actorID,
			Description: fmt.Sprintf("возврат по выдаче #%d", assignment.ID),
		})
	})
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.AssignmentRevokedEvent{
		AssignmentID: assignmentID,
		DeviceID:     deviceID,
		ActorID:      actorID,
	})
	return nil
}

// TransferAssignment передает устройство новому держателю без возврата на склад:
// старая выдача закрывается, новая открывается в той же транзакции,
// статус устройства остается IN_USE.
func (s *AssignmentService) TransferAssignment(ctx context.Context, payload dto.TransferAssignmentDTO) (uint64, error) {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}

	holderUser, holderDept, err := holderFromPayload(payload.HolderUserID, payload.HolderDepartmentID)
	if err != nil {
		return 0, err
	}

	if holderUser.Valid {
		if _, err := s.userRepo.FindByID(ctx, holderUser.Uint64); err != nil {
			return 0, err
		}
	}

	var newAssignmentID, deviceID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		assignment, err := s.assignmentRepo.FindByIDForUpdateInTx(ctx, tx, payload.AssignmentID)
		if err != nil {
			return err
		}
		if !assignment.IsActive() {
			return apperrors.ErrStateConflict
		}
		deviceID = assignment.DeviceID

		device, err := s.deviceRepo.FindByIDForUpdateInTx(ctx, tx, assignment.DeviceID)
		if err != nil {
			return err
		}
		if device.Status != constants.DeviceInUse {
			return apperrors.ErrStateConflict
		}

		if err := s.assignmentRepo.CloseInTx(ctx, tx, assignment.ID, time.Now()); err != nil {
			return err
		}

		newAssignment := &entities.Assignment{
			DeviceID:           device.ID,
			HolderUserID:       holderUser,
			HolderDepartmentID: holderDept,
			AssignedBy:         actorID,
			AssignedAt:         time.Now(),
		}
		newAssignmentID, err = s.assignmentRepo.CreateInTx(ctx, tx, newAssignment)
		if err != nil {
			return err
		}

		if err := s.deviceRepo.SetHolderInTx(ctx, tx, device.ID, holderUser, holderDept); err != nil {
			return err
		}

		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:    device.ID,
			Action:      constants.HistoryActionTransferred,
			ActorID:     actorID,
			Description: describeHolder(holderUser, holderDept),
		})
	})
	if err != nil {
		return 0, err
	}

	s.bus.Publish(ctx, events.AssignmentTransferredEvent{
		OldAssignmentID: payload.AssignmentID,
		NewAssignmentID: newAssignmentID,
		DeviceID:        deviceID,
		ActorID:         actorID,
	})
	return newAssignmentID, nil
}

func describeHolder(holderUser, holderDept null.Uint64) string {
	switch {
	case holderUser.Valid && holderDept.Valid:
		return fmt.Sprintf("держатель: пользователь #%d, подразделение #%d", holderUser.Uint64, holderDept.Uint64)
	case holderUser.Valid:
		return fmt.Sprintf("держатель: пользователь #%d", holderUser.Uint64)
	case holderDept.Valid:
		return fmt.Sprintf("держатель: подразделение #%d", holderDept.Uint64)
	}
	return "держатель не указан"
}
