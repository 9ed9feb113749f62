package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/types"
)

const (
	assignmentTable  = "assignments"
	assignmentFields = "id, device_id, holder_user_id, holder_department_id, assigned_by, assigned_at, returned_at, created_at, updated_at, deleted_at"
)

type AssignmentRepositoryInterface interface {
	GetAssignments(ctx context.Context, filter types.Filter) ([]entities.Assignment, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Assignment, error)
	FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Assignment, error)
	// FindActiveByDeviceIDInTx возвращает незакрытую выдачу устройства, если она есть.
	FindActiveByDeviceIDInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (*entities.Assignment, error)
	CreateInTx(ctx context.Context, tx pgx.Tx, a *entities.Assignment) (uint64, error)
	// CloseInTx закрывает выдачу возвратом. Уже закрытая выдача — конфликт состояния.
	CloseInTx(ctx context.Context, tx pgx.Tx, id uint64, returnedAt time.Time) error
}

type assignmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAssignmentRepository(storage *pgxpool.Pool, logger *zap.Logger) AssignmentRepositoryInterface {
	return &assignmentRepository{storage: storage, logger: logger}
}

func (r *assignmentRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *assignmentRepository) scanRow(row pgx.Row) (*entities.Assignment, error) {
	var a entities.Assignment
	err := row.Scan(
		&a.ID, &a.DeviceID, &a.HolderUserID, &a.HolderDepartmentID,
		&a.AssignedBy, &a.AssignedAt, &a.ReturnedAt,
		&a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования assignments: %w", err)
	}
	return &a, nil
}

func (r *assignmentRepository) FindByID(ctx context.Context, id uint64) (*entities.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL`, assignmentFields, assignmentTable)
	return r.scanRow(r.storage.QueryRow(ctx, query, id))
}

func (r *assignmentRepository) FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, assignmentFields, assignmentTable)
	return r.scanRow(tx.QueryRow(ctx, query, id))
}

func (r *assignmentRepository) FindActiveByDeviceIDInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (*entities.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE device_id = $1 AND returned_at IS NULL AND deleted_at IS NULL`, assignmentFields, assignmentTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, deviceID))
}

func (r *assignmentRepository) CreateInTx(ctx context.Context, tx pgx.Tx, a *entities.Assignment) (uint64, error) {
	query := `
		INSERT INTO assignments (device_id, holder_user_id, holder_department_id, assigned_by, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id uint64
	err := tx.QueryRow(ctx, query,
		a.DeviceID, a.HolderUserID, a.HolderDepartmentID, a.AssignedBy, a.AssignedAt,
	).Scan(&id)
	if err != nil {
		// Частичный уникальный индекс по активным выдачам ловит гонку двух
		// одновременных выдач одного устройства.
		if isUniqueViolation(err) {
			r.logger.Warn("попытка повторной выдачи устройства", zap.Uint64("deviceID", a.DeviceID), zap.Error(err))
			return 0, apperrors.ErrStateConflict
		}
		return 0, fmt.Errorf("ошибка создания выдачи: %w", err)
	}
	return id, nil
}

func (r *assignmentRepository) CloseInTx(ctx context.Context, tx pgx.Tx, id uint64, returnedAt time.Time) error {
	query := `
		UPDATE assignments
		SET returned_at = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND returned_at IS NULL AND deleted_at IS NULL`

	result, err := tx.Exec(ctx, query, returnedAt, id)
	if err != nil {
		return fmt.Errorf("ошибка закрытия выдачи: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrStateConflict
	}
	return nil
}

func (r *assignmentRepository) GetAssignments(ctx context.Context, filter types.Filter) ([]entities.Assignment, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM assignments WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета выдач: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE deleted_at IS NULL
		ORDER BY assigned_at DESC
		LIMIT $1 OFFSET $2`, assignmentFields, assignmentTable)

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.storage.Query(ctx, query, limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка выдач: %w", err)
	}
	defer rows.Close()

	assignments := make([]entities.Assignment, 0)
	for rows.Next() {
		var a entities.Assignment
		if err := rows.Scan(
			&a.ID, &a.DeviceID, &a.HolderUserID, &a.HolderDepartmentID,
			&a.AssignedBy, &a.AssignedAt, &a.ReturnedAt,
			&a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования выдачи в списке: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, total, nil
}
