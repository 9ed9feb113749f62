package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/types"
)

const (
	repairTable  = "repair_orders"
	repairFields = "id, device_id, incident_id, technician_id, status, description, cost, labor_hours, vendor, reject_reason, images, created_at, updated_at"
)

type RepairRepositoryInterface interface {
	GetRepairs(ctx context.Context, filter types.Filter) ([]entities.RepairOrder, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.RepairOrder, error)
	FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairOrder, error)
	CreateInTx(ctx context.Context, tx pgx.Tx, repair *entities.RepairOrder) (uint64, error)
	// HasActiveByDeviceID — активный ремонт (IN_PROGRESS/PENDING_APPROVAL)
	// блокирует списание устройства.
	HasActiveByDeviceIDInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (bool, error)
	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to constants.RepairStatus) error
	SetTechnicianInTx(ctx context.Context, tx pgx.Tx, id uint64, technicianID uint64) error
	// CompleteInTx переводит заказ в PENDING_APPROVAL с результатами работ.
	CompleteInTx(ctx context.Context, tx pgx.Tx, id uint64, description string, cost float64, laborHours null.Float64, vendor null.String, images []string) error
	SetRejectReasonInTx(ctx context.Context, tx pgx.Tx, id uint64, reason string) error
}

type repairRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRepairRepository(storage *pgxpool.Pool, logger *zap.Logger) RepairRepositoryInterface {
	return &repairRepository{storage: storage, logger: logger}
}

func (r *repairRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *repairRepository) scanRow(row pgx.Row) (*entities.RepairOrder, error) {
	var ro entities.RepairOrder
	err := row.Scan(
		&ro.ID, &ro.DeviceID, &ro.IncidentID, &ro.TechnicianID, &ro.Status,
		&ro.Description, &ro.Cost, &ro.LaborHours, &ro.Vendor, &ro.RejectReason,
		&ro.Images, &ro.CreatedAt, &ro.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRepairNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования repair_orders: %w", err)
	}
	return &ro, nil
}

func (r *repairRepository) FindByID(ctx context.Context, id uint64) (*entities.RepairOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, repairFields, repairTable)
	return r.scanRow(r.storage.QueryRow(ctx, query, id))
}

func (r *repairRepository) FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, repairFields, repairTable)
	return r.scanRow(tx.QueryRow(ctx, query, id))
}

func (r *repairRepository) CreateInTx(ctx context.Context, tx pgx.Tx, repair *entities.RepairOrder) (uint64, error) {
	query := `
		INSERT INTO repair_orders (device_id, incident_id, technician_id, status, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id uint64
	err := tx.QueryRow(ctx, query,
		repair.DeviceID, repair.IncidentID, repair.TechnicianID, repair.Status, repair.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заказа на ремонт: %w", err)
	}
	return id, nil
}

func (r *repairRepository) HasActiveByDeviceIDInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM repair_orders WHERE device_id = $1 AND status IN ('IN_PROGRESS', 'PENDING_APPROVAL'))`
	var exists bool
	if err := r.getQuerier(tx).QueryRow(ctx, query, deviceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки активных ремонтов: %w", err)
	}
	return exists, nil
}

func (r *repairRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to constants.RepairStatus) error {
	query := `UPDATE repair_orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND status = $3`
	result, err := tx.Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("ошибка смены статуса ремонта: %w", err)
	}
	if result.RowsAffected() == 0 {
		r.logger.Warn("смена статуса ремонта не применена: статус уже изменился",
			zap.Uint64("repairID", id),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		return apperrors.ErrStateConflict
	}
	return nil
}

func (r *repairRepository) SetTechnicianInTx(ctx context.Context, tx pgx.Tx, id uint64, technicianID uint64) error {
	query := `UPDATE repair_orders SET technician_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	result, err := tx.Exec(ctx, query, technicianID, id)
	if err != nil {
		return fmt.Errorf("ошибка назначения техника: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrRepairNotFound
	}
	return nil
}

func (r *repairRepository) CompleteInTx(ctx context.Context, tx pgx.Tx, id uint64, description string, cost float64, laborHours null.Float64, vendor null.String, images []string) error {
	query := `
		UPDATE repair_orders
		SET status = 'PENDING_APPROVAL', description = $1, cost = $2, labor_hours = $3,
		    vendor = $4, images = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6 AND status = 'IN_PROGRESS'`

	result, err := tx.Exec(ctx, query, description, cost, laborHours, vendor, images, id)
	if err != nil {
		return fmt.Errorf("ошибка завершения ремонта: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrStateConflict
	}
	return nil
}

func (r *repairRepository) SetRejectReasonInTx(ctx context.Context, tx pgx.Tx, id uint64, reason string) error {
	query := `UPDATE repair_orders SET reject_reason = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	result, err := tx.Exec(ctx, query, reason, id)
	if err != nil {
		return fmt.Errorf("ошибка записи причины отказа: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrRepairNotFound
	}
	return nil
}

func (r *repairRepository) GetRepairs(ctx context.Context, filter types.Filter) ([]entities.RepairOrder, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM repair_orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета ремонтов: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, repairFields, repairTable)

	rows, err := r.storage.Query(ctx, query, limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка ремонтов: %w", err)
	}
	defer rows.Close()

	repairs := make([]entities.RepairOrder, 0)
	for rows.Next() {
		var ro entities.RepairOrder
		if err := rows.Scan(
			&ro.ID, &ro.DeviceID, &ro.IncidentID, &ro.TechnicianID, &ro.Status,
			&ro.Description, &ro.Cost, &ro.LaborHours, &ro.Vendor, &ro.RejectReason,
			&ro.Images, &ro.CreatedAt, &ro.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования ремонта в списке: %w", err)
		}
		repairs = append(repairs, ro)
	}
	return repairs, total, nil
}
