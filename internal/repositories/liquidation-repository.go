package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"asset-system/internal/entities"
	"asset-system/pkg/types"
)

// EligibleDeviceRow — кандидат на списание с признаками, по которым он прошел отбор.
type EligibleDeviceRow struct {
	Device             entities.Device
	HasTriggerIncident bool
	IsDepreciated      bool
}

type LiquidationRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, liquidation *entities.Liquidation) (uint64, error)
	GetLiquidations(ctx context.Context, filter types.Filter) ([]entities.Liquidation, uint64, error)
	// GetEligibleDevices отбирает устройства, пригодные к списанию:
	// статус из множества списываемых, либо открытая заявка с типом-триггером,
	// либо возраст покупки старше порога; и при этом нет активного ремонта.
	GetEligibleDevices(ctx context.Context, depreciationBefore time.Time) ([]EligibleDeviceRow, error)
}

type liquidationRepository struct {
	storage *pgxpool.Pool
}

func NewLiquidationRepository(storage *pgxpool.Pool) LiquidationRepositoryInterface {
	return &liquidationRepository{storage: storage}
}

func (r *liquidationRepository) CreateInTx(ctx context.Context, tx pgx.Tx, liquidation *entities.Liquidation) (uint64, error) {
	query := `
		INSERT INTO liquidations (device_id, reason, liquidated_at, approved_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id uint64
	err := tx.QueryRow(ctx, query,
		liquidation.DeviceID, liquidation.Reason, liquidation.LiquidatedAt, liquidation.ApprovedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания записи о списании: %w", err)
	}
	return id, nil
}

func (r *liquidationRepository) GetLiquidations(ctx context.Context, filter types.Filter) ([]entities.Liquidation, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM liquidations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета списаний: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	query := `
		SELECT id, device_id, reason, liquidated_at, approved_by, created_at
		FROM liquidations
		ORDER BY liquidated_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.storage.Query(ctx, query, limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка списаний: %w", err)
	}
	defer rows.Close()

	liquidations := make([]entities.Liquidation, 0)
	for rows.Next() {
		var l entities.Liquidation
		if err := rows.Scan(&l.ID, &l.DeviceID, &l.Reason, &l.LiquidatedAt, &l.ApprovedBy, &l.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования списания в списке: %w", err)
		}
		liquidations = append(liquidations, l)
	}
	return liquidations, total, nil
}

func (r *liquidationRepository) GetEligibleDevices(ctx context.Context, depreciationBefore time.Time) ([]EligibleDeviceRow, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	triggerIncidentExpr := `EXISTS (
		SELECT 1 FROM incident_reports ir
		WHERE ir.device_id = d.id
		  AND ir.status IN ('PENDING', 'REPAIR_CREATED')
		  AND ir.report_type IN ('DEVICE_LOSS', 'HARDWARE_FAILURE')
	)`
	activeRepairExpr := `EXISTS (
		SELECT 1 FROM repair_orders ro
		WHERE ro.device_id = d.id
		  AND ro.status IN ('IN_PROGRESS', 'PENDING_APPROVAL')
	)`

	builder := psql.
		Select(
			"d.id", "d.name", "d.serial_number", "d.status",
			"d.holder_user_id", "d.holder_department_id",
			"d.purchase_date", "d.purchase_price",
			triggerIncidentExpr+" AS has_trigger_incident",
		).
		From("devices d").
		Where(sq.Eq{"d.deleted_at": nil}).
		Where(sq.NotEq{"d.status": "LIQUIDATED"}).
		Where(sq.Or{
			sq.Eq{"d.status": []string{"PENDING_LIQUIDATION", "BROKEN", "LOST"}},
			sq.Expr(triggerIncidentExpr),
			sq.Expr("d.purchase_date IS NOT NULL AND d.purchase_date < ?", depreciationBefore),
		}).
		Where("NOT " + activeRepairExpr).
		OrderBy("d.id")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL кандидатов на списание: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки кандидатов на списание: %w", err)
	}
	defer rows.Close()

	result := make([]EligibleDeviceRow, 0)
	for rows.Next() {
		var row EligibleDeviceRow
		if err := rows.Scan(
			&row.Device.ID, &row.Device.Name, &row.Device.SerialNumber, &row.Device.Status,
			&row.Device.HolderUserID, &row.Device.HolderDepartmentID,
			&row.Device.PurchaseDate, &row.Device.PurchasePrice,
			&row.HasTriggerIncident,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования кандидата на списание: %w", err)
		}
		// Возраст покупки сверяется с порогом уже на стороне приложения.
		row.IsDepreciated = row.Device.PurchaseDate.Valid && row.Device.PurchaseDate.Time.Before(depreciationBefore)
		result = append(result, row)
	}
	return result, nil
}
