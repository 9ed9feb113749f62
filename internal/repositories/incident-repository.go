package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/types"
)

const (
	incidentTable  = "incident_reports"
	incidentFields = "id, device_id, reporter_id, report_type, description, status, reject_reason, rejected_by, rejected_at, created_at, updated_at"
)

type IncidentRepositoryInterface interface {
	GetIncidents(ctx context.Context, filter types.Filter) ([]entities.IncidentReport, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.IncidentReport, error)
	FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.IncidentReport, error)
	// HasOpenByDeviceID — существует ли открытая заявка (PENDING/REPAIR_CREATED).
	HasOpenByDeviceIDInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (bool, error)
	// HasOpenLiquidationTrigger — есть ли открытая заявка с типом, дающим
	// право на списание (утеря, аппаратный отказ).
	HasOpenLiquidationTriggerInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (bool, error)
	CreateInTx(ctx context.Context, tx pgx.Tx, incident *entities.IncidentReport) (uint64, error)
	// UpdateStatusInTx меняет статус с проверкой текущего.
	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to constants.IncidentStatus) error
	RejectInTx(ctx context.Context, tx pgx.Tx, id uint64, reason string, rejectedBy uint64) error
}

type incidentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewIncidentRepository(storage *pgxpool.Pool, logger *zap.Logger) IncidentRepositoryInterface {
	return &incidentRepository{storage: storage, logger: logger}
}

func (r *incidentRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *incidentRepository) scanRow(row pgx.Row) (*entities.IncidentReport, error) {
	var i entities.IncidentReport
	err := row.Scan(
		&i.ID, &i.DeviceID, &i.ReporterID, &i.ReportType, &i.Description,
		&i.Status, &i.RejectReason, &i.RejectedBy, &i.RejectedAt,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования incident_reports: %w", err)
	}
	return &i, nil
}

func (r *incidentRepository) FindByID(ctx context.Context, id uint64) (*entities.IncidentReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, incidentFields, incidentTable)
	return r.scanRow(r.storage.QueryRow(ctx, query, id))
}

func (r *incidentRepository) FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.IncidentReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, incidentFields, incidentTable)
	return r.scanRow(tx.QueryRow(ctx, query, id))
}

func (r *incidentRepository) HasOpenByDeviceIDInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM incident_reports WHERE device_id = $1 AND status IN ('PENDING', 'REPAIR_CREATED'))`
	var exists bool
	if err := r.getQuerier(tx).QueryRow(ctx, query, deviceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки открытых заявок: %w", err)
	}
	return exists, nil
}

func (r *incidentRepository) HasOpenLiquidationTriggerInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM incident_reports
			WHERE device_id = $1
			  AND status IN ('PENDING', 'REPAIR_CREATED')
			  AND report_type IN ('DEVICE_LOSS', 'HARDWARE_FAILURE')
		)`
	var exists bool
	if err := r.getQuerier(tx).QueryRow(ctx, query, deviceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки заявок для списания: %w", err)
	}
	return exists, nil
}

func (r *incidentRepository) CreateInTx(ctx context.Context, tx pgx.Tx, incident *entities.IncidentReport) (uint64, error) {
	query := `
		INSERT INTO incident_reports (device_id, reporter_id, report_type, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id uint64
	err := tx.QueryRow(ctx, query,
		incident.DeviceID, incident.ReporterID, incident.ReportType,
		incident.Description, incident.Status,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Warn("попытка создать вторую открытую заявку по устройству",
				zap.Uint64("deviceID", incident.DeviceID), zap.Error(err))
			return 0, apperrors.ErrStateConflict
		}
		return 0, fmt.Errorf("ошибка создания заявки о неисправности: %w", err)
	}
	return id, nil
}

func (r *incidentRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to constants.IncidentStatus) error {
	query := `UPDATE incident_reports SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND status = $3`
	result, err := tx.Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("ошибка смены статуса заявки: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrStateConflict
	}
	return nil
}

func (r *incidentRepository) RejectInTx(ctx context.Context, tx pgx.Tx, id uint64, reason string, rejectedBy uint64) error {
	query := `
		UPDATE incident_reports
		SET status = 'REJECTED', reject_reason = $1, rejected_by = $2, rejected_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = 'PENDING'`

	result, err := tx.Exec(ctx, query, reason, rejectedBy, id)
	if err != nil {
		return fmt.Errorf("ошибка отклонения заявки: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrStateConflict
	}
	return nil
}

func (r *incidentRepository) GetIncidents(ctx context.Context, filter types.Filter) ([]entities.IncidentReport, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM incident_reports`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета заявок: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, incidentFields, incidentTable)

	rows, err := r.storage.Query(ctx, query, limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заявок: %w", err)
	}
	defer rows.Close()

	incidents := make([]entities.IncidentReport, 0)
	for rows.Next() {
		var i entities.IncidentReport
		if err := rows.Scan(
			&i.ID, &i.DeviceID, &i.ReporterID, &i.ReportType, &i.Description,
			&i.Status, &i.RejectReason, &i.RejectedBy, &i.RejectedAt,
			&i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования заявки в списке: %w", err)
		}
		incidents = append(incidents, i)
	}
	return incidents, total, nil
}
