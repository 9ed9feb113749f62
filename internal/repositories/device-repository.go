package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
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
	deviceTable  = "devices"
	deviceFields = "id, name, serial_number, status, device_type_id, supplier_id, holder_user_id, holder_department_id, purchase_date, purchase_price, created_at, updated_at, deleted_at"
)

// allowedDeviceFilters - БЕЛЫЙ СПИСОК для фильтрации (защита от SQL Injection)
var allowedDeviceFilters = map[string]string{
	"status":               "status",
	"device_type_id":       "device_type_id",
	"supplier_id":          "supplier_id",
	"holder_user_id":       "holder_user_id",
	"holder_department_id": "holder_department_id",
}

// allowedDeviceSortFields - БЕЛЫЙ СПИСОК для сортировки
var allowedDeviceSortFields = map[string]bool{
	"id":            true,
	"name":          true,
	"serial_number": true,
	"status":        true,
	"purchase_date": true,
	"created_at":    true,
}

type DeviceRepositoryInterface interface {
	GetDevices(ctx context.Context, filter types.Filter) ([]entities.Device, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Device, error)
	FindByIDInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Device, error)
	// FindByIDForUpdateInTx блокирует строку устройства (SELECT ... FOR UPDATE),
	// сериализуя конкурентные операции над одним устройством.
	FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Device, error)
	Create(ctx context.Context, device *entities.Device) (uint64, error)
	Update(ctx context.Context, id uint64, device *entities.Device) error
	SoftDelete(ctx context.Context, id uint64) error
	// UpdateStatusInTx меняет статус с проверкой ожидаемого текущего статуса.
	// Ноль затронутых строк означает гонку или неверное состояние — ErrStateConflict.
	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to constants.DeviceStatus) error
	SetHolderInTx(ctx context.Context, tx pgx.Tx, id uint64, holderUserID, holderDepartmentID null.Uint64) error
	ClearHolderInTx(ctx context.Context, tx pgx.Tx, id uint64) error
}

type deviceRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDeviceRepository(storage *pgxpool.Pool, logger *zap.Logger) DeviceRepositoryInterface {
	return &deviceRepository{storage: storage, logger: logger}
}

func (r *deviceRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *deviceRepository) scanRow(row pgx.Row) (*entities.Device, error) {
	var d entities.Device
	err := row.Scan(
		&d.ID, &d.Name, &d.SerialNumber, &d.Status,
		&d.DeviceTypeID, &d.SupplierID, &d.HolderUserID, &d.HolderDepartmentID,
		&d.PurchaseDate, &d.PurchasePrice,
		&d.CreatedAt, &d.UpdatedAt, &d.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования devices: %w", err)
	}
	return &d, nil
}

func (r *deviceRepository) findOne(ctx context.Context, querier Querier, id uint64, forUpdate bool) (*entities.Device, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL`, deviceFields, deviceTable)
	if forUpdate {
		query += " FOR UPDATE"
	}
	return r.scanRow(querier.QueryRow(ctx, query, id))
}

func (r *deviceRepository) FindByID(ctx context.Context, id uint64) (*entities.Device, error) {
	return r.findOne(ctx, r.storage, id, false)
}

func (r *deviceRepository) FindByIDInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Device, error) {
	return r.findOne(ctx, r.getQuerier(tx), id, false)
}

func (r *deviceRepository) FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Device, error) {
	return r.findOne(ctx, tx, id, true)
}

func (r *deviceRepository) GetDevices(ctx context.Context, filter types.Filter) ([]entities.Device, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	builder := psql.Select(deviceFields).From(deviceTable).Where(sq.Eq{"deleted_at": nil})
	countBuilder := psql.Select("COUNT(*)").From(deviceTable).Where(sq.Eq{"deleted_at": nil})

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		searchCond := sq.Or{
			sq.Expr("LOWER(name) LIKE ?", like),
			sq.Expr("LOWER(serial_number) LIKE ?", like),
		}
		builder = builder.Where(searchCond)
		countBuilder = countBuilder.Where(searchCond)
	}

	for jsonField, val := range filter.Filter {
		dbCol, ok := allowedDeviceFilters[jsonField]
		if !ok {
			continue
		}
		if s, ok := val.(string); ok && strings.Contains(s, ",") {
			builder = builder.Where(sq.Eq{dbCol: strings.Split(s, ",")})
			countBuilder = countBuilder.Where(sq.Eq{dbCol: strings.Split(s, ",")})
		} else {
			builder = builder.Where(sq.Eq{dbCol: val})
			countBuilder = countBuilder.Where(sq.Eq{dbCol: val})
		}
	}

	orderApplied := false
	for field, dir := range filter.Sort {
		if !allowedDeviceSortFields[field] {
			continue
		}
		sqlDir := "ASC"
		if strings.ToLower(dir) == "desc" {
			sqlDir = "DESC"
		}
		builder = builder.OrderBy(fmt.Sprintf("%s %s", field, sqlDir))
		orderApplied = true
	}
	if !orderApplied {
		builder = builder.OrderBy("created_at DESC")
	}

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL подсчета устройств: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета устройств: %w", err)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL списка устройств: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка устройств: %w", err)
	}
	defer rows.Close()

	devices := make([]entities.Device, 0)
	for rows.Next() {
		var d entities.Device
		if err := rows.Scan(
			&d.ID, &d.Name, &d.SerialNumber, &d.Status,
			&d.DeviceTypeID, &d.SupplierID, &d.HolderUserID, &d.HolderDepartmentID,
			&d.PurchaseDate, &d.PurchasePrice,
			&d.CreatedAt, &d.UpdatedAt, &d.DeletedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования устройства в списке: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, total, nil
}

func (r *deviceRepository) Create(ctx context.Context, device *entities.Device) (uint64, error) {
	query := `
		INSERT INTO devices (name, serial_number, status, device_type_id, supplier_id, purchase_date, purchase_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id uint64
	err := r.storage.QueryRow(ctx, query,
		device.Name, device.SerialNumber, device.Status,
		device.DeviceTypeID, device.SupplierID,
		device.PurchaseDate, device.PurchasePrice,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания устройства: %w", err)
	}
	return id, nil
}

func (r *deviceRepository) Update(ctx context.Context, id uint64, device *entities.Device) error {
	query := `
		UPDATE devices
		SET name = $1, serial_number = $2, device_type_id = $3, supplier_id = $4,
		    purchase_date = $5, purchase_price = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7 AND deleted_at IS NULL`

	result, err := r.storage.Exec(ctx, query,
		device.Name, device.SerialNumber, device.DeviceTypeID, device.SupplierID,
		device.PurchaseDate, device.PurchasePrice, id,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления устройства: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrDeviceNotFound
	}
	return nil
}

func (r *deviceRepository) SoftDelete(ctx context.Context, id uint64) error {
	query := `UPDATE devices SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.storage.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления устройства: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrDeviceNotFound
	}
	return nil
}

func (r *deviceRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to constants.DeviceStatus) error {
	query := `UPDATE devices SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND status = $3 AND deleted_at IS NULL`
	result, err := tx.Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("ошибка смены статуса устройства: %w", err)
	}
	if result.RowsAffected() == 0 {
		r.logger.Warn("смена статуса устройства не применена: статус уже изменился",
			zap.Uint64("deviceID", id),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		return apperrors.ErrStateConflict
	}
	return nil
}

func (r *deviceRepository) SetHolderInTx(ctx context.Context, tx pgx.Tx, id uint64, holderUserID, holderDepartmentID null.Uint64) error {
	query := `UPDATE devices SET holder_user_id = $1, holder_department_id = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3 AND deleted_at IS NULL`
	result, err := tx.Exec(ctx, query, holderUserID, holderDepartmentID, id)
	if err != nil {
		return fmt.Errorf("ошибка смены держателя устройства: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrDeviceNotFound
	}
	return nil
}

func (r *deviceRepository) ClearHolderInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	return r.SetHolderInTx(ctx, tx, id, null.Uint64{}, null.Uint64{})
}
