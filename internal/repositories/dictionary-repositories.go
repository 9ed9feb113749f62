package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"asset-system/internal/entities"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/types"
)

// Справочники (подразделения, типы устройств, поставщики) устроены одинаково:
// простой CRUD с мягким удалением.

type DepartmentRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.Department, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Department, error)
	Create(ctx context.Context, name string) (uint64, error)
	Update(ctx context.Context, id uint64, name string) error
	SoftDelete(ctx context.Context, id uint64) error
}

type departmentRepository struct {
	storage *pgxpool.Pool
}

func NewDepartmentRepository(storage *pgxpool.Pool) DepartmentRepositoryInterface {
	return &departmentRepository{storage: storage}
}

func (r *departmentRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.Department, uint64, error) {
	return getNamedDictionary[entities.Department](ctx, r.storage, "departments", filter,
		func(rows pgx.Rows) (entities.Department, error) {
			var d entities.Department
			err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
			return d, err
		})
}

func (r *departmentRepository) FindByID(ctx context.Context, id uint64) (*entities.Department, error) {
	var d entities.Department
	err := r.storage.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at, deleted_at FROM departments WHERE id = $1 AND deleted_at IS NULL`, id,
	).Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования departments: %w", err)
	}
	return &d, nil
}

func (r *departmentRepository) Create(ctx context.Context, name string) (uint64, error) {
	return createNamedDictionary(ctx, r.storage, "departments", name)
}

func (r *departmentRepository) Update(ctx context.Context, id uint64, name string) error {
	return updateNamedDictionary(ctx, r.storage, "departments", id, name)
}

func (r *departmentRepository) SoftDelete(ctx context.Context, id uint64) error {
	return softDeleteDictionary(ctx, r.storage, "departments", id)
}

type DeviceTypeRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.DeviceType, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.DeviceType, error)
	Create(ctx context.Context, name string) (uint64, error)
	Update(ctx context.Context, id uint64, name string) error
	SoftDelete(ctx context.Context, id uint64) error
}

type deviceTypeRepository struct {
	storage *pgxpool.Pool
}

func NewDeviceTypeRepository(storage *pgxpool.Pool) DeviceTypeRepositoryInterface {
	return &deviceTypeRepository{storage: storage}
}

func (r *deviceTypeRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.DeviceType, uint64, error) {
	return getNamedDictionary[entities.DeviceType](ctx, r.storage, "device_types", filter,
		func(rows pgx.Rows) (entities.DeviceType, error) {
			var t entities.DeviceType
			err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
			return t, err
		})
}

func (r *deviceTypeRepository) FindByID(ctx context.Context, id uint64) (*entities.DeviceType, error) {
	var t entities.DeviceType
	err := r.storage.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at, deleted_at FROM device_types WHERE id = $1 AND deleted_at IS NULL`, id,
	).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования device_types: %w", err)
	}
	return &t, nil
}

func (r *deviceTypeRepository) Create(ctx context.Context, name string) (uint64, error) {
	return createNamedDictionary(ctx, r.storage, "device_types", name)
}

func (r *deviceTypeRepository) Update(ctx context.Context, id uint64, name string) error {
	return updateNamedDictionary(ctx, r.storage, "device_types", id, name)
}

func (r *deviceTypeRepository) SoftDelete(ctx context.Context, id uint64) error {
	return softDeleteDictionary(ctx, r.storage, "device_types", id)
}

type SupplierRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.Supplier, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Supplier, error)
	Create(ctx context.Context, s *entities.Supplier) (uint64, error)
	Update(ctx context.Context, id uint64, s *entities.Supplier) error
	SoftDelete(ctx context.Context, id uint64) error
}

type supplierRepository struct {
	storage *pgxpool.Pool
}

func NewSupplierRepository(storage *pgxpool.Pool) SupplierRepositoryInterface {
	return &supplierRepository{storage: storage}
}

func (r *supplierRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.Supplier, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета поставщиков: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.storage.Query(ctx, `
		SELECT id, name, phone, address, created_at, updated_at, deleted_at
		FROM suppliers
		WHERE deleted_at IS NULL
		ORDER BY name
		LIMIT $1 OFFSET $2`, limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка поставщиков: %w", err)
	}
	defer rows.Close()

	suppliers := make([]entities.Supplier, 0)
	for rows.Next() {
		var s entities.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования поставщика: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, total, nil
}

func (r *supplierRepository) FindByID(ctx context.Context, id uint64) (*entities.Supplier, error) {
	var s entities.Supplier
	err := r.storage.QueryRow(ctx,
		`SELECT id, name, phone, address, created_at, updated_at, deleted_at FROM suppliers WHERE id = $1 AND deleted_at IS NULL`, id,
	).Scan(&s.ID, &s.Name, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования suppliers: %w", err)
	}
	return &s, nil
}

func (r *supplierRepository) Create(ctx context.Context, s *entities.Supplier) (uint64, error) {
	var id uint64
	err := r.storage.QueryRow(ctx,
		`INSERT INTO suppliers (name, phone, address) VALUES ($1, $2, $3) RETURNING id`,
		s.Name, s.Phone, s.Address,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания поставщика: %w", err)
	}
	return id, nil
}

func (r *supplierRepository) Update(ctx context.Context, id uint64, s *entities.Supplier) error {
	result, err := r.storage.Exec(ctx,
		`UPDATE suppliers SET name = $1, phone = $2, address = $3, updated_at = CURRENT_TIMESTAMP WHERE id = $4 AND deleted_at IS NULL`,
		s.Name, s.Phone, s.Address, id,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления поставщика: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *supplierRepository) SoftDelete(ctx context.Context, id uint64) error {
	return softDeleteDictionary(ctx, r.storage, "suppliers", id)
}

// ===== ОБЩИЕ ПОМОЩНИКИ ДЛЯ СПРАВОЧНИКОВ =====

func getNamedDictionary[T any](ctx context.Context, storage *pgxpool.Pool, table string, filter types.Filter, scan func(pgx.Rows) (T, error)) ([]T, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	var total uint64
	countQuery, countArgs, err := psql.Select("COUNT(*)").From(table).Where(sq.Eq{"deleted_at": nil}).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL подсчета %s: %w", table, err)
	}
	if err := storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета %s: %w", table, err)
	}

	builder := psql.Select("id", "name", "created_at", "updated_at", "deleted_at").
		From(table).
		Where(sq.Eq{"deleted_at": nil}).
		OrderBy("name")

	if filter.Search != "" {
		builder = builder.Where(sq.Expr("LOWER(name) LIKE ?", "%"+filter.Search+"%"))
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL списка %s: %w", table, err)
	}

	rows, err := storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка %s: %w", table, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования %s: %w", table, err)
		}
		items = append(items, item)
	}
	return items, total, nil
}

func createNamedDictionary(ctx context.Context, storage *pgxpool.Pool, table, name string) (uint64, error) {
	var id uint64
	query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id`, table)
	if err := storage.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка создания записи в %s: %w", table, err)
	}
	return id, nil
}

func updateNamedDictionary(ctx context.Context, storage *pgxpool.Pool, table string, id uint64, name string) error {
	query := fmt.Sprintf(`UPDATE %s SET name = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND deleted_at IS NULL`, table)
	result, err := storage.Exec(ctx, query, name, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления записи в %s: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func softDeleteDictionary(ctx context.Context, storage *pgxpool.Pool, table string, id uint64) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`, table)
	result, err := storage.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи в %s: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
