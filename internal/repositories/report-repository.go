package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"asset-system/internal/dto"
)

type ReportRepositoryInterface interface {
	GetDeviceInventory(ctx context.Context) ([]dto.DeviceReportItem, error)
}

type reportRepository struct {
	storage *pgxpool.Pool
}

func NewReportRepository(storage *pgxpool.Pool) ReportRepositoryInterface {
	return &reportRepository{storage: storage}
}

// GetDeviceInventory собирает сводку по всем (не удалённым) устройствам:
// текущий держатель, справочные имена и агрегаты по заявкам и ремонтам.
func (r *reportRepository) GetDeviceInventory(ctx context.Context) ([]dto.DeviceReportItem, error) {
	query := `
		SELECT
			d.id,
			d.name,
			d.serial_number,
			d.status,
			COALESCE(dt.name, '')                                  AS device_type,
			COALESCE(s.name, '')                                   AS supplier,
			COALESCE(u.fio, '')                                    AS holder_fio,
			COALESCE(dep.name, '')                                 AS holder_dept,
			COALESCE(TO_CHAR(d.purchase_date, 'YYYY-MM-DD'), '')   AS purchase_date,
			COALESCE(d.purchase_price, 0)                          AS purchase_price,
			(SELECT COUNT(*) FROM incident_reports ir WHERE ir.device_id = d.id)             AS incident_count,
			(SELECT COUNT(*) FROM repair_orders ro WHERE ro.device_id = d.id)                AS repair_count,
			COALESCE((SELECT SUM(ro.cost) FROM repair_orders ro
				WHERE ro.device_id = d.id AND ro.status = 'COMPLETED'), 0)               AS total_repair_sum
		FROM devices d
		LEFT JOIN device_types dt ON dt.id = d.device_type_id
		LEFT JOIN suppliers s     ON s.id = d.supplier_id
		LEFT JOIN users u         ON u.id = d.holder_user_id
		LEFT JOIN departments dep ON dep.id = COALESCE(d.holder_department_id, u.department_id)
		WHERE d.deleted_at IS NULL
		ORDER BY d.id`

	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования инвентарного отчета: %w", err)
	}
	defer rows.Close()

	items := make([]dto.DeviceReportItem, 0)
	for rows.Next() {
		var item dto.DeviceReportItem
		if err := rows.Scan(
			&item.ID, &item.Name, &item.SerialNumber, &item.Status,
			&item.DeviceType, &item.Supplier, &item.HolderFio, &item.HolderDept,
			&item.PurchaseDate, &item.PurchasePrice,
			&item.IncidentCount, &item.RepairCount, &item.TotalRepairSum,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки отчета: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}
