package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"asset-system/pkg/constants"
	"asset-system/pkg/types"
)

// Device — агрегат-корень жизненного цикла. Статус меняется только операциями
// рабочих процессов (выдача, ремонт, замена, списание), напрямую он не пишется.
type Device struct {
	ID                 uint64                 `json:"id"`
	Name               string                 `json:"name"`
	SerialNumber       string                 `json:"serial_number"`
	Status             constants.DeviceStatus `json:"status"`
	DeviceTypeID       null.Uint64            `json:"device_type_id"`
	SupplierID         null.Uint64            `json:"supplier_id"`
	HolderUserID       null.Uint64            `json:"holder_user_id"`
	HolderDepartmentID null.Uint64            `json:"holder_department_id"`
	PurchaseDate       null.Time              `json:"purchase_date"`
	PurchasePrice      null.Float64           `json:"purchase_price"`

	types.BaseEntity
	types.SoftDelete
}

// IsDepreciated — устройство старше порога амортизации (в годах).
func (d *Device) IsDepreciated(years int, now time.Time) bool {
	if !d.PurchaseDate.Valid {
		return false
	}
	return d.PurchaseDate.Time.AddDate(years, 0, 0).Before(now)
}
