package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"asset-system/pkg/types"
)

// Assignment — запись о нахождении устройства у держателя.
// Инвариант: на одно устройство не более одной записи с ReturnedAt = NULL.
type Assignment struct {
	ID                 uint64      `json:"id"`
	DeviceID           uint64      `json:"device_id"`
	HolderUserID       null.Uint64 `json:"holder_user_id"`
	HolderDepartmentID null.Uint64 `json:"holder_department_id"`
	AssignedBy         uint64      `json:"assigned_by"`
	AssignedAt         time.Time   `json:"assigned_at"`
	ReturnedAt         null.Time   `json:"returned_at"`

	types.BaseEntity
	types.SoftDelete
}

// IsActive — выдача не закрыта возвратом.
func (a *Assignment) IsActive() bool {
	return !a.ReturnedAt.Valid
}
