package entities

import (
	"github.com/aarondl/null/v8"

	"asset-system/pkg/constants"
	"asset-system/pkg/types"
)

// RepairOrder — заказ на ремонт. Создается при одобрении заявки о неисправности
// (или напрямую администратором) и исполняется назначенным техником.
type RepairOrder struct {
	ID           uint64                 `json:"id"`
	DeviceID     uint64                 `json:"device_id"`
	IncidentID   null.Uint64            `json:"incident_id"`
	TechnicianID null.Uint64            `json:"technician_id"`
	Status       constants.RepairStatus `json:"status"`
	Description  null.String            `json:"description"`
	Cost         null.Float64           `json:"cost"`
	LaborHours   null.Float64           `json:"labor_hours"`
	Vendor       null.String            `json:"vendor"`
	RejectReason null.String            `json:"reject_reason"`
	Images       []string               `json:"images"`

	types.BaseEntity
}
