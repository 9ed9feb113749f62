package entities

import (
	"github.com/aarondl/null/v8"

	"asset-system/pkg/constants"
	"asset-system/pkg/types"
)

// IncidentReport — заявка о неисправности устройства.
// Инвариант: на одно устройство не более одной открытой заявки
// (статус PENDING или REPAIR_CREATED).
type IncidentReport struct {
	ID           uint64                       `json:"id"`
	DeviceID     uint64                       `json:"device_id"`
	ReporterID   uint64                       `json:"reporter_id"`
	ReportType   constants.IncidentReportType `json:"report_type"`
	Description  string                       `json:"description"`
	Status       constants.IncidentStatus     `json:"status"`
	RejectReason null.String                  `json:"reject_reason"`
	RejectedBy   null.Uint64                  `json:"rejected_by"`
	RejectedAt   null.Time                    `json:"rejected_at"`

	types.BaseEntity
}
