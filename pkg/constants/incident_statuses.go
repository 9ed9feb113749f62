package constants

// IncidentStatus — статус заявки о неисправности.
type IncidentStatus string

const (
	IncidentPending       IncidentStatus = "PENDING"
	IncidentRepairCreated IncidentStatus = "REPAIR_CREATED"
	IncidentRejected      IncidentStatus = "REJECTED"
	IncidentClosed        IncidentStatus = "CLOSED"
)

func (s IncidentStatus) String() string { return string(s) }

// IsOpen: по каждой единице техники может существовать не более одной
// открытой заявки (PENDING или REPAIR_CREATED).
func (s IncidentStatus) IsOpen() bool {
	return s == IncidentPending || s == IncidentRepairCreated
}

// IncidentReportType — тип заявленной проблемы.
type IncidentReportType string

const (
	IncidentTypeHardwareFailure IncidentReportType = "HARDWARE_FAILURE"
	IncidentTypeSoftwareFailure IncidentReportType = "SOFTWARE_FAILURE"
	IncidentTypeDeviceLoss      IncidentReportType = "DEVICE_LOSS"
	IncidentTypeDamage          IncidentReportType = "DAMAGE"
	IncidentTypeOther           IncidentReportType = "OTHER"
)

func (t IncidentReportType) IsValid() bool {
	switch t {
	case IncidentTypeHardwareFailure, IncidentTypeSoftwareFailure,
		IncidentTypeDeviceLoss, IncidentTypeDamage, IncidentTypeOther:
		return true
	}
	return false
}

// TriggersLiquidation — типы проблем, дающие устройству право на списание
// при наличии открытой заявки.
func (t IncidentReportType) TriggersLiquidation() bool {
	return t == IncidentTypeDeviceLoss || t == IncidentTypeHardwareFailure
}
