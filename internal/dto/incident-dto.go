package dto

type CreateIncidentDTO struct {
	DeviceID    uint64 `json:"device_id" validate:"required,gt=0"`
	ReportType  string `json:"report_type" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type RejectIncidentDTO struct {
	Reason string `json:"reason" validate:"required"`
}

type IncidentDTO struct {
	ID           uint64         `json:"id"`
	Device       ShortDeviceDTO `json:"device"`
	Reporter     ShortUserDTO   `json:"reporter"`
	ReportType   string         `json:"report_type"`
	Description  string         `json:"description"`
	Status       string         `json:"status"`
	RejectReason string         `json:"reject_reason,omitempty"`
	CreatedAt    string         `json:"created_at"`
}
