package dto

type CreateRepairDTO struct {
	DeviceID     uint64  `json:"device_id" validate:"required,gt=0"`
	TechnicianID *uint64 `json:"technician_id" validate:"omitempty,gt=0"`
	Description  string  `json:"description" validate:"omitempty"`
}

type AssignTechnicianDTO struct {
	TechnicianID uint64 `json:"technician_id" validate:"required,gt=0"`
}

type CompleteRepairDTO struct {
	Description string   `json:"description" validate:"required"`
	Cost        float64  `json:"cost" validate:"required,gte=0"`
	LaborHours  *float64 `json:"labor_hours" validate:"omitempty,gte=0"`
	Vendor      string   `json:"vendor" validate:"omitempty"`
	Images      []string `json:"images" validate:"omitempty,dive,required"`
}

type RejectRepairDTO struct {
	Reason string `json:"reason" validate:"required"`
}

type NotNeededRepairDTO struct {
	Note string `json:"note" validate:"required"`
}

type RepairOrderDTO struct {
	ID           uint64         `json:"id"`
	Device       ShortDeviceDTO `json:"device"`
	IncidentID   *uint64        `json:"incident_id,omitempty"`
	Technician   *ShortUserDTO  `json:"technician,omitempty"`
	Status       string         `json:"status"`
	Description  string         `json:"description,omitempty"`
	Cost         *float64       `json:"cost,omitempty"`
	LaborHours   *float64       `json:"labor_hours,omitempty"`
	Vendor       string         `json:"vendor,omitempty"`
	RejectReason string         `json:"reject_reason,omitempty"`
	Images       []string       `json:"images"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}
