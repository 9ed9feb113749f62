package dto

type CreateReplacementDTO struct {
	OldDeviceID uint64  `json:"old_device_id" validate:"required,gt=0"`
	NewDeviceID uint64  `json:"new_device_id" validate:"required,gt=0,nefield=OldDeviceID"`
	Reason      string  `json:"reason" validate:"required"`
	IncidentID  *uint64 `json:"incident_id" validate:"omitempty,gt=0"`
}

type ReplacementDTO struct {
	ID         uint64         `json:"id"`
	OldDevice  ShortDeviceDTO `json:"old_device"`
	NewDevice  ShortDeviceDTO `json:"new_device"`
	Reason     string         `json:"reason"`
	ReplacedAt string         `json:"replaced_at"`
	CreatedBy  ShortUserDTO   `json:"created_by"`
}
