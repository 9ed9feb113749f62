package dto

type LiquidateOneDTO struct {
	DeviceID uint64 `json:"device_id" validate:"required,gt=0"`
	Reason   string `json:"reason" validate:"required"`
	Date     string `json:"date" validate:"omitempty,not_future"`
}

type LiquidateBatchDTO struct {
	DeviceIDs []uint64 `json:"device_ids" validate:"required,min=1,dive,gt=0"`
	Reason    string   `json:"reason" validate:"required"`
	Date      string   `json:"date" validate:"omitempty,not_future"`
}

type LiquidationDTO struct {
	ID           uint64         `json:"id"`
	Device       ShortDeviceDTO `json:"device"`
	Reason       string         `json:"reason"`
	LiquidatedAt string         `json:"liquidated_at"`
	ApprovedBy   ShortUserDTO   `json:"approved_by"`
}

// EligibleDeviceDTO — кандидат на списание с указанием причины пригодности.
type EligibleDeviceDTO struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	Status       string `json:"status"`
	Reason       string `json:"reason"`
}
