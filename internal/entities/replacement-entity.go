package entities

import "time"

// Replacement — историческое событие замены устройства.
// После создания не изменяется.
type Replacement struct {
	ID          uint64    `json:"id"`
	OldDeviceID uint64    `json:"old_device_id"`
	NewDeviceID uint64    `json:"new_device_id"`
	Reason      string    `json:"reason"`
	ReplacedAt  time.Time `json:"replaced_at"`
	CreatedBy   uint64    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
