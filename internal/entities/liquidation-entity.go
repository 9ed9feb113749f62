package entities

import "time"

// Liquidation — списание устройства. Терминальное событие, не изменяется.
type Liquidation struct {
	ID           uint64    `json:"id"`
	DeviceID     uint64    `json:"device_id"`
	Reason       string    `json:"reason"`
	LiquidatedAt time.Time `json:"liquidated_at"`
	ApprovedBy   uint64    `json:"approved_by"`
	CreatedAt    time.Time `json:"created_at"`
}
