package entities

import "time"

// DeviceHistory — запись аудита. Только добавление, записи не изменяются
// и не удаляются. Пишется в той же транзакции, что и само изменение состояния.
type DeviceHistory struct {
	ID          uint64    `json:"id"`
	DeviceID    uint64    `json:"device_id"`
	Action      string    `json:"action"`
	ActorID     uint64    `json:"actor_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
