package dto

type ShortUserDTO struct {
	ID  uint64 `json:"id"`
	Fio string `json:"fio"`
}

type ShortDepartmentDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type ShortDeviceTypeDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type ShortSupplierDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type DeviceHistoryDTO struct {
	ID          uint64       `json:"id"`
	DeviceID    uint64       `json:"device_id"`
	Action      string       `json:"action"`
	Actor       ShortUserDTO `json:"actor"`
	Description string       `json:"description"`
	CreatedAt   string       `json:"created_at"`
}
