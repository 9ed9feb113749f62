package dto

type CreateDeviceDTO struct {
	Name          string   `json:"name" validate:"required"`
	SerialNumber  string   `json:"serial_number" validate:"required,serial_number"`
	DeviceTypeID  *uint64  `json:"device_type_id" validate:"omitempty,gt=0"`
	SupplierID    *uint64  `json:"supplier_id" validate:"omitempty,gt=0"`
	PurchaseDate  string   `json:"purchase_date" validate:"omitempty,not_future"`
	PurchasePrice *float64 `json:"purchase_price" validate:"omitempty,gte=0"`
}

type UpdateDeviceDTO struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty"`
	SerialNumber  *string  `json:"serial_number,omitempty" validate:"omitempty,serial_number"`
	DeviceTypeID  *uint64  `json:"device_type_id,omitempty" validate:"omitempty,gt=0"`
	SupplierID    *uint64  `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
	PurchaseDate  *string  `json:"purchase_date,omitempty" validate:"omitempty,not_future"`
	PurchasePrice *float64 `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
}

type DeviceDTO struct {
	ID            uint64              `json:"id"`
	Name          string              `json:"name"`
	SerialNumber  string              `json:"serial_number"`
	Status        string              `json:"status"`
	DeviceType    *ShortDeviceTypeDTO `json:"device_type,omitempty"`
	Supplier      *ShortSupplierDTO   `json:"supplier,omitempty"`
	Holder        *ShortUserDTO       `json:"holder,omitempty"`
	HolderDept    *ShortDepartmentDTO `json:"holder_department,omitempty"`
	PurchaseDate  string              `json:"purchase_date,omitempty"`
	PurchasePrice *float64            `json:"purchase_price,omitempty"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

type ShortDeviceDTO struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	Status       string `json:"status"`
}
