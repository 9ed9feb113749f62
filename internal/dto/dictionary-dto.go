package dto

type CreateDepartmentDTO struct {
	Name string `json:"name" validate:"required"`
}

type UpdateDepartmentDTO struct {
	Name *string `json:"name,omitempty" validate:"omitempty"`
}

type CreateDeviceTypeDTO struct {
	Name string `json:"name" validate:"required"`
}

type UpdateDeviceTypeDTO struct {
	Name *string `json:"name,omitempty" validate:"omitempty"`
}

type CreateSupplierDTO struct {
	Name    string  `json:"name" validate:"required"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty"`
	Address *string `json:"address,omitempty" validate:"omitempty"`
}

type UpdateSupplierDTO struct {
	Name    *string `json:"name,omitempty" validate:"omitempty"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty"`
	Address *string `json:"address,omitempty" validate:"omitempty"`
}

type SupplierDTO struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at"`
}
