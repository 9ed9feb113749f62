package dto

type CreateAssignmentDTO struct {
	DeviceID           uint64  `json:"device_id" validate:"required,gt=0"`
	HolderUserID       *uint64 `json:"holder_user_id" validate:"omitempty,gt=0"`
	HolderDepartmentID *uint64 `json:"holder_department_id" validate:"omitempty,gt=0"`
}

type TransferAssignmentDTO struct {
	AssignmentID       uint64  `json:"assignment_id" validate:"required,gt=0"`
	HolderUserID       *uint64 `json:"holder_user_id" validate:"omitempty,gt=0"`
	HolderDepartmentID *uint64 `json:"holder_department_id" validate:"omitempty,gt=0"`
}

type AssignmentDTO struct {
	ID         uint64              `json:"id"`
	Device     ShortDeviceDTO      `json:"device"`
	Holder     *ShortUserDTO       `json:"holder,omitempty"`
	HolderDept *ShortDepartmentDTO `json:"holder_department,omitempty"`
	AssignedBy ShortUserDTO        `json:"assigned_by"`
	AssignedAt string              `json:"assigned_at"`
	ReturnedAt string              `json:"returned_at,omitempty"`
}
