package entities

import (
	"github.com/aarondl/null/v8"

	"asset-system/pkg/types"
)

type User struct {
	ID           uint64      `json:"id"`
	Fio          string      `json:"fio"`
	Login        string      `json:"login"`
	PasswordHash string      `json:"-"`
	Role         string      `json:"role"`
	DepartmentID null.Uint64 `json:"department_id"`

	types.BaseEntity
	types.SoftDelete
}
