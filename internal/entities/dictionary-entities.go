package entities

import (
	"github.com/aarondl/null/v8"

	"asset-system/pkg/types"
)

type Department struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`

	types.BaseEntity
	types.SoftDelete
}

type DeviceType struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`

	types.BaseEntity
	types.SoftDelete
}

type Supplier struct {
	ID      uint64      `json:"id"`
	Name    string      `json:"name"`
	Phone   null.String `json:"phone"`
	Address null.String `json:"address"`

	types.BaseEntity
	types.SoftDelete
}
