package constants

// DeviceStatus — статус жизненного цикла устройства.
// Статус меняется только внутри операций рабочих процессов, каждая из которых
// сверяет текущий статус с ожидаемым перед записью нового.
type DeviceStatus string

const (
	DeviceAvailable          DeviceStatus = "AVAILABLE"
	DeviceInUse              DeviceStatus = "IN_USE"
	DeviceRepairing          DeviceStatus = "REPAIRING"
	DeviceMaintenance        DeviceStatus = "MAINTENANCE"
	DeviceLost               DeviceStatus = "LOST"
	DeviceBroken             DeviceStatus = "BROKEN"
	DevicePendingLiquidation DeviceStatus = "PENDING_LIQUIDATION"
	DeviceLiquidated         DeviceStatus = "LIQUIDATED"
	DeviceReplaced           DeviceStatus = "REPLACED"
)

func (s DeviceStatus) String() string { return string(s) }

// IsValid проверяет, что строка из БД/запроса — известный статус.
func (s DeviceStatus) IsValid() bool {
	switch s {
	case DeviceAvailable, DeviceInUse, DeviceRepairing, DeviceMaintenance,
		DeviceLost, DeviceBroken, DevicePendingLiquidation, DeviceLiquidated, DeviceReplaced:
		return true
	}
	return false
}

// replaceableStatuses — статусы, из которых старое устройство допускает замену.
var replaceableStatuses = map[DeviceStatus]bool{
	DeviceInUse:              true,
	DeviceRepairing:          true,
	DevicePendingLiquidation: true,
}

func (s DeviceStatus) CanBeReplaced() bool { return replaceableStatuses[s] }

// repairableStatuses — статусы, из которых устройство можно отправить в ремонт.
// Списанные, замененные и утерянные устройства в ремонт не принимаются,
// как и уже ремонтируемые.
var repairableStatuses = map[DeviceStatus]bool{
	DeviceAvailable:   true,
	DeviceInUse:       true,
	DeviceMaintenance: true,
	DeviceBroken:      true,
}

func (s DeviceStatus) CanBeRepaired() bool { return repairableStatuses[s] }

// liquidatableStatuses — статусы, дающие право на списание без прочих условий.
var liquidatableStatuses = map[DeviceStatus]bool{
	DevicePendingLiquidation: true,
	DeviceBroken:             true,
	DeviceLost:               true,
}

func (s DeviceStatus) IsLiquidatable() bool { return liquidatableStatuses[s] }
