package constants

// RepairStatus — статус заказа на ремонт.
type RepairStatus string

const (
	RepairPendingExecution RepairStatus = "PENDING_EXECUTION"
	RepairInProgress       RepairStatus = "IN_PROGRESS"
	RepairPendingApproval  RepairStatus = "PENDING_APPROVAL"
	RepairCompleted        RepairStatus = "COMPLETED"
	RepairRejected         RepairStatus = "REJECTED"
	RepairNotNeeded        RepairStatus = "NOT_NEEDED"
)

func (s RepairStatus) String() string { return string(s) }

// IsTerminal — из терминального статуса переходов нет.
func (s RepairStatus) IsTerminal() bool {
	switch s {
	case RepairCompleted, RepairRejected, RepairNotNeeded:
		return true
	}
	return false
}

// IsActive — ремонт в работе; активный ремонт блокирует списание устройства.
func (s RepairStatus) IsActive() bool {
	return s == RepairInProgress || s == RepairPendingApproval
}

// repairTransitions — явная таблица допустимых переходов.
// Любой переход вне таблицы — конфликт состояния.
var repairTransitions = map[RepairStatus]map[RepairStatus]bool{
	RepairPendingExecution: {
		RepairInProgress: true,
		RepairRejected:   true,
		RepairNotNeeded:  true,
	},
	RepairInProgress: {
		RepairPendingApproval: true,
		RepairRejected:        true,
		RepairNotNeeded:       true,
	},
	RepairPendingApproval: {
		RepairCompleted: true,
	},
}

// CanTransitionTo проверяет переход по таблице.
func (s RepairStatus) CanTransitionTo(next RepairStatus) bool {
	allowed, ok := repairTransitions[s]
	if !ok {
		return false
	}
	return allowed[next]
}
