package constants

// Коды ролей. Совпадают с кодами в таблице users.
const (
	RoleAdmin      = "ADMIN"
	RoleEmployee   = "EMPLOYEE"
	RoleTechnician = "TECHNICIAN"
)

//============== ДЕЙСТВИЯ В ИСТОРИИ УСТРОЙСТВА ==============

// Метки действий для записей в device_history.
const (
	HistoryActionAssigned         = "ASSIGNED"
	HistoryActionReturned         = "RETURNED"
	HistoryActionTransferred      = "TRANSFERRED"
	HistoryActionIncidentReported = "INCIDENT_REPORTED"
	HistoryActionIncidentApproved = "INCIDENT_APPROVED"
	HistoryActionIncidentRejected = "INCIDENT_REJECTED"
	HistoryActionRepairAssigned   = "REPAIR_ASSIGNED"
	HistoryActionRepairAccepted   = "REPAIR_ACCEPTED"
	HistoryActionRepairCompleted  = "REPAIR_COMPLETED"
	HistoryActionRepairConfirmed  = "REPAIR_CONFIRMED"
	HistoryActionRepairRejected   = "REPAIR_REJECTED"
	HistoryActionRepairNotNeeded  = "REPAIR_NOT_NEEDED"
	HistoryActionReplacedBy       = "REPLACED_BY"
	HistoryActionReplacementFor   = "REPLACEMENT_FOR"
	HistoryActionLiquidated       = "LIQUIDATED"
)

//============== КЛЮЧИ КЕША ==============

// Префиксы для ключей в Redis.
const (
	// Кеш роли пользователя. Формат: user_role:<userID> -> код роли
	CacheKeyUserRole = "user_role:%d"
)
