package events

// Имена событий для подписки в шине.
const (
	AssignmentCreatedEventName     = "assignment.created"
	AssignmentRevokedEventName     = "assignment.revoked"
	AssignmentTransferredEventName = "assignment.transferred"
	IncidentCreatedEventName       = "incident.created"
	IncidentApprovedEventName      = "incident.approved"
	IncidentRejectedEventName      = "incident.rejected"
	RepairStatusChangedEventName   = "repair.status_changed"
	ReplacementCreatedEventName    = "replacement.created"
	DeviceLiquidatedEventName      = "device.liquidated"
)

// События публикуются строго после коммита транзакции рабочего процесса.
// Они несут только идентификаторы: подписчик сам дочитывает то, что ему нужно.

type AssignmentCreatedEvent struct {
	AssignmentID uint64
	DeviceID     uint64
	ActorID      uint64
}

func (e AssignmentCreatedEvent) Name() string { return AssignmentCreatedEventName }

type AssignmentRevokedEvent struct {
	AssignmentID uint64
	DeviceID     uint64
	ActorID      uint64
}

func (e AssignmentRevokedEvent) Name() string { return AssignmentRevokedEventName }

type AssignmentTransferredEvent struct {
	OldAssignmentID uint64
	NewAssignmentID uint64
	DeviceID        uint64
	ActorID         uint64
}

func (e AssignmentTransferredEvent) Name() string { return AssignmentTransferredEventName }

type IncidentCreatedEvent struct {
	IncidentID uint64
	DeviceID   uint64
	ReporterID uint64
}

func (e IncidentCreatedEvent) Name() string { return IncidentCreatedEventName }

type IncidentApprovedEvent struct {
	IncidentID uint64
	RepairID   uint64
	DeviceID   uint64
	ActorID    uint64
}

func (e IncidentApprovedEvent) Name() string { return IncidentApprovedEventName }

type IncidentRejectedEvent struct {
	IncidentID uint64
	DeviceID   uint64
	ActorID    uint64
}

func (e IncidentRejectedEvent) Name() string { return IncidentRejectedEventName }

type RepairStatusChangedEvent struct {
	RepairID  uint64
	DeviceID  uint64
	NewStatus string
	ActorID   uint64
}

func (e RepairStatusChangedEvent) Name() string { return RepairStatusChangedEventName }

type ReplacementCreatedEvent struct {
	ReplacementID uint64
	OldDeviceID   uint64
	NewDeviceID   uint64
	ActorID       uint64
}

func (e ReplacementCreatedEvent) Name() string { return ReplacementCreatedEventName }

type DeviceLiquidatedEvent struct {
	LiquidationID uint64
	DeviceID      uint64
	ActorID       uint64
}

func (e DeviceLiquidatedEvent) Name() string { return DeviceLiquidatedEventName }
