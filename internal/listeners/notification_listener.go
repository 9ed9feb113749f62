package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"asset-system/internal/events"
	"asset-system/internal/services"
	"asset-system/pkg/eventbus"
)

// NotificationListener переводит события рабочих процессов в уведомления.
// Работает после коммита, в отдельных горутинах шины; любая ошибка здесь
// не влияет на уже завершенную операцию.
type NotificationListener struct {
	notificationService services.NotificationServiceInterface
	logger              *zap.Logger
}

func NewNotificationListener(
	notificationService services.NotificationServiceInterface,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		notificationService: notificationService,
		logger:              logger,
	}
}

// Register подписывает слушателя на все события жизненного цикла.
func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.AssignmentCreatedEventName, l.onAssignmentCreated)
	bus.Subscribe(events.AssignmentRevokedEventName, l.onAssignmentRevoked)
	bus.Subscribe(events.AssignmentTransferredEventName, l.onAssignmentTransferred)
	bus.Subscribe(events.IncidentCreatedEventName, l.onIncidentCreated)
	bus.Subscribe(events.IncidentApprovedEventName, l.onIncidentApproved)
	bus.Subscribe(events.IncidentRejectedEventName, l.onIncidentRejected)
	bus.Subscribe(events.RepairStatusChangedEventName, l.onRepairStatusChanged)
	bus.Subscribe(events.ReplacementCreatedEventName, l.onReplacementCreated)
	bus.Subscribe(events.DeviceLiquidatedEventName, l.onDeviceLiquidated)
}

func (l *NotificationListener) onAssignmentCreated(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.AssignmentCreatedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	return l.notificationService.NotifyAssignment(ctx, e.DeviceID, e.ActorID,
		fmt.Sprintf("устройство #%d выдано (выдача #%d)", e.DeviceID, e.AssignmentID))
}

func (l *NotificationListener) onAssignmentRevoked(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.AssignmentRevokedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	return l.notificationService.NotifyAssignment(ctx, e.DeviceID, e.ActorID,
		fmt.Sprintf("устройство #%d возвращено (выдача #%d)", e.DeviceID, e.AssignmentID))
}

func (l *NotificationListener) onAssignmentTransferred(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.AssignmentTransferredEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	return l.notificationService.NotifyAssignment(ctx, e.DeviceID, e.ActorID,
		fmt.Sprintf("устройство #%d передано новому держателю (выдача #%d)", e.DeviceID, e.NewAssignmentID))
}

func (l *NotificationListener) onIncidentCreated(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.IncidentCreatedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	return l.notificationService.NotifyIncident(ctx, e.IncidentID,
		fmt.Sprintf("новая заявка о неисправности по устройству #%d", e.DeviceID))
}

func (l *NotificationListener) onIncidentApproved(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.IncidentApprovedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	return l.notificationService.NotifyIncident(ctx, e.IncidentID,
		fmt.Sprintf("заявка одобрена, создан заказ на ремонт #%d", e.RepairID))
}

func (l *NotificationListener) onIncidentRejected(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.IncidentRejectedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	return l.notificationService.NotifyIncident(ctx, e.IncidentID, "заявка отклонена")
}

func (l *NotificationListener) onRepairStatusChanged(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.RepairStatusChangedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	return l.notificationService.NotifyRepair(ctx, e.RepairID,
		fmt.Sprintf("заказ на ремонт #%d: %s", e.RepairID, e.NewStatus))
}

func (l *NotificationListener) onReplacementCreated(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.ReplacementCreatedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	return l.notificationService.NotifyAssignment(ctx, e.NewDeviceID, e.ActorID,
		fmt.Sprintf("устройство #%d заменено устройством #%d", e.OldDeviceID, e.NewDeviceID))
}

func (l *NotificationListener) onDeviceLiquidated(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.DeviceLiquidatedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	return l.notificationService.NotifyLiquidation(ctx, e.DeviceID,
		fmt.Sprintf("устройство #%d списано (акт #%d)", e.DeviceID, e.LiquidationID))
}
