package services

import (
	"context"

	"go.uber.org/zap"
)

// NotificationServiceInterface — приемник уведомлений о событиях жизненного
// цикла. Вызывается строго после коммита; ошибка доставки логируется
// слушателем и никогда не влияет на завершенную операцию.
type NotificationServiceInterface interface {
	NotifyAssignment(ctx context.Context, deviceID, holderID uint64, message string) error
	NotifyIncident(ctx context.Context, incidentID uint64, message string) error
	NotifyRepair(ctx context.Context, repairID uint64, message string) error
	NotifyLiquidation(ctx context.Context, deviceID uint64, message string) error
}

// logNotificationService пишет уведомления в лог вместо реальной доставки.
// Интеграция с почтой/мессенджером подключается заменой этой реализации.
type logNotificationService struct {
	logger *zap.Logger
}

func NewLogNotificationService(logger *zap.Logger) NotificationServiceInterface {
	return &logNotificationService{logger: logger}
}

func (s *logNotificationService) NotifyAssignment(ctx context.Context, deviceID, holderID uint64, message string) error {
	s.logger.Info("уведомление о выдаче",
		zap.Uint64("deviceID", deviceID),
		zap.Uint64("holderID", holderID),
		zap.String("message", message),
	)
	return nil
}

func (s *logNotificationService) NotifyIncident(ctx context.Context, incidentID uint64, message string) error {
	s.logger.Info("уведомление о заявке",
		zap.Uint64("incidentID", incidentID),
		zap.String("message", message),
	)
	return nil
}

func (s *logNotificationService) NotifyRepair(ctx context.Context, repairID uint64, message string) error {
	s.logger.Info("уведомление о ремонте",
		zap.Uint64("repairID", repairID),
		zap.String("message", message),
	)
	return nil
}

func (s *logNotificationService) NotifyLiquidation(ctx context.Context, deviceID uint64, message string) error {
	s.logger.Info("уведомление о списании",
		zap.Uint64("deviceID", deviceID),
		zap.String("message", message),
	)
	return nil
}
