package listeners

import (
	"context"

	"go.uber.org/zap"

	"labequip-system/internal/events"
	"labequip-system/pkg/eventbus"
)

// AuditListener пишет структурированный журнал действий пользователей.
// Слушатель не имеет права влиять на исходную операцию: любая его ошибка
// остаётся в логах шины.
type AuditListener struct {
	logger *zap.Logger
}

func NewAuditListener(logger *zap.Logger) *AuditListener {
	return &AuditListener{logger: logger}
}

func (l *AuditListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.AuditActionPerformed, l.handleAuditEvent)
}

func (l *AuditListener) handleAuditEvent(ctx context.Context, event eventbus.Event) error {
	auditEvent, ok := event.(events.AuditEvent)
	if !ok {
		l.logger.Warn("Получено событие неожиданного типа", zap.String("event", event.Name()))
		return nil
	}

	l.logger.Info("Аудит действия",
		zap.String("audit_id", auditEvent.ID.String()),
		zap.String("action", auditEvent.Action),
		zap.Uint64("actor_id", auditEvent.ActorID),
		zap.String("entity", auditEvent.Entity),
		zap.Uint64("entity_id", auditEvent.EntityID),
		zap.Any("details", auditEvent.Details),
	)
	return nil
}
