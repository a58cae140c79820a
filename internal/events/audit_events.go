package events

import "github.com/google/uuid"

const AuditActionPerformed = "audit.action_performed"

// AuditEvent — уведомление "пользователь X выполнил действие Y над Z".
// Публикуется после успешного завершения операции; доставка
// fire-and-forget, сбой слушателя не влияет на исходную операцию.
type AuditEvent struct {
	ID       uuid.UUID
	Action   string
	ActorID  uint64
	Entity   string
	EntityID uint64
	Details  map[string]interface{}
}

func (e AuditEvent) Name() string { return AuditActionPerformed }

func NewAuditEvent(action string, actorID uint64, entity string, entityID uint64, details map[string]interface{}) AuditEvent {
	return AuditEvent{
		ID:       uuid.New(),
		Action:   action,
		ActorID:  actorID,
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
	}
}
