package skill

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shaiso/loanworker/internal/mq"
)

// QueuePublisher публикует запрос к skill'у в очередь.
type QueuePublisher interface {
	PublishSkillRequest(ctx context.Context, routingKey mq.RoutingKey, payload mq.SkillRequestPayload) error
}

// QueueSkill — skill, которому параметры доставляются через RabbitMQ.
//
// Ответа нет: Execute завершается, как только брокер принял сообщение,
// и возвращает {"queued":true}. Подходит для email skill.
type QueueSkill struct {
	name       string
	routingKey mq.RoutingKey
	publisher  QueuePublisher
}

// NewQueueSkill создаёт QueueSkill.
func NewQueueSkill(name string, routingKey mq.RoutingKey, publisher QueuePublisher) *QueueSkill {
	return &QueueSkill{
		name:       name,
		routingKey: routingKey,
		publisher:  publisher,
	}
}

// Execute публикует параметры в очередь.
func (s *QueueSkill) Execute(ctx context.Context, params any) (json.RawMessage, error) {
	if s.publisher == nil {
		return nil, fmt.Errorf("%w: %s: publisher not available", ErrSkillCall, s.name)
	}

	payload := mq.SkillRequestPayload{
		Skill:  s.name,
		Params: params,
	}
	if err := s.publisher.PublishSkillRequest(ctx, s.routingKey, payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSkillCall, s.name, err)
	}
	return json.RawMessage(`{"queued":true}`), nil
}
