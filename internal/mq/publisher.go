package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения.
type MessageType string

const (
	MessageTypeTaskSubmitted MessageType = "task.submitted"
	MessageTypeSkillRequest  MessageType = "skill.request"
)

// Message — конверт всех сообщений.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// TaskSubmittedPayload — API принял task.
type TaskSubmittedPayload struct {
	TaskID uuid.UUID `json:"task_id"`
}

// SkillRequestPayload — вызов skill'а через очередь.
type SkillRequestPayload struct {
	Skill  string `json:"skill"`
	Params any    `json:"params"`
}

// NewMessage собирает конверт с новым ID.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   body,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Decode разбирает payload сообщения.
func Decode[T any](msg *Message) (T, error) {
	var out T
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return out, fmt.Errorf("unmarshal %s payload: %w", msg.Type, err)
	}
	return out, nil
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

// Publish публикует сообщение (persistent).
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(exchange), string(routingKey), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         string(msg.Type),
			Timestamp:    msg.Timestamp,
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishTaskSubmitted сообщает воркеру о новом task.
func (p *Publisher) PublishTaskSubmitted(ctx context.Context, taskID uuid.UUID) error {
	msg, err := NewMessage(MessageTypeTaskSubmitted, TaskSubmittedPayload{TaskID: taskID})
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeTasks, RoutingKeySubmitted, msg)
}

// PublishSkillRequest отправляет параметры skill'у с транспортом queue.
func (p *Publisher) PublishSkillRequest(ctx context.Context, routingKey RoutingKey, payload SkillRequestPayload) error {
	msg, err := NewMessage(MessageTypeSkillRequest, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeSkills, routingKey, msg)
}
