package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает сообщение.
// nil — ack; ошибка — nack с requeue; ErrReject — nack без requeue (в DLQ).
type Handler func(ctx context.Context, msg *Message) error

// ErrReject — сообщение не обработать никогда, отправить в DLQ.
var ErrReject = errors.New("reject message")

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	Queue    Queue
	Handler  Handler
	Prefetch int // default: 1
}

// Consumer читает очередь и передаёт сообщения обработчику.
// Переподписывается после reconnect.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Run потребляет сообщения, пока ctx не отменён.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer started")
			c.drain(ctx, deliveries)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("deliveries stopped, waiting for reconnect")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
		}
	}
}

// subscribe выставляет prefetch и начинает consume с ручным ack.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(string(c.queue), "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

// drain обрабатывает доставки до закрытия канала или отмены ctx.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			c.handle(ctx, d)
		}
	}
}

// handle разбирает конверт, вызывает обработчик и подтверждает доставку.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.logger.Error("malformed message, sending to DLQ", "error", err)
		d.Nack(false, false)
		return
	}

	err := c.handler(ctx, &msg)
	switch {
	case err == nil:
		d.Ack(false)
	case errors.Is(err, ErrReject):
		c.logger.Warn("message rejected", "message_id", msg.ID, "type", msg.Type, "error", err)
		d.Nack(false, false)
	default:
		c.logger.Error("handler failed", "message_id", msg.ID, "type", msg.Type, "error", err)
		// redelivered — уже была попытка; второй провал уводит в DLQ
		d.Nack(false, !d.Redelivered)
	}
}
