package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	ExchangeTasks  Exchange = "loanworker.tasks"
	ExchangeSkills Exchange = "loanworker.skills"
	ExchangeDLQ    Exchange = "loanworker.dlq"
)

const (
	QueueTasksSubmitted Queue = "tasks.submitted"
	QueueEmailsOutbound Queue = "emails.outbound"
	QueueDLQTasks       Queue = "dlq.tasks"
)

const (
	RoutingKeySubmitted     RoutingKey = "submitted"
	RoutingKeyEmailOutbound RoutingKey = "email"
	RoutingKeyDLQTasks      RoutingKey = "tasks"
)

// binding — очередь, её аргументы и привязка к обменнику.
type binding struct {
	queue      Queue
	args       amqp.Table
	exchange   Exchange
	routingKey RoutingKey
}

// topology — полное описание очередей loanworker.
func topology() []binding {
	dlq := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQTasks),
	}
	return []binding{
		// tasks.submitted — с DLQ: сообщение, которое воркер не смог
		// обработать, не должно крутиться в очереди вечно
		{QueueTasksSubmitted, dlq, ExchangeTasks, RoutingKeySubmitted},

		// emails.outbound — потребитель — email skill, вне этого репозитория
		{QueueEmailsOutbound, nil, ExchangeSkills, RoutingKeyEmailOutbound},

		{QueueDLQTasks, nil, ExchangeDLQ, RoutingKeyDLQTasks},
	}
}

// SetupTopology объявляет exchanges и queues и связывает их.
// Идемпотентна: повторное объявление с теми же параметрами — no-op.
func SetupTopology(conn *Connection) error {
	return conn.WithChannel(func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeTasks, ExchangeSkills, ExchangeDLQ} {
			if err := ch.ExchangeDeclare(string(ex), amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		for _, b := range topology() {
			if _, err := ch.QueueDeclare(string(b.queue), true, false, false, false, b.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}
			if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}
		return nil
	})
}
