package mq

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewMessage_Decode(t *testing.T) {
	id := uuid.New()

	msg, err := NewMessage(MessageTypeTaskSubmitted, TaskSubmittedPayload{TaskID: id})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Errorf("envelope not filled: %+v", msg)
	}
	if msg.Type != MessageTypeTaskSubmitted {
		t.Errorf("type = %s", msg.Type)
	}

	payload, err := Decode[TaskSubmittedPayload](msg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.TaskID != id {
		t.Errorf("task_id = %s, want %s", payload.TaskID, id)
	}
}

func TestDecode_Invalid(t *testing.T) {
	msg := &Message{Type: MessageTypeTaskSubmitted, Payload: []byte(`{"task_id": 42}`)}

	if _, err := Decode[TaskSubmittedPayload](msg); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestTopology(t *testing.T) {
	bindings := topology()

	queues := make(map[Queue]binding, len(bindings))
	for _, b := range bindings {
		queues[b.queue] = b
	}

	submitted, ok := queues[QueueTasksSubmitted]
	if !ok {
		t.Fatal("tasks.submitted is not declared")
	}
	if submitted.exchange != ExchangeTasks || submitted.routingKey != RoutingKeySubmitted {
		t.Errorf("tasks.submitted bound to %s/%s", submitted.exchange, submitted.routingKey)
	}
	if submitted.args["x-dead-letter-exchange"] != string(ExchangeDLQ) {
		t.Errorf("tasks.submitted has no dead-letter exchange: %v", submitted.args)
	}

	email, ok := queues[QueueEmailsOutbound]
	if !ok {
		t.Fatal("emails.outbound is not declared")
	}
	if email.exchange != ExchangeSkills || email.routingKey != RoutingKeyEmailOutbound {
		t.Errorf("emails.outbound bound to %s/%s", email.exchange, email.routingKey)
	}

	if _, ok := queues[QueueDLQTasks]; !ok {
		t.Error("dlq.tasks is not declared")
	}
}
