package skill

import (
	"fmt"
	"time"

	"github.com/shaiso/loanworker/internal/mq"
)

// Транспорты skills.
const (
	TransportHTTP  = "http"
	TransportQueue = "queue"
)

// Definition — описание skill'а в конфигурации.
type Definition struct {
	Name      string `yaml:"name"`
	Transport string `yaml:"transport"` // http (default) или queue

	// HTTP
	URL     string            `yaml:"url,omitempty"`
	Method  string            `yaml:"method,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`

	// Queue
	RoutingKey string `yaml:"routing_key,omitempty"`
}

// Validate проверяет описание.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("skill has empty name")
	}
	switch d.transport() {
	case TransportHTTP:
		if d.URL == "" {
			return fmt.Errorf("skill %q: url is required", d.Name)
		}
	case TransportQueue:
		if d.RoutingKey == "" {
			return fmt.Errorf("skill %q: routing_key is required", d.Name)
		}
	default:
		return fmt.Errorf("%w: skill %q: %s", ErrUnknownTransport, d.Name, d.Transport)
	}
	return nil
}

func (d Definition) transport() string {
	if d.Transport == "" {
		return TransportHTTP
	}
	return d.Transport
}

// BuildRegistry создаёт реестр из описаний.
// publisher нужен только для skills с транспортом queue.
func BuildRegistry(defs []Definition, publisher QueuePublisher) (*Registry, error) {
	r := NewRegistry()
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		switch d.transport() {
		case TransportHTTP:
			r.Register(d.Name, NewHTTPSkill(HTTPConfig{
				Name:    d.Name,
				URL:     d.URL,
				Method:  d.Method,
				Headers: d.Headers,
				Timeout: d.Timeout,
			}))
		case TransportQueue:
			r.Register(d.Name, NewQueueSkill(d.Name, mq.RoutingKey(d.RoutingKey), publisher))
		}
	}
	return r, nil
}
