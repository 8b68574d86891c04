package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Durable queues for domain events. Consumers live outside this service.
const (
	ColaVentaRegistrada = "venta.registrada"
	ColaStockBajo       = "stock.bajo"
)

// Broker publishes JSON domain events to RabbitMQ. The connection is opened
// lazily and dropped on any channel error so the next publish redials.
// Calls go through a circuit breaker.
type Broker struct {
	url string
	cb  *CircuitBreaker

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewBroker(url string, cb *CircuitBreaker) *Broker {
	return &Broker{url: url, cb: cb}
}

// Publicar encodes evento and publishes it to the durable queue cola.
func (b *Broker) Publicar(ctx context.Context, cola string, evento any) error {
	body, err := json.Marshal(evento)
	if err != nil {
		return fmt.Errorf("broker: marshal: %w", err)
	}
	return b.cb.Execute(func() error {
		return b.publish(ctx, cola, body)
	})
}

func (b *Broker) publish(ctx context.Context, cola string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, err := b.channel()
	if err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(cola, true, false, false, false, nil); err != nil {
		b.reset()
		return fmt.Errorf("broker: queue declare %s: %w", cola, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = ch.PublishWithContext(ctx, "", cola, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		b.reset()
		return fmt.Errorf("broker: publish %s: %w", cola, err)
	}
	return nil
}

// must be called under lock
func (b *Broker) channel() (*amqp.Channel, error) {
	if b.ch != nil && !b.ch.IsClosed() {
		return b.ch, nil
	}
	if b.conn == nil || b.conn.IsClosed() {
		conn, err := amqp.Dial(b.url)
		if err != nil {
			return nil, fmt.Errorf("broker: dial: %w", err)
		}
		b.conn = conn
	}
	ch, err := b.conn.Channel()
	if err != nil {
		b.reset()
		return nil, fmt.Errorf("broker: channel: %w", err)
	}
	b.ch = ch
	return ch, nil
}

// must be called under lock
func (b *Broker) reset() {
	if b.ch != nil {
		_ = b.ch.Close()
		b.ch = nil
	}
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
}

// Close releases the connection. Safe to call on an unused broker.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
	log.Info().Msg("broker: conexion cerrada")
}
