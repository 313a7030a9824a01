package events

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher forwards domain events to a RabbitMQ topic exchange, JSON
// encoded, with the event type as routing key.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewAMQPPublisher connects to RabbitMQ and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Handle publishes the event; it is registered as a dispatcher subscriber.
func (p *AMQPPublisher) Handle(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// RegisterAll subscribes the publisher to every ticket event type.
func (p *AMQPPublisher) RegisterAll(dispatcher Dispatcher) {
	if p == nil || dispatcher == nil {
		return
	}
	for _, eventType := range []EventType{EventTicketCreated, EventTicketAssigned, EventTicketCompleted, EventTicketDeleted} {
		dispatcher.Subscribe(eventType, p.Handle)
	}
}

// Close releases the connection.
func (p *AMQPPublisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
