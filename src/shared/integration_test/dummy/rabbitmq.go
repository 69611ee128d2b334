package dummy

import (
	"sync"

	"github.com/rabbitmq/amqp091-go"
)

var _ amqp091.Acknowledger = noopAcknowledger{}

type noopAcknowledger struct{}

func (n noopAcknowledger) Ack(tag uint64, multiple bool) error { return nil }

func (n noopAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error { return nil }

func (n noopAcknowledger) Reject(tag uint64, requeue bool) error { return nil }

func NewRabbitMQ() *RabbitMQ {
	return &RabbitMQ{
		messages: make(chan amqp091.Delivery, 100),
	}
}

// RabbitMQ stands in for a rabbit channel. Published messages come
// right back out of Consume.
type RabbitMQ struct {
	messages  chan amqp091.Delivery
	closeOnce sync.Once
}

func (r *RabbitMQ) Publish(msg amqp091.Publishing) error {
	r.messages <- amqp091.Delivery{
		Acknowledger: noopAcknowledger{},
		Type:         msg.Type,
		Body:         msg.Body,
	}

	return nil
}

func (r *RabbitMQ) Consume(queue string, consumer string, autoAck bool, exclusive bool, noLocal bool, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error) {
	return r.messages, nil
}

func (r *RabbitMQ) Close() error {
	r.closeOnce.Do(func() {
		close(r.messages)
	})

	return nil
}
