package dummy

import (
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/rabbitmq"
)

var _ rabbitmq.Publisher = &Publisher{}

func NewDummyPublisher() *Publisher {
	return &Publisher{
		Unavailable: false,
		Published:   []amqp091.Publishing{},
	}
}

type Publisher struct {
	Unavailable bool
	Published   []amqp091.Publishing
	mutex       sync.Mutex
}

func (p *Publisher) Publish(msg amqp091.Publishing) error {
	if p.Unavailable {
		return NetworkFailure
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.Published = append(p.Published, msg)
	return nil
}
