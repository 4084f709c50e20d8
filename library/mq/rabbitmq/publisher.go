package rabbitmq

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

var ErrPublisherClosed = errors.New("rabbitmq: publisher closed")

// Publisher sends persistent JSON messages over one channel. It is safe for concurrent use.
type Publisher struct {
	pubOpts PublisherOptions
	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
}

func NewPublisher(opts Options, pubOpts PublisherOptions) (*Publisher, error) {
	conn, err := amqp.Dial(opts.BuildURL())
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if pubOpts.Exchange != "" {
		if err := ch.ExchangeDeclare(
			pubOpts.Exchange,
			pubOpts.ExchangeType,
			true, false, false, false, nil,
		); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &Publisher{
		conn:    conn,
		ch:      ch,
		pubOpts: pubOpts,
	}, nil
}

// Publish sends body under routingKey, or the configured key when routingKey is empty.
func (p *Publisher) Publish(routingKey string, body []byte) error {
	if routingKey == "" {
		routingKey = p.pubOpts.RoutingKey
	}

	// amqp.Channel 不支持并发发布
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return ErrPublisherClosed
	}
	return p.ch.Publish(
		p.pubOpts.Exchange,
		routingKey,
		p.pubOpts.Mandatory,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

func (p *Publisher) PublishJSON(routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(routingKey, body)
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
