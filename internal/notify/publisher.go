// Package notify hands outbound mail to a worker over AMQP. The API never
// talks SMTP itself; it publishes a message describing what to send.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"duobudget/internal/logger"
)

// Message kinds understood by the mail worker.
const (
	KindMagicLink     = "magic_link"
	KindPasswordReset = "password_reset"
)

// MailMessage is the body published for one outbound email.
type MailMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	To        string    `json:"to"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher delivers mail messages to whatever sends them.
type Publisher interface {
	Publish(ctx context.Context, msg *MailMessage) error
	Close() error
}

// AMQPPublisher publishes persistent JSON messages to a direct exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
}

// NewAMQPPublisher dials the broker and declares the exchange, the queue
// and their binding. The queue name doubles as the routing key.
func NewAMQPPublisher(url, exchange, queue string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &AMQPPublisher{conn: conn, channel: channel, exchange: exchange, queue: queue}
	if err := p.setup(); err != nil {
		p.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return p, nil
}

func (p *AMQPPublisher) setup() error {
	if err := p.channel.ExchangeDeclare(p.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := p.channel.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := p.channel.QueueBind(p.queue, p.queue, p.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Publish sends msg, giving up after five seconds.
func (p *AMQPPublisher) Publish(ctx context.Context, msg *MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchange, p.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    msg.ID,
		Type:         msg.Kind,
		Timestamp:    msg.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	logger.Get().Infow("published mail message",
		"id", msg.ID,
		"kind", msg.Kind,
		"exchange", p.exchange,
		"queue", p.queue,
	)
	return nil
}

// Close shuts the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher writes messages to the log instead of a broker. It is used
// when no broker is configured, typically in development.
type LogPublisher struct{}

// Publish logs the message, link included.
func (LogPublisher) Publish(_ context.Context, msg *MailMessage) error {
	logger.Get().Infow("mail not sent, no broker configured",
		"id", msg.ID,
		"kind", msg.Kind,
		"to", msg.To,
		"link", msg.Link,
	)
	return nil
}

// Close is a no-op.
func (LogPublisher) Close() error { return nil }
