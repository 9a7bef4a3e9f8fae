package revalidate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Message is the body published for every revalidation signal.
type Message struct {
	Paths []string  `json:"paths"`
	At    time.Time `json:"at"`
}

// Broadcaster publishes revalidation signals to a RabbitMQ fanout exchange so
// that every frontend replica can drop its copy of the affected views. The
// connection is dialled on first use and re-dialled after it closes.
type Broadcaster struct {
	url      string
	exchange string
	log      *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewBroadcaster(url, exchange string, log *zap.Logger) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{url: url, exchange: exchange, log: log.Named("revalidate")}
}

func (b *Broadcaster) Revalidate(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	if err := b.publish(ctx, Message{Paths: paths, At: time.Now().UTC()}); err != nil {
		b.log.Warn("revalidation broadcast failed", zap.Strings("paths", paths), zap.Error(err))
	}
}

func (b *Broadcaster) publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch, err := b.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		b.exchange, // exchange
		"",         // routing key, ignored by fanout
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    msg.At,
			Body:         body,
		},
	)
	if err != nil {
		b.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// channel returns an open channel, dialling when needed. Callers hold b.mu.
func (b *Broadcaster) channel() (*amqp.Channel, error) {
	if b.ch != nil && !b.ch.IsClosed() {
		return b.ch, nil
	}
	b.reset()

	conn, err := amqp.Dial(b.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		b.exchange, // name
		"fanout",   // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", b.exchange, err)
	}
	b.conn, b.ch = conn, ch
	return ch, nil
}

func (b *Broadcaster) reset() {
	if b.ch != nil {
		_ = b.ch.Close()
		b.ch = nil
	}
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
}

// Close releases the broker connection.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
	return nil
}
