package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/BloggingApp/chirp-service/internal/dto"
	"github.com/BloggingApp/chirp-service/internal/model"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	POST_CREATED_QUEUE = "post-created"
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type MQConn struct {
	conn *amqp.Connection
	mu   sync.Mutex
	ch   channel
	now  func() time.Time
}

func New(connString string) (*MQConn, error) {
	conn, err := amqp.Dial(connString)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(POST_CREATED_QUEUE, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return newMQConn(conn, ch), nil
}

func newMQConn(conn *amqp.Connection, ch channel) *MQConn {
	return &MQConn{
		conn: conn,
		ch:   ch,
		now:  time.Now,
	}
}

func (c *MQConn) Publish(ctx context.Context, queue string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    c.now(),
		Body:         body,
	})
}

func (c *MQConn) PublishPostCreated(ctx context.Context, post *model.Post) error {
	body, err := json.Marshal(dto.NewMQPostCreatedMsg(post))
	if err != nil {
		return err
	}

	return c.Publish(ctx, POST_CREATED_QUEUE, body)
}

func (c *MQConn) Close() error {
	chErr := c.ch.Close()
	if c.conn == nil {
		return chErr
	}
	if chErr != nil {
		c.conn.Close()
		return chErr
	}
	return c.conn.Close()
}
