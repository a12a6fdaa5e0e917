package natsmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BloggingApp/chirp-service/internal/dto"
	"github.com/BloggingApp/chirp-service/internal/model"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	PostCreatedSubject = "post.created"
)

// msgPublisher is the subset of *nats.Conn the publisher uses.
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

type Publisher struct {
	nc msgPublisher
}

func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

func (p *Publisher) PublishPostCreated(ctx context.Context, post *model.Post) error {
	data, err := json.Marshal(dto.NewMQPostCreatedMsg(post))
	if err != nil {
		return fmt.Errorf("marshal post created event: %w", err)
	}

	msg := &nats.Msg{
		Subject: PostCreatedSubject,
		Data:    data,
		Header:  nats.Header{},
	}
	// consumers continue the request's trace from these headers
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	return p.nc.PublishMsg(msg)
}
