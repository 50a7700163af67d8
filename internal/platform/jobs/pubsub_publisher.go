package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	domain "github.com/savora/api/internal/domain"
)

// OrderPlacedMessage is the JSON payload published when an order commits.
type OrderPlacedMessage struct {
	OrderID  string    `json:"orderId"`
	OwnerID  string    `json:"ownerId"`
	Total    int64     `json:"total"`
	Currency string    `json:"currency"`
	Lines    int       `json:"lines"`
	PlacedAt time.Time `json:"placedAt"`
}

// PubSubOrderPublisher publishes order lifecycle events to a Pub/Sub topic.
type PubSubOrderPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubOrderPublisher constructs a Pub/Sub backed order event publisher.
func NewPubSubOrderPublisher(topic *pubsub.Topic) (*PubSubOrderPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub order publisher: topic is required")
	}
	return &PubSubOrderPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishOrderPlaced enqueues an order-placed message on the configured topic.
func (p *PubSubOrderPublisher) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub order publisher: not initialised")
	}

	message := OrderPlacedMessage{
		OrderID:  order.ID,
		OwnerID:  order.OwnerID,
		Total:    order.Total,
		Currency: order.Currency,
		Lines:    len(order.Lines),
		PlacedAt: order.PlacedAt,
	}

	data, err := p.marshal(message)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "orderId", order.ID)
	setAttr(attrs, "ownerId", order.OwnerID)
	setAttr(attrs, "status", order.Status)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
