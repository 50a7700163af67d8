package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	domain "github.com/savora/api/internal/domain"
)

func TestPubSubOrderPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubOrderPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubOrderPublisher: %v", err)
	}

	placedAt := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	order := domain.Order{
		ID:       "01JPZX2N9GQW4R8T",
		OwnerID:  "user-1",
		Lines:    []domain.OrderLine{{ItemID: "item-1", Quantity: 2, UnitPrice: 950}},
		Total:    1900,
		Currency: "USD",
		Status:   domain.OrderStatusPlaced,
		PlacedAt: placedAt,
	}

	if err := publisher.PublishOrderPlaced(ctx, order); err != nil {
		t.Fatalf("PublishOrderPlaced: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload OrderPlacedMessage
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != order.ID || payload.Total != order.Total {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if payload.Lines != 1 {
		t.Fatalf("expected 1 line, got %d", payload.Lines)
	}
	if attr := messages[0].Attributes["status"]; attr != domain.OrderStatusPlaced {
		t.Fatalf("expected status attribute, got %q", attr)
	}
}

func TestNewPubSubOrderPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubOrderPublisher(nil); err == nil {
		t.Fatal("expected error for nil topic")
	}
}
