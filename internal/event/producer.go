package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics for storefront events.
var (
	TopicWishlistToggled = pkgkafka.Topic("wishlist", "toggled")
	TopicSessionChanged  = pkgkafka.Topic("session", "changed")
)

// Aggregate type constants.
const (
	AggregateTypeWishlist = "wishlist"
	AggregateTypeSession  = "session"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// Wishlist toggle actions.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// Session change actions.
const (
	ActionSignedIn  = "signed_in"
	ActionSignedOut = "signed_out"
)

// WishlistToggledData is the payload for a wishlist.toggled event.
type WishlistToggledData struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	ProductID string `json:"product_id"`
	Action    string `json:"action"`
}

// SessionChangedData is the payload for a session.changed event.
type SessionChangedData struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Action    string `json:"action"`
}

type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer. *pkgkafka.Producer satisfies kafka.
func NewProducer(kafka publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishWishlistToggled publishes a wishlist.toggled event keyed by the
// shopper (user id when known, session id otherwise).
func (p *Producer) PublishWishlistToggled(ctx context.Context, data WishlistToggledData) error {
	return p.publish(ctx, TopicWishlistToggled, aggregateID(data.UserID, data.SessionID), AggregateTypeWishlist, data)
}

// PublishSessionChanged publishes a session.changed event.
func (p *Producer) PublishSessionChanged(ctx context.Context, data SessionChangedData) error {
	return p.publish(ctx, TopicSessionChanged, aggregateID(data.UserID, data.SessionID), AggregateTypeSession, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregate, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregate, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregate),
	)
	return nil
}

func aggregateID(userID, sessionID string) string {
	if userID != "" {
		return userID
	}
	return sessionID
}

// Noop discards events. It is used when Kafka is disabled.
type Noop struct{}

func (Noop) PublishWishlistToggled(context.Context, WishlistToggledData) error { return nil }

func (Noop) PublishSessionChanged(context.Context, SessionChangedData) error { return nil }
