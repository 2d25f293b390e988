package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

// StreamName is the JetStream stream every catalog event lands in
const StreamName = "CATALOG_EVENTS"

// Catalog event types. The event type doubles as the NATS subject.
const (
	CategoryCreated = "category.created"
	CategoryUpdated = "category.updated"
	CategoryDeleted = "category.deleted"

	AttributeCreated = "attribute.created"
	AttributeUpdated = "attribute.updated"
	AttributeDeleted = "attribute.deleted"

	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"

	VariantCreated      = "variant.created"
	VariantUpdated      = "variant.updated"
	VariantDeleted      = "variant.deleted"
	VariantPriceChanged = "variant.price_changed"

	BatchRecorded = "inventory.batch_recorded"
	BatchUpdated  = "inventory.batch_updated"
	BatchDeleted  = "inventory.batch_deleted"
)

var streamSubjects = []string{"category.>", "attribute.>", "product.>", "variant.>", "inventory.>"}

// CatalogEvent represents a catalog change
type CatalogEvent struct {
	EventType  string                 `json:"eventType"`
	TenantID   string                 `json:"tenantId"`
	SourceID   string                 `json:"sourceId"`
	Timestamp  time.Time              `json:"timestamp"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	Name       string                 `json:"name,omitempty"`
	ParentID   string                 `json:"parentId,omitempty"`
	ActorID    string                 `json:"actorId,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent creates an event stamped with the current time
func NewEvent(eventType, tenantID, entityType, entityID string) *CatalogEvent {
	return &CatalogEvent{
		EventType:  eventType,
		TenantID:   tenantID,
		SourceID:   entityID,
		Timestamp:  time.Now().UTC(),
		EntityType: entityType,
		EntityID:   entityID,
	}
}

// WithMetadata adds a metadata entry and returns the event
func (e *CatalogEvent) WithMetadata(key string, value interface{}) *CatalogEvent {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

func (e *CatalogEvent) GetSubject() string {
	return e.EventType
}

func (e *CatalogEvent) GetStream() string {
	return StreamName
}

// msgID deduplicates redeliveries of the same event within the stream window
func (e *CatalogEvent) msgID() string {
	return fmt.Sprintf("%s:%s:%d", e.EventType, e.SourceID, e.Timestamp.UnixNano())
}

// Publisher publishes catalog events to JetStream
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the catalog stream exists
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	log := logger.WithField("component", "events.publisher")

	nc, err := nats.Connect(natsURL,
		nats.Name("catalog-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  streamSubjects,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to ensure CATALOG_EVENTS stream")
	}

	return &Publisher{nc: nc, js: js, logger: log}, nil
}

// Publish sends the event. A nil publisher publishes nothing.
func (p *Publisher) Publish(ctx context.Context, event *CatalogEvent) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, event.GetSubject(), data, jetstream.WithMsgID(event.msgID())); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.EventType, err)
	}

	p.logger.WithFields(logrus.Fields{
		"event_type": event.EventType,
		"tenant_id":  event.TenantID,
		"entity_id":  event.EntityID,
	}).Debug("Published event")
	return nil
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p != nil && p.nc != nil && p.nc.IsConnected()
}

// Close drains and closes the connection
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
