package services

import (
	"context"
	"regexp"
	"strings"

	"catalog-service/internal/events"
	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EventPublisher receives catalog events after their transaction commits
type EventPublisher interface {
	Publish(ctx context.Context, event *events.CatalogEvent) error
}

// ImageStore holds variant image blobs
type ImageStore interface {
	Put(ctx context.Context, tenantID string, upload models.ImageUpload) (models.VariantImage, error)
	Delete(ctx context.Context, ref string) error
}

type actorKey struct{}

// WithActor attaches the acting user id to ctx
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

func actorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// eventSink publishes best-effort: a failed publish is logged, never returned
type eventSink struct {
	publisher EventPublisher
	logger    *logrus.Entry
}

func (e eventSink) emit(ctx context.Context, event *events.CatalogEvent) {
	if e.publisher == nil {
		return
	}
	event.ActorID = actorFrom(ctx)
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": event.EventType,
			"entity_id":  event.EntityID,
		}).Warn("Failed to publish event")
	}
}

// discardImages removes blobs best-effort
func discardImages(ctx context.Context, store ImageStore, refs []string, logger *logrus.Entry) int {
	if store == nil {
		return 0
	}
	removed := 0
	for _, ref := range refs {
		if err := store.Delete(context.WithoutCancel(ctx), ref); err != nil {
			logger.WithError(err).WithField("ref", ref).Warn("Failed to delete image")
			continue
		}
		removed++
	}
	return removed
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, validationError(field, "Invalid ID format")
	}
	return id, nil
}

// trimmedPtr returns nil for blank strings
func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

var slugPattern = regexp.MustCompile("[^a-z0-9]+")

// generateSlug creates a URL-friendly slug from a name
func generateSlug(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 50 {
		slug = strings.TrimRight(slug[:50], "-")
	}
	return slug
}
