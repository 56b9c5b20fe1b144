package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/threadline/catalog-service/internal/domain"
	pkgkafka "github.com/threadline/catalog-service/pkg/kafka"
)

// Kafka topic constants for catalog domain events.
const (
	TopicProductCreated = "catalog.product.created"
	TopicProductUpdated = "catalog.product.updated"
	TopicProductDeleted = "catalog.product.deleted"

	TopicBrandCreated = "catalog.brand.created"
	TopicBrandUpdated = "catalog.brand.updated"
	TopicBrandDeleted = "catalog.brand.deleted"

	TopicColorCreated = "catalog.color.created"
	TopicColorUpdated = "catalog.color.updated"
	TopicColorDeleted = "catalog.color.deleted"

	TopicSizeCreated = "catalog.size.created"
	TopicSizeUpdated = "catalog.size.updated"
	TopicSizeDeleted = "catalog.size.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeProduct = "product"
	AggregateTypeBrand   = "brand"
	AggregateTypeColor   = "color"
	AggregateTypeSize    = "size"
)

// Source identifier for events originating from this service.
const SourceCatalogService = "catalog-service"

// ProductEventData is the payload for product created/updated events.
type ProductEventData struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BrandID      string `json:"brand_id"`
	VariantCount int    `json:"variant_count"`
	Revision     int64  `json:"revision"`
}

// BrandEventData is the payload for brand created/updated events.
type BrandEventData struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
}

// RefEventData is the payload for color and size created/updated events.
type RefEventData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeletedData is the payload for all deleted events.
type DeletedData struct {
	ID string `json:"id"`
}

// Publisher is the transport the producer writes through. *pkgkafka.Producer
// satisfies it; tests substitute a capturing fake.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes catalog domain events to Kafka. Publishing is
// best-effort from the caller's perspective: a mutation that already
// persisted is not rolled back over a publish failure.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the catalog service.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

func productData(p *domain.Product) ProductEventData {
	return ProductEventData{
		ID:           p.ID,
		Name:         p.Name,
		BrandID:      p.BrandID,
		VariantCount: len(p.Variants),
		Revision:     p.Revision,
	}
}

// PublishProductCreated publishes a catalog.product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, AggregateTypeProduct, product.ID, productData(product))
}

// PublishProductUpdated publishes a catalog.product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, AggregateTypeProduct, product.ID, productData(product))
}

// PublishProductDeleted publishes a catalog.product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicProductDeleted, AggregateTypeProduct, id, DeletedData{ID: id})
}

func brandData(b *domain.Brand) BrandEventData {
	return BrandEventData{ID: b.ID, Name: b.Name, LogoURL: b.LogoURL}
}

// PublishBrandCreated publishes a catalog.brand.created event.
func (p *Producer) PublishBrandCreated(ctx context.Context, brand *domain.Brand) error {
	return p.publish(ctx, TopicBrandCreated, AggregateTypeBrand, brand.ID, brandData(brand))
}

// PublishBrandUpdated publishes a catalog.brand.updated event.
func (p *Producer) PublishBrandUpdated(ctx context.Context, brand *domain.Brand) error {
	return p.publish(ctx, TopicBrandUpdated, AggregateTypeBrand, brand.ID, brandData(brand))
}

// PublishBrandDeleted publishes a catalog.brand.deleted event.
func (p *Producer) PublishBrandDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicBrandDeleted, AggregateTypeBrand, id, DeletedData{ID: id})
}

// PublishColorCreated publishes a catalog.color.created event.
func (p *Producer) PublishColorCreated(ctx context.Context, color *domain.Color) error {
	return p.publish(ctx, TopicColorCreated, AggregateTypeColor, color.ID, RefEventData{ID: color.ID, Name: color.Name})
}

// PublishColorUpdated publishes a catalog.color.updated event.
func (p *Producer) PublishColorUpdated(ctx context.Context, color *domain.Color) error {
	return p.publish(ctx, TopicColorUpdated, AggregateTypeColor, color.ID, RefEventData{ID: color.ID, Name: color.Name})
}

// PublishColorDeleted publishes a catalog.color.deleted event.
func (p *Producer) PublishColorDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicColorDeleted, AggregateTypeColor, id, DeletedData{ID: id})
}

// PublishSizeCreated publishes a catalog.size.created event.
func (p *Producer) PublishSizeCreated(ctx context.Context, size *domain.Size) error {
	return p.publish(ctx, TopicSizeCreated, AggregateTypeSize, size.ID, RefEventData{ID: size.ID, Name: size.Name})
}

// PublishSizeUpdated publishes a catalog.size.updated event.
func (p *Producer) PublishSizeUpdated(ctx context.Context, size *domain.Size) error {
	return p.publish(ctx, TopicSizeUpdated, AggregateTypeSize, size.ID, RefEventData{ID: size.ID, Name: size.Name})
}

// PublishSizeDeleted publishes a catalog.size.deleted event.
func (p *Producer) PublishSizeDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicSizeDeleted, AggregateTypeSize, id, DeletedData{ID: id})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published catalog event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
