package event

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadline/catalog-service/internal/domain"
	pkgkafka "github.com/threadline/catalog-service/pkg/kafka"
)

type capturingPublisher struct {
	topics []string
	events []*pkgkafka.Event
	err    error
}

func (c *capturingPublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if c.err != nil {
		return c.err
	}
	c.topics = append(c.topics, topic)
	c.events = append(c.events, event)
	return nil
}

func newTestProducer() (*Producer, *capturingPublisher) {
	pub := &capturingPublisher{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewProducer(pub, logger), pub
}

func TestProducer_PublishProductCreated(t *testing.T) {
	producer, pub := newTestProducer()

	product := &domain.Product{
		ID: "p1", Name: "Hoodie", BrandID: "b1",
		Variants: []domain.Variant{{VariantID: "V1"}, {VariantID: "V2"}},
		Revision: 3,
	}

	require.NoError(t, producer.PublishProductCreated(context.Background(), product))

	require.Len(t, pub.events, 1)
	assert.Equal(t, TopicProductCreated, pub.topics[0])
	assert.Equal(t, "p1", pub.events[0].AggregateID)
	assert.Equal(t, AggregateTypeProduct, pub.events[0].AggregateType)

	var data ProductEventData
	require.NoError(t, pub.events[0].UnmarshalData(&data))
	assert.Equal(t, 2, data.VariantCount)
	assert.Equal(t, int64(3), data.Revision)
}

func TestProducer_PublishBrandEvents(t *testing.T) {
	producer, pub := newTestProducer()
	ctx := context.Background()

	brand := &domain.Brand{ID: "b1", Name: "Acme", LogoURL: "https://img/logo.png"}
	require.NoError(t, producer.PublishBrandCreated(ctx, brand))
	require.NoError(t, producer.PublishBrandUpdated(ctx, brand))
	require.NoError(t, producer.PublishBrandDeleted(ctx, "b1"))

	assert.Equal(t, []string{TopicBrandCreated, TopicBrandUpdated, TopicBrandDeleted}, pub.topics)
	assert.Equal(t, AggregateTypeBrand, pub.events[0].AggregateType)

	var data BrandEventData
	require.NoError(t, pub.events[0].UnmarshalData(&data))
	assert.Equal(t, "Acme", data.Name)
	assert.Equal(t, "https://img/logo.png", data.LogoURL)
}

func TestProducer_PublishColorAndSizeEvents(t *testing.T) {
	producer, pub := newTestProducer()
	ctx := context.Background()

	require.NoError(t, producer.PublishColorCreated(ctx, &domain.Color{ID: "c1", Name: "navy"}))
	require.NoError(t, producer.PublishColorUpdated(ctx, &domain.Color{ID: "c1", Name: "midnight"}))
	require.NoError(t, producer.PublishColorDeleted(ctx, "c1"))
	require.NoError(t, producer.PublishSizeCreated(ctx, &domain.Size{ID: "s1", Name: "M"}))
	require.NoError(t, producer.PublishSizeUpdated(ctx, &domain.Size{ID: "s1", Name: "L"}))
	require.NoError(t, producer.PublishSizeDeleted(ctx, "s1"))

	assert.Equal(t, []string{
		TopicColorCreated, TopicColorUpdated, TopicColorDeleted,
		TopicSizeCreated, TopicSizeUpdated, TopicSizeDeleted,
	}, pub.topics)

	var data RefEventData
	require.NoError(t, pub.events[0].UnmarshalData(&data))
	assert.Equal(t, "navy", data.Name)
}

func TestProducer_PublishFailure(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("broker down")}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	producer := NewProducer(pub, logger)

	err := producer.PublishProductDeleted(context.Background(), "p1")
	assert.Error(t, err)
}
