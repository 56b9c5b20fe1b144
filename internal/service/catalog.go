package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/threadline/catalog-service/internal/domain"
	"github.com/threadline/catalog-service/internal/event"
	"github.com/threadline/catalog-service/internal/repository"
	apperrors "github.com/threadline/catalog-service/pkg/errors"
)

// publishRefEvent fires a color/size event best-effort; failures are logged
// and never fail the mutation that already persisted.
func publishRefEvent(ctx context.Context, logger *slog.Logger, events *event.Producer, id string, publish func() error) {
	if events == nil {
		return
	}
	if err := publish(); err != nil {
		logger.WarnContext(ctx, "failed to publish catalog event",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
}

// ColorService manages the color reference table.
type ColorService struct {
	colors   repository.ColorRepository
	products repository.ProductRepository
	events   *event.Producer
	logger   *slog.Logger
}

// NewColorService creates the color service. events may be nil, in which
// case event publishing is skipped.
func NewColorService(
	colors repository.ColorRepository,
	products repository.ProductRepository,
	events *event.Producer,
	logger *slog.Logger,
) *ColorService {
	return &ColorService{colors: colors, products: products, events: events, logger: logger}
}

// Create inserts a color with a unique name.
func (s *ColorService) Create(ctx context.Context, name string) (*domain.Color, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("color name is required")
	}

	now := time.Now().UTC()
	color := &domain.Color{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.colors.Create(ctx, color); err != nil {
		return nil, err
	}

	publishRefEvent(ctx, s.logger, s.events, color.ID, func() error {
		return s.events.PublishColorCreated(ctx, color)
	})
	return color, nil
}

// Get returns a color by ID.
func (s *ColorService) Get(ctx context.Context, id string) (*domain.Color, error) {
	return s.colors.GetByID(ctx, id)
}

// List returns a page of colors and the unpaginated total.
func (s *ColorService) List(ctx context.Context, limit, offset int) ([]domain.Color, int, error) {
	return s.colors.List(ctx, clampLimit(limit), clampOffset(offset))
}

// Update renames a color.
func (s *ColorService) Update(ctx context.Context, id, name string) (*domain.Color, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("color name is required")
	}

	color, err := s.colors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	color.Name = name
	color.UpdatedAt = time.Now().UTC()

	if err := s.colors.Update(ctx, color); err != nil {
		return nil, err
	}

	publishRefEvent(ctx, s.logger, s.events, color.ID, func() error {
		return s.events.PublishColorUpdated(ctx, color)
	})
	return color, nil
}

// Delete removes a color unless a product variant still references it.
func (s *ColorService) Delete(ctx context.Context, id string) error {
	count, err := s.products.CountUsingColor(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.Conflict(fmt.Sprintf("color %s is referenced by %d products", id, count))
	}

	if err := s.colors.Delete(ctx, id); err != nil {
		return err
	}

	publishRefEvent(ctx, s.logger, s.events, id, func() error {
		return s.events.PublishColorDeleted(ctx, id)
	})
	return nil
}

// SizeService manages the size reference table.
type SizeService struct {
	sizes    repository.SizeRepository
	products repository.ProductRepository
	events   *event.Producer
	logger   *slog.Logger
}

// NewSizeService creates the size service. events may be nil, in which
// case event publishing is skipped.
func NewSizeService(
	sizes repository.SizeRepository,
	products repository.ProductRepository,
	events *event.Producer,
	logger *slog.Logger,
) *SizeService {
	return &SizeService{sizes: sizes, products: products, events: events, logger: logger}
}

// Create inserts a size with a unique name.
func (s *SizeService) Create(ctx context.Context, name string) (*domain.Size, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("size name is required")
	}

	now := time.Now().UTC()
	size := &domain.Size{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sizes.Create(ctx, size); err != nil {
		return nil, err
	}

	publishRefEvent(ctx, s.logger, s.events, size.ID, func() error {
		return s.events.PublishSizeCreated(ctx, size)
	})
	return size, nil
}

// Get returns a size by ID.
func (s *SizeService) Get(ctx context.Context, id string) (*domain.Size, error) {
	return s.sizes.GetByID(ctx, id)
}

// List returns a page of sizes and the unpaginated total.
func (s *SizeService) List(ctx context.Context, limit, offset int) ([]domain.Size, int, error) {
	return s.sizes.List(ctx, clampLimit(limit), clampOffset(offset))
}

// Update renames a size.
func (s *SizeService) Update(ctx context.Context, id, name string) (*domain.Size, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("size name is required")
	}

	size, err := s.sizes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	size.Name = name
	size.UpdatedAt = time.Now().UTC()

	if err := s.sizes.Update(ctx, size); err != nil {
		return nil, err
	}

	publishRefEvent(ctx, s.logger, s.events, size.ID, func() error {
		return s.events.PublishSizeUpdated(ctx, size)
	})
	return size, nil
}

// Delete removes a size unless a product variant still references it.
func (s *SizeService) Delete(ctx context.Context, id string) error {
	count, err := s.products.CountUsingSize(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.Conflict(fmt.Sprintf("size %s is referenced by %d products", id, count))
	}

	if err := s.sizes.Delete(ctx, id); err != nil {
		return err
	}

	publishRefEvent(ctx, s.logger, s.events, id, func() error {
		return s.events.PublishSizeDeleted(ctx, id)
	})
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
