package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/threadline/catalog-service/internal/assetstore"
	"github.com/threadline/catalog-service/internal/domain"
	"github.com/threadline/catalog-service/internal/repository"
)

// --- Mock repositories ---

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, filter repository.ListProductsFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepo) Update(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductRepo) CountByBrand(ctx context.Context, brandID string) (int, error) {
	args := m.Called(ctx, brandID)
	return args.Int(0), args.Error(1)
}

func (m *mockProductRepo) CountUsingColor(ctx context.Context, colorID string) (int, error) {
	args := m.Called(ctx, colorID)
	return args.Int(0), args.Error(1)
}

func (m *mockProductRepo) CountUsingSize(ctx context.Context, sizeID string) (int, error) {
	args := m.Called(ctx, sizeID)
	return args.Int(0), args.Error(1)
}

type mockBrandRepo struct {
	mock.Mock
}

func (m *mockBrandRepo) Create(ctx context.Context, b *domain.Brand) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBrandRepo) GetByID(ctx context.Context, id string) (*domain.Brand, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Brand), args.Error(1)
}

func (m *mockBrandRepo) List(ctx context.Context, limit, offset int) ([]domain.Brand, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Brand), args.Int(1), args.Error(2)
}

func (m *mockBrandRepo) Update(ctx context.Context, b *domain.Brand) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBrandRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockColorRepo struct {
	mock.Mock
}

func (m *mockColorRepo) Create(ctx context.Context, c *domain.Color) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockColorRepo) GetByID(ctx context.Context, id string) (*domain.Color, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Color), args.Error(1)
}

func (m *mockColorRepo) FindManyByIDs(ctx context.Context, ids []string) ([]domain.Color, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Color), args.Error(1)
}

func (m *mockColorRepo) List(ctx context.Context, limit, offset int) ([]domain.Color, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Color), args.Int(1), args.Error(2)
}

func (m *mockColorRepo) Update(ctx context.Context, c *domain.Color) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockColorRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockSizeRepo struct {
	mock.Mock
}

func (m *mockSizeRepo) Create(ctx context.Context, s *domain.Size) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSizeRepo) GetByID(ctx context.Context, id string) (*domain.Size, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Size), args.Error(1)
}

func (m *mockSizeRepo) FindManyByIDs(ctx context.Context, ids []string) ([]domain.Size, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Size), args.Error(1)
}

func (m *mockSizeRepo) List(ctx context.Context, limit, offset int) ([]domain.Size, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Size), args.Int(1), args.Error(2)
}

func (m *mockSizeRepo) Update(ctx context.Context, s *domain.Size) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSizeRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Fake asset store ---

// fakeAssetStore records uploads and deletes so tests can assert how many
// external calls a mutation made and in what state it left the store.
type fakeAssetStore struct {
	mu         sync.Mutex
	uploads    []string // asset IDs in upload order
	deletes    []string // asset IDs in delete order
	nextID     int
	failUpload int // fail the Nth upload (1-based); 0 disables
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{}
}

func (f *fakeAssetStore) Upload(_ context.Context, input *assetstore.UploadInput) (*assetstore.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	if f.failUpload > 0 && f.nextID == f.failUpload {
		return nil, errors.New("asset store unavailable")
	}

	id := fmt.Sprintf("asset-%d", f.nextID)
	f.uploads = append(f.uploads, id)
	return &assetstore.Asset{
		AssetID: id,
		URL:     "https://img.example.com/" + input.Folder + "/" + id,
	}, nil
}

func (f *fakeAssetStore) Delete(_ context.Context, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletes = append(f.deletes, assetID)
	return nil
}

func (f *fakeAssetStore) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func (f *fakeAssetStore) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deletes))
	copy(out, f.deletes)
	return out
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRefs(brands *mockBrandRepo, colors *mockColorRepo, sizes *mockSizeRepo) *ReferenceValidator {
	return NewReferenceValidator(brands, colors, sizes)
}
