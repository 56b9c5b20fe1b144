package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadline/catalog-service/internal/domain"
	"github.com/threadline/catalog-service/internal/repository"
	"github.com/threadline/catalog-service/pkg/database"
	apperrors "github.com/threadline/catalog-service/pkg/errors"
)

var productColumns = []string{"id", "name", "brand_id", "variants", "revision", "created_at", "updated_at"}

func testProduct() *domain.Product {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Product{
		ID:      "p1",
		Name:    "Hoodie",
		BrandID: "b1",
		Variants: []domain.Variant{
			{VariantID: "V1", SizeID: "s1", ColorIDs: []string{"c1"}, Stock: 5,
				Images: []domain.Image{{URL: "u1", AssetID: "a1", IsMain: true}}},
		},
		Revision:  3,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func variantsJSON(t *testing.T, p *domain.Product) []byte {
	t.Helper()
	data, err := json.Marshal(p.Variants)
	require.NoError(t, err)
	return data
}

func TestProductRepository_Create(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)
	p := testProduct()

	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs(p.ID, p.Name, p.BrandID, variantsJSON(t, p), p.Revision, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestProductRepository_Create_DuplicateID(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)

	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Create(context.Background(), testProduct())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestProductRepository_GetByID(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)
	want := testProduct()

	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT id, name, brand_id, variants, revision, created_at, updated_at")).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows(productColumns).
			AddRow(want.ID, want.Name, want.BrandID, variantsJSON(t, want),
				want.Revision, want.CreatedAt, want.UpdatedAt))

	got, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, int64(3), got.Revision)
	require.Len(t, got.Variants, 1)
	assert.Equal(t, "V1", got.Variants[0].VariantID)
	assert.Equal(t, []string{"c1"}, got.Variants[0].ColorIDs)
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)

	mockPool.ExpectQuery("SELECT").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductRepository_List(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)
	p := testProduct()
	columns := append(append([]string{}, productColumns...), "total")

	mockPool.ExpectQuery(regexp.QuoteMeta("count(*) OVER()")).
		WithArgs("b1", "hood", 20, 0).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(p.ID, p.Name, p.BrandID, variantsJSON(t, p), p.Revision, p.CreatedAt, p.UpdatedAt, 42))

	products, total, err := repo.List(context.Background(), repository.ListProductsFilter{
		BrandID: "b1", Search: "hood", Limit: 20, Offset: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, 42, total)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)
}

func TestProductRepository_Update(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)
	p := testProduct()

	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE products")).
		WithArgs(p.ID, p.Name, p.BrandID, variantsJSON(t, p), p.UpdatedAt, p.Revision).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), p))
	assert.Equal(t, int64(4), p.Revision, "revision tracks the bump applied by the database")
}

func TestProductRepository_Update_StaleRevision(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)
	p := testProduct()

	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE products")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	// Zero rows but the product still exists: a concurrent writer won.
	mockPool.ExpectQuery("SELECT").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(productColumns).
			AddRow(p.ID, p.Name, p.BrandID, variantsJSON(t, p), p.Revision+1, p.CreatedAt, p.UpdatedAt))

	err = repo.Update(context.Background(), p)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, int64(3), p.Revision, "revision untouched on a failed write")
}

func TestProductRepository_Update_Vanished(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)
	p := testProduct()

	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE products")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	mockPool.ExpectQuery("SELECT").
		WithArgs(p.ID).
		WillReturnError(pgx.ErrNoRows)

	err = repo.Update(context.Background(), p)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductRepository_Delete(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)

	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM products")).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.Delete(context.Background(), "p1"))
}

func TestProductRepository_Delete_NotFound(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)

	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM products")).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductRepository_CountUsingColor(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)

	mockPool.ExpectQuery(regexp.QuoteMeta("jsonb_array_elements(variants)")).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountUsingColor(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProductRepository_CountUsingSize(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewProductRepository(mockPool)

	mockPool.ExpectQuery(regexp.QuoteMeta("v->>'size_id' = $1")).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	count, err := repo.CountUsingSize(context.Background(), "s1")
	require.NoError(t, err)
	assert.Zero(t, count)
}
