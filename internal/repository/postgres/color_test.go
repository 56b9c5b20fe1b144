package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadline/catalog-service/pkg/database"
)

func TestColorRepository_FindManyByIDs(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewColorRepository(mockPool)
	now := time.Now().UTC()
	ids := []string{"c1", "c2", "c9"}

	mockPool.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1)")).
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow("c1", "navy", now, now).
			AddRow("c2", "red", now, now))

	colors, err := repo.FindManyByIDs(context.Background(), ids)
	require.NoError(t, err)

	require.Len(t, colors, 2, "unknown ids are absent, not an error")
	assert.Equal(t, "navy", colors[0].Name)
}

func TestColorRepository_FindManyByIDs_Empty(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewColorRepository(mockPool)

	colors, err := repo.FindManyByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, colors)
	assert.NoError(t, mockPool.ExpectationsWereMet(), "no query issued for an empty id set")
}

func TestColorRepository_List(t *testing.T) {
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewColorRepository(mockPool)
	now := time.Now().UTC()

	mockPool.ExpectQuery(regexp.QuoteMeta("count(*) OVER()")).
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at", "total"}).
			AddRow("c1", "navy", now, now, 8))

	colors, total, err := repo.List(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, total)
	require.Len(t, colors, 1)
}
