package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/erp/connector/internal/domain/integration"
)

func productMappingColumns() []string {
	return []string{"id", "local_product_id", "item_code", "sync_enabled", "last_synced_at", "last_known_stock", "status", "last_error", "created_at", "updated_at"}
}

func TestGormProductMappingRepository_FindByItemCode(t *testing.T) {
	t.Run("finds mapping by item code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductMappingRepository(gormDB)

		now := time.Now()
		rows := sqlmock.NewRows(productMappingColumns()).
			AddRow(1, int64(301), "WIDGET-01", true, now, decimal.NewFromInt(12), "SYNCED", "", now, now)

		mock.ExpectQuery(`SELECT \* FROM "product_mappings" WHERE item_code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("WIDGET-01", 1).
			WillReturnRows(rows)

		mapping, err := repo.FindByItemCode(context.Background(), "WIDGET-01")

		assert.NoError(t, err)
		assert.Equal(t, int64(301), mapping.LocalProductID)
		assert.True(t, mapping.SyncEnabled)
		assert.True(t, mapping.LastKnownStock.Equal(decimal.NewFromInt(12)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns sentinel for unknown item code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductMappingRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "product_mappings" WHERE item_code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("NOPE", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		mapping, err := repo.FindByItemCode(context.Background(), "NOPE")

		assert.Nil(t, mapping)
		assert.ErrorIs(t, err, integration.ErrMappingNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductMappingRepository_ListEnabled(t *testing.T) {
	t.Run("returns only sync-enabled rows ordered by item code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductMappingRepository(gormDB)

		now := time.Now()
		rows := sqlmock.NewRows(productMappingColumns()).
			AddRow(1, int64(301), "WIDGET-01", true, now, decimal.NewFromInt(12), "SYNCED", "", now, now).
			AddRow(2, int64(302), "WIDGET-02", true, nil, decimal.Zero, "PENDING", "", now, now)

		mock.ExpectQuery(`SELECT \* FROM "product_mappings" WHERE sync_enabled = \$1 ORDER BY item_code ASC`).
			WithArgs(true).
			WillReturnRows(rows)

		mappings, err := repo.ListEnabled(context.Background())

		assert.NoError(t, err)
		assert.Len(t, mappings, 2)
		assert.Equal(t, "WIDGET-01", mappings[0].ItemCode)
		assert.Equal(t, "WIDGET-02", mappings[1].ItemCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty slice when nothing is enabled", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductMappingRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "product_mappings" WHERE sync_enabled = \$1 ORDER BY item_code ASC`).
			WithArgs(true).
			WillReturnRows(sqlmock.NewRows(productMappingColumns()))

		mappings, err := repo.ListEnabled(context.Background())

		assert.NoError(t, err)
		assert.Empty(t, mappings)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductMappingRepository_Upsert(t *testing.T) {
	t.Run("inserts with conflict clause on local product id", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductMappingRepository(gormDB)

		mock.ExpectQuery(`INSERT INTO "product_mappings" .*ON CONFLICT \("local_product_id"\) DO UPDATE SET .*RETURNING "id"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		err := repo.Upsert(context.Background(), &integration.ProductMapping{
			LocalProductID: 301,
			ItemCode:       "WIDGET-01",
			SyncEnabled:    true,
			LastKnownStock: decimal.NewFromInt(12),
			Status:         integration.SyncStatusSynced,
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
