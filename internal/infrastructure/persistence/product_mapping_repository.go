package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/persistence/models"
)

// GormProductMappingRepository implements ProductMappingRepository using GORM
type GormProductMappingRepository struct {
	db *gorm.DB
}

// NewGormProductMappingRepository creates a new GormProductMappingRepository
func NewGormProductMappingRepository(db *gorm.DB) *GormProductMappingRepository {
	return &GormProductMappingRepository{db: db}
}

// FindByLocalProduct finds the mapping for a local product
func (r *GormProductMappingRepository) FindByLocalProduct(ctx context.Context, localProductID int64) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("local_product_id = ?", localProductID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByItemCode finds the mapping that carries the given ERP item code
func (r *GormProductMappingRepository) FindByItemCode(ctx context.Context, itemCode string) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("item_code = ?", itemCode).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListEnabled returns all mappings with sync enabled, ordered by item code
// for stable batching.
func (r *GormProductMappingRepository) ListEnabled(ctx context.Context) ([]integration.ProductMapping, error) {
	var mappingModels []models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("sync_enabled = ?", true).
		Order("item_code ASC").
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	mappings := make([]integration.ProductMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, nil
}

// Upsert creates the mapping or updates sync state on the existing row.
// Conflict resolution runs on the local_product_id unique key.
func (r *GormProductMappingRepository) Upsert(ctx context.Context, mapping *integration.ProductMapping) error {
	var model models.ProductMappingModel
	model.FromDomain(mapping)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "local_product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"item_code", "sync_enabled", "last_synced_at",
				"last_known_stock", "status", "last_error", "updated_at",
			}),
		}).
		Create(&model).Error
}

// Ensure GormProductMappingRepository implements ProductMappingRepository
var _ integration.ProductMappingRepository = (*GormProductMappingRepository)(nil)
