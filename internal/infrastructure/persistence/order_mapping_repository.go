package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/persistence/models"
)

// GormOrderMappingRepository implements OrderMappingRepository using GORM
type GormOrderMappingRepository struct {
	db *gorm.DB
}

// NewGormOrderMappingRepository creates a new GormOrderMappingRepository
func NewGormOrderMappingRepository(db *gorm.DB) *GormOrderMappingRepository {
	return &GormOrderMappingRepository{db: db}
}

// FindByLocalOrder finds the mapping for a local order
func (r *GormOrderMappingRepository) FindByLocalOrder(ctx context.Context, localOrderID int64) (*integration.OrderMapping, error) {
	var model models.OrderMappingModel
	if err := r.db.WithContext(ctx).
		Where("local_order_id = ?", localOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Upsert creates or updates the mapping for a local order. The conflict
// target is the local_order_id unique key, so concurrent syncs of the same
// order converge on a single row.
func (r *GormOrderMappingRepository) Upsert(ctx context.Context, mapping *integration.OrderMapping) error {
	var model models.OrderMappingModel
	model.FromDomain(mapping)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "local_order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"doc_entry", "doc_num", "status", "attempts",
				"last_error", "synced_at", "updated_at",
			}),
		}).
		Create(&model).Error
}

// Ensure GormOrderMappingRepository implements OrderMappingRepository
var _ integration.OrderMappingRepository = (*GormOrderMappingRepository)(nil)
