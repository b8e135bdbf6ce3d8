package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/persistence/models"
)

// GormCustomerMappingRepository implements CustomerMappingRepository using GORM
type GormCustomerMappingRepository struct {
	db *gorm.DB
}

// NewGormCustomerMappingRepository creates a new GormCustomerMappingRepository
func NewGormCustomerMappingRepository(db *gorm.DB) *GormCustomerMappingRepository {
	return &GormCustomerMappingRepository{db: db}
}

// FindByLocalCustomer finds the mapping for a local customer
func (r *GormCustomerMappingRepository) FindByLocalCustomer(ctx context.Context, localCustomerID int64) (*integration.CustomerMapping, error) {
	var model models.CustomerMappingModel
	if err := r.db.WithContext(ctx).
		Where("local_customer_id = ?", localCustomerID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmail finds the most recent mapping for an email address
func (r *GormCustomerMappingRepository) FindByEmail(ctx context.Context, email string) (*integration.CustomerMapping, error) {
	var model models.CustomerMappingModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("updated_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Upsert creates or updates the mapping for a local customer. The conflict
// target is the local_customer_id unique key: when two resolutions of the
// same brand-new customer race, the database arbitrates and both callers
// end up reading the same stored card code.
func (r *GormCustomerMappingRepository) Upsert(ctx context.Context, mapping *integration.CustomerMapping) error {
	var model models.CustomerMappingModel
	model.FromDomain(mapping)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "local_customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email", "card_code", "status", "updated_at",
			}),
		}).
		Create(&model).Error
}

// Ensure GormCustomerMappingRepository implements CustomerMappingRepository
var _ integration.CustomerMappingRepository = (*GormCustomerMappingRepository)(nil)
