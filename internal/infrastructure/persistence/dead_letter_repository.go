package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/persistence/models"
)

// GormDeadLetterRepository implements DeadLetterRepository using GORM
type GormDeadLetterRepository struct {
	db *gorm.DB
}

// NewGormDeadLetterRepository creates a new GormDeadLetterRepository
func NewGormDeadLetterRepository(db *gorm.DB) *GormDeadLetterRepository {
	return &GormDeadLetterRepository{db: db}
}

// Insert parks a new dead letter entry
func (r *GormDeadLetterRepository) Insert(ctx context.Context, entry *integration.DeadLetterEntry) error {
	var model models.DeadLetterModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID finds a dead letter entry by its ID
func (r *GormDeadLetterRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.DeadLetterEntry, error) {
	var model models.DeadLetterModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrDeadLetterNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListUnresolved returns unresolved entries, oldest failure first
func (r *GormDeadLetterRepository) ListUnresolved(ctx context.Context, limit int) ([]integration.DeadLetterEntry, error) {
	query := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("failed_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entryModels []models.DeadLetterModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]integration.DeadLetterEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// MarkResolved persists the resolution on an entry. Rows already resolved
// are not overwritten; a zero-row update on an existing entry reports
// ErrDeadLetterResolved.
func (r *GormDeadLetterRepository) MarkResolved(ctx context.Context, entry *integration.DeadLetterEntry) error {
	result := r.db.WithContext(ctx).
		Model(&models.DeadLetterModel{}).
		Where("id = ? AND resolved_at IS NULL", entry.ID).
		Updates(map[string]any{
			"resolved_at": entry.ResolvedAt,
			"resolution":  string(entry.Resolution),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.DeadLetterModel{}).
			Where("id = ?", entry.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return integration.ErrDeadLetterNotFound
		}
		return integration.ErrDeadLetterResolved
	}
	return nil
}

// Ensure GormDeadLetterRepository implements DeadLetterRepository
var _ integration.DeadLetterRepository = (*GormDeadLetterRepository)(nil)
