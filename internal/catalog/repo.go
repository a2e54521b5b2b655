package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
)

// Repository defines persistence operations for the storefront catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListActivePacks(ctx context.Context) ([]models.Pack, error)
	FindActivePack(ctx context.Context, id uuid.UUID) (*models.Pack, error)
	FindPack(ctx context.Context, id uuid.UUID) (*models.Pack, error)
	CreatePack(ctx context.Context, pack *models.Pack) error
	UpdatePack(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)

	ListActiveCategories(ctx context.Context) ([]models.GameCategory, error)
	CreateCategory(ctx context.Context, category *models.GameCategory) error
	UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error)

	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error)

	ListCurrentPromotions(ctx context.Context, now time.Time) ([]models.Promotion, error)
	CreatePromotion(ctx context.Context, promotion *models.Promotion) error
	UpdatePromotion(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	DeletePromotion(ctx context.Context, id uuid.UUID) (int64, error)

	ListActiveContents(ctx context.Context) ([]models.SiteContent, error)
	UpsertContent(ctx context.Context, content *models.SiteContent) error
	ListPublicSettings(ctx context.Context) ([]models.SiteSetting, error)
	UpsertSetting(ctx context.Context, setting *models.SiteSetting) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActivePacks(ctx context.Context) ([]models.Pack, error) {
	var packs []models.Pack
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Order("amount ASC").
		Find(&packs).Error
	return packs, err
}

func (r *repository) FindActivePack(ctx context.Context, id uuid.UUID) (*models.Pack, error) {
	var pack models.Pack
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&pack).Error
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

func (r *repository) FindPack(ctx context.Context, id uuid.UUID) (*models.Pack, error) {
	var pack models.Pack
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pack).Error; err != nil {
		return nil, err
	}
	return &pack, nil
}

func (r *repository) CreatePack(ctx context.Context, pack *models.Pack) error {
	return r.db.WithContext(ctx).Create(pack).Error
}

func (r *repository) UpdatePack(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Pack{}).
		Where("id = ?", id).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) ListActiveCategories(ctx context.Context) ([]models.GameCategory, error) {
	var categories []models.GameCategory
	err := r.db.WithContext(ctx).
		Preload("Products", "is_active = ?", true).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Find(&categories).Error
	return categories, err
}

func (r *repository) CreateCategory(ctx context.Context, category *models.GameCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.GameCategory{}).
		Where("id = ?", id).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.GameCategory{})
	return result.RowsAffected, result.Error
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Product{})
	return result.RowsAffected, result.Error
}

// ListCurrentPromotions returns active promotions whose window contains now.
// NULL bounds are open ended.
func (r *repository) ListCurrentPromotions(ctx context.Context, now time.Time) ([]models.Promotion, error) {
	var promotions []models.Promotion
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("start_at IS NULL OR start_at <= ?", now).
		Where("end_at IS NULL OR end_at >= ?", now).
		Order("created_at DESC").
		Find(&promotions).Error
	return promotions, err
}

func (r *repository) CreatePromotion(ctx context.Context, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Create(promotion).Error
}

func (r *repository) UpdatePromotion(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("id = ?", id).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) DeletePromotion(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Promotion{})
	return result.RowsAffected, result.Error
}

func (r *repository) ListActiveContents(ctx context.Context) ([]models.SiteContent, error) {
	var contents []models.SiteContent
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("key ASC").
		Find(&contents).Error
	return contents, err
}

func (r *repository) UpsertContent(ctx context.Context, content *models.SiteContent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "content_type", "is_active", "updated_at"}),
		}).
		Create(content).Error
}

func (r *repository) ListPublicSettings(ctx context.Context) ([]models.SiteSetting, error) {
	var settings []models.SiteSetting
	err := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("key ASC").
		Find(&settings).Error
	return settings, err
}

func (r *repository) UpsertSetting(ctx context.Context, setting *models.SiteSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "is_public", "updated_at"}),
		}).
		Create(setting).Error
}
