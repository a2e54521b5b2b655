package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
)

// Promotion scope types.
const (
	PromotionScopeProduct  = "product"
	PromotionScopeCategory = "category"
	PromotionScopeGlobal   = "global"
)

// CategoryInput carries admin writes for a game category.
type CategoryInput struct {
	Name      *string
	Slug      *string
	ImageURL  *string
	SortOrder *int
	IsActive  *bool
}

// ProductInput carries admin writes for a product listing.
type ProductInput struct {
	Name           *string
	Slug           *string
	Description    *string
	ImageURL       *string
	BasePriceCents *int
	CategoryID     *uuid.UUID
	SortOrder      *int
	IsActive       *bool
}

// PackInput carries admin writes for a purchasable pack.
type PackInput struct {
	Name       *string
	Amount     *int
	PriceCents *int
	SortOrder  *int
	IsActive   *bool
}

// PromotionInput carries admin writes for a promotion window.
type PromotionInput struct {
	Name          *string
	ScopeType     *string
	ScopeID       *uuid.UUID
	DiscountType  *enums.PromotionType
	DiscountValue *int
	StartAt       *time.Time
	EndAt         *time.Time
	IsActive      *bool
}

// ContentInput upserts one keyed block of storefront copy.
type ContentInput struct {
	Key         string
	Value       *string
	ContentType string
	IsActive    bool
}

// SettingInput upserts one keyed runtime toggle.
type SettingInput struct {
	Key      string
	Value    *string
	IsPublic bool
}

// Service exposes the public storefront reads and the admin catalog writes.
type Service interface {
	Packs(ctx context.Context) ([]PackDTO, error)
	Storefront(ctx context.Context) (*Storefront, error)

	CreateCategory(ctx context.Context, input CategoryInput) (*models.GameCategory, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreatePack(ctx context.Context, input PackInput) (*models.Pack, error)
	UpdatePack(ctx context.Context, id uuid.UUID, input PackInput) error

	CreatePromotion(ctx context.Context, input PromotionInput) (*models.Promotion, error)
	UpdatePromotion(ctx context.Context, id uuid.UUID, input PromotionInput) error
	DeletePromotion(ctx context.Context, id uuid.UUID) error

	UpsertContent(ctx context.Context, input ContentInput) error
	UpsertSetting(ctx context.Context, input SettingInput) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a catalog service over the repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Packs(ctx context.Context) ([]PackDTO, error) {
	packs, err := s.repo.ListActivePacks(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list packs")
	}
	dtos := make([]PackDTO, 0, len(packs))
	for _, pack := range packs {
		dtos = append(dtos, toPackDTO(pack))
	}
	return dtos, nil
}

func (s *service) Storefront(ctx context.Context) (*Storefront, error) {
	categories, err := s.repo.ListActiveCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	promotions, err := s.repo.ListCurrentPromotions(ctx, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	contents, err := s.repo.ListActiveContents(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contents")
	}
	settings, err := s.repo.ListPublicSettings(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settings")
	}

	storefront := &Storefront{
		Categories: make([]CategoryDTO, 0, len(categories)),
		Promotions: make([]PromotionDTO, 0, len(promotions)),
		Contents:   make(map[string]*string, len(contents)),
		Settings:   make(map[string]*string, len(settings)),
	}
	for _, category := range categories {
		storefront.Categories = append(storefront.Categories, toCategoryDTO(category))
	}
	for _, promotion := range promotions {
		storefront.Promotions = append(storefront.Promotions, toPromotionDTO(promotion))
	}
	for _, content := range contents {
		storefront.Contents[content.Key] = content.Value
	}
	for _, setting := range settings {
		storefront.Settings[setting.Key] = setting.Value
	}
	return storefront, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.GameCategory, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	if input.Slug == nil || strings.TrimSpace(*input.Slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category slug required")
	}

	category := &models.GameCategory{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(*input.Name),
		Slug:     strings.TrimSpace(*input.Slug),
		ImageURL: input.ImageURL,
		IsActive: true,
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return category, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) error {
	updates := map[string]any{}
	putString(updates, "name", input.Name)
	putString(updates, "slug", input.Slug)
	if input.ImageURL != nil {
		updates["image_url"] = input.ImageURL
	}
	if input.SortOrder != nil {
		updates["sort_order"] = *input.SortOrder
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	return s.applyUpdate(ctx, "category", updates, func() (int64, error) {
		return s.repo.UpdateCategory(ctx, id, updates)
	})
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.applyDelete(ctx, "category", func() (int64, error) {
		return s.repo.DeleteCategory(ctx, id)
	})
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Slug == nil || strings.TrimSpace(*input.Slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug required")
	}
	if input.CategoryID == nil || *input.CategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category_id required")
	}
	if input.BasePriceCents == nil || *input.BasePriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	}

	product := &models.Product{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(*input.Name),
		Slug:           strings.TrimSpace(*input.Slug),
		Description:    input.Description,
		ImageURL:       input.ImageURL,
		BasePriceCents: *input.BasePriceCents,
		Currency:       enums.CurrencyXOF,
		CategoryID:     *input.CategoryID,
		IsActive:       true,
	}
	if input.SortOrder != nil {
		product.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) error {
	if input.BasePriceCents != nil && *input.BasePriceCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	}

	updates := map[string]any{}
	putString(updates, "name", input.Name)
	putString(updates, "slug", input.Slug)
	if input.Description != nil {
		updates["description"] = input.Description
	}
	if input.ImageURL != nil {
		updates["image_url"] = input.ImageURL
	}
	if input.BasePriceCents != nil {
		updates["base_price_cents"] = *input.BasePriceCents
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if input.SortOrder != nil {
		updates["sort_order"] = *input.SortOrder
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	return s.applyUpdate(ctx, "product", updates, func() (int64, error) {
		return s.repo.UpdateProduct(ctx, id, updates)
	})
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.applyDelete(ctx, "product", func() (int64, error) {
		return s.repo.DeleteProduct(ctx, id)
	})
}

func (s *service) CreatePack(ctx context.Context, input PackInput) (*models.Pack, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack name required")
	}
	if input.Amount == nil || *input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack amount must be positive")
	}
	if input.PriceCents == nil || *input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack price must be positive")
	}

	pack := &models.Pack{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(*input.Name),
		Amount:     *input.Amount,
		PriceCents: *input.PriceCents,
		Currency:   enums.CurrencyXOF,
		IsActive:   true,
	}
	if input.SortOrder != nil {
		pack.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		pack.IsActive = *input.IsActive
	}
	if err := s.repo.CreatePack(ctx, pack); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pack")
	}
	return pack, nil
}

func (s *service) UpdatePack(ctx context.Context, id uuid.UUID, input PackInput) error {
	if input.Amount != nil && *input.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "pack amount must be positive")
	}
	if input.PriceCents != nil && *input.PriceCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "pack price must be positive")
	}

	updates := map[string]any{}
	putString(updates, "name", input.Name)
	if input.Amount != nil {
		updates["amount"] = *input.Amount
	}
	if input.PriceCents != nil {
		updates["price_cents"] = *input.PriceCents
	}
	if input.SortOrder != nil {
		updates["sort_order"] = *input.SortOrder
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	return s.applyUpdate(ctx, "pack", updates, func() (int64, error) {
		return s.repo.UpdatePack(ctx, id, updates)
	})
}

func (s *service) CreatePromotion(ctx context.Context, input PromotionInput) (*models.Promotion, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion name required")
	}
	scopeType := PromotionScopeGlobal
	if input.ScopeType != nil {
		scopeType = *input.ScopeType
	}
	if err := validateScope(scopeType, input.ScopeID); err != nil {
		return nil, err
	}
	discountType := enums.PromotionTypePercentage
	if input.DiscountType != nil {
		discountType = *input.DiscountType
	}
	if input.DiscountValue == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value required")
	}
	if err := validateDiscount(discountType, *input.DiscountValue); err != nil {
		return nil, err
	}

	promotion := &models.Promotion{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(*input.Name),
		ScopeType:     scopeType,
		ScopeID:       input.ScopeID,
		DiscountType:  discountType,
		DiscountValue: *input.DiscountValue,
		StartAt:       input.StartAt,
		EndAt:         input.EndAt,
		IsActive:      true,
	}
	if input.IsActive != nil {
		promotion.IsActive = *input.IsActive
	}
	if err := s.repo.CreatePromotion(ctx, promotion); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion")
	}
	return promotion, nil
}

func (s *service) UpdatePromotion(ctx context.Context, id uuid.UUID, input PromotionInput) error {
	if input.ScopeType != nil {
		if err := validateScope(*input.ScopeType, input.ScopeID); err != nil {
			return err
		}
	}
	if input.DiscountType != nil && input.DiscountValue != nil {
		if err := validateDiscount(*input.DiscountType, *input.DiscountValue); err != nil {
			return err
		}
	}

	updates := map[string]any{}
	putString(updates, "name", input.Name)
	putString(updates, "scope_type", input.ScopeType)
	if input.ScopeID != nil {
		updates["scope_id"] = input.ScopeID
	}
	if input.DiscountType != nil {
		updates["discount_type"] = *input.DiscountType
	}
	if input.DiscountValue != nil {
		updates["discount_value"] = *input.DiscountValue
	}
	if input.StartAt != nil {
		updates["start_at"] = input.StartAt
	}
	if input.EndAt != nil {
		updates["end_at"] = input.EndAt
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	return s.applyUpdate(ctx, "promotion", updates, func() (int64, error) {
		return s.repo.UpdatePromotion(ctx, id, updates)
	})
}

func (s *service) DeletePromotion(ctx context.Context, id uuid.UUID) error {
	return s.applyDelete(ctx, "promotion", func() (int64, error) {
		return s.repo.DeletePromotion(ctx, id)
	})
}

func (s *service) UpsertContent(ctx context.Context, input ContentInput) error {
	key := strings.TrimSpace(input.Key)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "content key required")
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "text"
	}
	content := &models.SiteContent{
		ID:          uuid.New(),
		Key:         key,
		Value:       input.Value,
		ContentType: contentType,
		IsActive:    input.IsActive,
	}
	if err := s.repo.UpsertContent(ctx, content); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert content")
	}
	return nil
}

func (s *service) UpsertSetting(ctx context.Context, input SettingInput) error {
	key := strings.TrimSpace(input.Key)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "setting key required")
	}
	setting := &models.SiteSetting{
		ID:       uuid.New(),
		Key:      key,
		Value:    input.Value,
		IsPublic: input.IsPublic,
	}
	if err := s.repo.UpsertSetting(ctx, setting); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert setting")
	}
	return nil
}

func (s *service) applyUpdate(ctx context.Context, entity string, updates map[string]any, fn func() (int64, error)) error {
	if len(updates) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	affected, err := fn()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update "+entity)
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return nil
}

func (s *service) applyDelete(ctx context.Context, entity string, fn func() (int64, error)) error {
	affected, err := fn()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete "+entity)
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return nil
}

func validateScope(scopeType string, scopeID *uuid.UUID) error {
	switch scopeType {
	case PromotionScopeGlobal:
		return nil
	case PromotionScopeProduct, PromotionScopeCategory:
		if scopeID == nil || *scopeID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "scope_id required for scoped promotion")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid scope_type")
	}
}

func validateDiscount(discountType enums.PromotionType, value int) error {
	if value <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if discountType == enums.PromotionTypePercentage && value > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	return nil
}

func putString(updates map[string]any, column string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return
	}
	updates[column] = trimmed
}
