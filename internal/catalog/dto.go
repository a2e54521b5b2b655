package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
)

// PackDTO is a purchasable pack as shown to customers.
type PackDTO struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Amount     int            `json:"amount"`
	PriceCents int            `json:"price_cents"`
	Currency   enums.Currency `json:"currency"`
}

// ProductDTO is a storefront listing inside a category.
type ProductDTO struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	Description    *string        `json:"description,omitempty"`
	ImageURL       *string        `json:"image_url,omitempty"`
	BasePriceCents int            `json:"base_price_cents"`
	Currency       enums.Currency `json:"currency"`
}

// CategoryDTO groups products under a game heading.
type CategoryDTO struct {
	ID       uuid.UUID    `json:"id"`
	Name     string       `json:"name"`
	Slug     string       `json:"slug"`
	ImageURL *string      `json:"image_url,omitempty"`
	Products []ProductDTO `json:"products"`
}

// PromotionDTO is an active discount window.
type PromotionDTO struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	ScopeType     string              `json:"scope_type"`
	ScopeID       *uuid.UUID          `json:"scope_id,omitempty"`
	DiscountType  enums.PromotionType `json:"discount_type"`
	DiscountValue int                 `json:"discount_value"`
	StartAt       *time.Time          `json:"start_at,omitempty"`
	EndAt         *time.Time          `json:"end_at,omitempty"`
}

// Storefront aggregates everything the public home page needs.
type Storefront struct {
	Categories []CategoryDTO      `json:"categories"`
	Promotions []PromotionDTO     `json:"promotions"`
	Contents   map[string]*string `json:"contents"`
	Settings   map[string]*string `json:"settings"`
}

func toPackDTO(pack models.Pack) PackDTO {
	return PackDTO{
		ID:         pack.ID,
		Name:       pack.Name,
		Amount:     pack.Amount,
		PriceCents: pack.PriceCents,
		Currency:   pack.Currency,
	}
}

func toCategoryDTO(category models.GameCategory) CategoryDTO {
	products := make([]ProductDTO, 0, len(category.Products))
	for _, product := range category.Products {
		products = append(products, ProductDTO{
			ID:             product.ID,
			Name:           product.Name,
			Slug:           product.Slug,
			Description:    product.Description,
			ImageURL:       product.ImageURL,
			BasePriceCents: product.BasePriceCents,
			Currency:       product.Currency,
		})
	}
	return CategoryDTO{
		ID:       category.ID,
		Name:     category.Name,
		Slug:     category.Slug,
		ImageURL: category.ImageURL,
		Products: products,
	}
}

func toPromotionDTO(promotion models.Promotion) PromotionDTO {
	return PromotionDTO{
		ID:            promotion.ID,
		Name:          promotion.Name,
		ScopeType:     promotion.ScopeType,
		ScopeID:       promotion.ScopeID,
		DiscountType:  promotion.DiscountType,
		DiscountValue: promotion.DiscountValue,
		StartAt:       promotion.StartAt,
		EndAt:         promotion.EndAt,
	}
}
